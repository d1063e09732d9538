package grpcapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/changefeed"
	"github.com/Leganyst/mci-platform/internal/listing"
	"github.com/Leganyst/mci-platform/internal/model"
	"github.com/Leganyst/mci-platform/internal/service"
)

var methods = []method{
	{name: "RegisterProfessional", anonymous: true, handle: registerProfessional},
	{name: "GetProfessional", handle: getProfessional},
	{name: "SetRole", handle: setRole},

	{name: "CreateEvent", handle: createEvent},
	{name: "UpdateEvent", handle: updateEvent},
	{name: "TransitionEvent", handle: transitionEvent},
	{name: "DeleteEvent", handle: deleteEvent},
	{name: "JoinEventByCode", handle: joinEventByCode},
	{name: "LeaveEvent", handle: leaveEvent},
	{name: "AssignCamp", handle: assignCamp},

	{name: "CreateCamp", handle: createCamp},
	{name: "UpdateCamp", handle: updateCamp},
	{name: "DeleteCamp", handle: deleteCamp},
	{name: "ListCamps", handle: listCamps},

	{name: "AddCasualty", handle: addCasualty},
	{name: "UpdateCasualtyStatus", handle: updateCasualtyStatus},
	{name: "DeleteCasualty", handle: deleteCasualty},
	{name: "ListCasualties", handle: listCasualties},

	{name: "CreateTask", handle: createTask},
	{name: "UpdateTask", handle: updateTask},
	{name: "CancelTask", handle: cancelTask},

	{name: "RequestResource", handle: requestResource},
	{name: "ConfirmResource", handle: confirmResource},

	{name: "CreateGroup", handle: createGroup},
	{name: "UpdateGroup", handle: updateGroup},
	{name: "AddMember", handle: addMember},
	{name: "RemoveMember", handle: removeMember},
	{name: "DeleteGroup", handle: deleteGroup},

	{name: "AuditTrail", handle: auditTrail},
}

// updated — ответ операций обновления: сущность и список изменённых полей.
func updated(key string, v any, fields []string) map[string]any {
	if fields == nil {
		fields = []string{}
	}
	return map[string]any{key: v, "changed_fields": fields}
}

func registerProfessional(ctx context.Context, svc *service.Service, _ authz.Principal, req request) (any, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	id, err := req.optionalID("id")
	if err != nil {
		return nil, err
	}
	// Вызывающий не аутентифицирован: роль из запроса не принимается,
	// её назначает командир через SetRole.
	reg := service.RegisterInput{Name: in.Name}
	if id != nil {
		reg.ID = *id
	}
	pro, err := svc.SelfRegister(ctx, reg)
	if err != nil {
		return nil, err
	}
	return map[string]any{"professional": pro}, nil
}

func getProfessional(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("professional_id")
	if err != nil {
		return nil, err
	}
	pro, err := svc.GetProfessional(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"professional": pro}, nil
}

func setRole(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("professional_id")
	if err != nil {
		return nil, err
	}
	var role string
	if err := req.decode("role", &role); err != nil {
		return nil, err
	}
	pro, err := svc.SetRole(ctx, p, id, role)
	if err != nil {
		return nil, err
	}
	return map[string]any{"professional": pro}, nil
}

func createEvent(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	var in struct {
		Name       string     `json:"name"`
		Location   string     `json:"location"`
		StartTime  *time.Time `json:"start_time"`
		FinishTime *time.Time `json:"finish_time"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	e, err := svc.CreateEvent(ctx, p, service.CreateEventInput{
		Name:       in.Name,
		Location:   in.Location,
		StartTime:  in.StartTime,
		FinishTime: in.FinishTime,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"event": e}, nil
}

func updateEvent(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	var patch model.EventPatch
	if patch.Name, err = optional[string](req, "name"); err != nil {
		return nil, err
	}
	if patch.Location, err = optional[string](req, "location"); err != nil {
		return nil, err
	}
	if patch.StartTime, err = nullable[time.Time](req, "start_time"); err != nil {
		return nil, err
	}
	if patch.FinishTime, err = nullable[time.Time](req, "finish_time"); err != nil {
		return nil, err
	}
	e, fields, err := svc.UpdateEvent(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	return updated("event", e, fields), nil
}

func transitionEvent(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	var status model.EventStatus
	if err := req.decode("status", &status); err != nil {
		return nil, err
	}
	e, err := svc.TransitionEvent(ctx, p, id, status)
	if err != nil {
		return nil, err
	}
	return map[string]any{"event": e}, nil
}

func deleteEvent(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	force, err := optional[bool](req, "force")
	if err != nil {
		return nil, err
	}
	return nil, svc.DeleteEvent(ctx, p, id, force != nil && *force)
}

func joinEventByCode(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	var code string
	if err := req.decode("invite_code", &code); err != nil {
		return nil, err
	}
	campID, err := req.optionalID("camp_id")
	if err != nil {
		return nil, err
	}
	res, err := svc.JoinEventByCode(ctx, p, code, campID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"event": res.Event, "camp": res.Camp}, nil
}

func leaveEvent(ctx context.Context, svc *service.Service, p authz.Principal, _ request) (any, error) {
	return nil, svc.LeaveEvent(ctx, p)
}

func assignCamp(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("professional_id")
	if err != nil {
		return nil, err
	}
	campID, err := req.optionalID("camp_id")
	if err != nil {
		return nil, err
	}
	pro, err := svc.AssignCamp(ctx, p, id, campID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"professional": pro}, nil
}

func createCamp(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	var in struct {
		LocationName string `json:"location_name"`
		Capacity     *int   `json:"capacity"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	c, err := svc.CreateCamp(ctx, p, eventID, service.CreateCampInput{LocationName: in.LocationName, Capacity: in.Capacity})
	if err != nil {
		return nil, err
	}
	return map[string]any{"camp": c}, nil
}

func updateCamp(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("camp_id")
	if err != nil {
		return nil, err
	}
	var patch model.CampPatch
	if patch.LocationName, err = optional[string](req, "location_name"); err != nil {
		return nil, err
	}
	if patch.Capacity, err = nullable[int](req, "capacity"); err != nil {
		return nil, err
	}
	c, fields, err := svc.UpdateCamp(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	return updated("camp", c, fields), nil
}

func deleteCamp(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("camp_id")
	if err != nil {
		return nil, err
	}
	force, err := optional[bool](req, "force")
	if err != nil {
		return nil, err
	}
	c, err := svc.DeleteCamp(ctx, p, id, force != nil && *force)
	if err != nil {
		return nil, err
	}
	return map[string]any{"camp": c}, nil
}

func listCamps(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	camps, err := svc.ListCamps(ctx, p, eventID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"camps": camps}, nil
}

func addCasualty(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	campID, err := req.optionalID("camp_id")
	if err != nil {
		return nil, err
	}
	var in struct {
		Color          model.TriageColor `json:"color"`
		Breathing      bool              `json:"breathing"`
		Conscious      bool              `json:"conscious"`
		Bleeding       bool              `json:"bleeding"`
		HospitalStatus string            `json:"hospital_status"`
		Notes          string            `json:"notes"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	c, err := svc.AddCasualty(ctx, p, eventID, service.AddCasualtyInput{
		CampID:         campID,
		Color:          in.Color,
		Breathing:      in.Breathing,
		Conscious:      in.Conscious,
		Bleeding:       in.Bleeding,
		HospitalStatus: in.HospitalStatus,
		Notes:          in.Notes,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"casualty": c}, nil
}

func updateCasualtyStatus(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("casualty_id")
	if err != nil {
		return nil, err
	}
	var patch model.CasualtyPatch
	if req.has("camp_id") {
		campID, err := req.optionalID("camp_id")
		if err != nil {
			return nil, err
		}
		patch.CampID = model.Nullable[uuid.UUID]{Set: true, Value: campID}
	}
	if patch.Color, err = optional[model.TriageColor](req, "color"); err != nil {
		return nil, err
	}
	if patch.Breathing, err = optional[bool](req, "breathing"); err != nil {
		return nil, err
	}
	if patch.Conscious, err = optional[bool](req, "conscious"); err != nil {
		return nil, err
	}
	if patch.Bleeding, err = optional[bool](req, "bleeding"); err != nil {
		return nil, err
	}
	if patch.HospitalStatus, err = optional[string](req, "hospital_status"); err != nil {
		return nil, err
	}
	if patch.Notes, err = optional[string](req, "notes"); err != nil {
		return nil, err
	}
	c, fields, err := svc.UpdateCasualtyStatus(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	return updated("casualty", c, fields), nil
}

func deleteCasualty(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("casualty_id")
	if err != nil {
		return nil, err
	}
	return nil, svc.DeleteCasualty(ctx, p, id)
}

func listCasualties(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	var in struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	page, err := svc.ListCasualties(ctx, p, eventID, listing.Request{Page: in.Page, PageSize: in.PageSize})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"casualties": page.Items,
		"page":       page.Page,
		"page_size":  page.PageSize,
		"total":      page.Total,
		"has_next":   page.HasNext,
		"has_prev":   page.HasPrev,
	}, nil
}

func createTask(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	assignee, err := req.id("assigned_to")
	if err != nil {
		return nil, err
	}
	var in struct {
		Description string         `json:"description"`
		Priority    model.Priority `json:"priority"`
		DueDate     *time.Time     `json:"due_date"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	t, err := svc.CreateTask(ctx, p, eventID, service.CreateTaskInput{
		AssigneeID:  assignee,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": t}, nil
}

func updateTask(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("task_id")
	if err != nil {
		return nil, err
	}
	var patch model.TaskPatch
	if patch.Description, err = optional[string](req, "description"); err != nil {
		return nil, err
	}
	if patch.Status, err = optional[model.TaskStatus](req, "status"); err != nil {
		return nil, err
	}
	if patch.Priority, err = optional[model.Priority](req, "priority"); err != nil {
		return nil, err
	}
	if patch.AssignedTo, err = req.optionalID("assigned_to"); err != nil {
		return nil, err
	}
	if patch.DueDate, err = nullable[time.Time](req, "due_date"); err != nil {
		return nil, err
	}
	t, fields, err := svc.UpdateTask(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	return updated("task", t, fields), nil
}

func cancelTask(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("task_id")
	if err != nil {
		return nil, err
	}
	t, err := svc.CancelTask(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": t}, nil
}

func requestResource(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	eventID, err := req.id("event_id")
	if err != nil {
		return nil, err
	}
	var in struct {
		Name     string         `json:"name"`
		Quantity int            `json:"quantity"`
		Priority model.Priority `json:"priority"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	r, err := svc.RequestResource(ctx, p, eventID, service.RequestResourceInput{Name: in.Name, Quantity: in.Quantity, Priority: in.Priority})
	if err != nil {
		return nil, err
	}
	return map[string]any{"resource": r}, nil
}

func confirmResource(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("resource_id")
	if err != nil {
		return nil, err
	}
	var confirmed bool
	if err := req.decode("confirmed", &confirmed); err != nil {
		return nil, err
	}
	arrival, err := optional[time.Time](req, "arrival_time")
	if err != nil {
		return nil, err
	}
	r, fields, err := svc.ConfirmResource(ctx, p, id, confirmed, arrival)
	if err != nil {
		return nil, err
	}
	return updated("resource", r, fields), nil
}

func createGroup(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	lead, err := req.id("lead_id")
	if err != nil {
		return nil, err
	}
	var in struct {
		Name       string `json:"name"`
		MaxMembers int    `json:"max_members"`
	}
	if err := req.bind(&in); err != nil {
		return nil, err
	}
	g, err := svc.CreateGroup(ctx, p, service.CreateGroupInput{Name: in.Name, LeadID: lead, MaxMembers: in.MaxMembers})
	if err != nil {
		return nil, err
	}
	return map[string]any{"group": g}, nil
}

func updateGroup(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("group_id")
	if err != nil {
		return nil, err
	}
	var patch model.GroupPatch
	if patch.Name, err = optional[string](req, "name"); err != nil {
		return nil, err
	}
	if patch.MaxMembers, err = optional[int](req, "max_members"); err != nil {
		return nil, err
	}
	if patch.LeadID, err = req.optionalID("lead_id"); err != nil {
		return nil, err
	}
	g, fields, err := svc.UpdateGroup(ctx, p, id, patch)
	if err != nil {
		return nil, err
	}
	return updated("group", g, fields), nil
}

func addMember(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	groupID, err := req.id("group_id")
	if err != nil {
		return nil, err
	}
	memberID, err := req.id("professional_id")
	if err != nil {
		return nil, err
	}
	pro, err := svc.AddMember(ctx, p, groupID, memberID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"professional": pro}, nil
}

func removeMember(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	groupID, err := req.id("group_id")
	if err != nil {
		return nil, err
	}
	memberID, err := req.id("professional_id")
	if err != nil {
		return nil, err
	}
	return nil, svc.RemoveMember(ctx, p, groupID, memberID)
}

func deleteGroup(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	id, err := req.id("group_id")
	if err != nil {
		return nil, err
	}
	return nil, svc.DeleteGroup(ctx, p, id)
}

func auditTrail(ctx context.Context, svc *service.Service, p authz.Principal, req request) (any, error) {
	var kind model.EntityKind
	if err := req.decode("kind", &kind); err != nil {
		return nil, err
	}
	id, err := req.id("entity_id")
	if err != nil {
		return nil, err
	}
	records, err := svc.AuditTrail(ctx, p, kind, id)
	if err != nil {
		return nil, err
	}
	entries := make([]changefeed.Change, 0, len(records))
	for _, r := range records {
		entries = append(entries, changefeed.FromRecord(r))
	}
	return map[string]any{"entries": entries}, nil
}
