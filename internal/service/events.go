package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/lifecycle"
	"github.com/Leganyst/mci-platform/internal/model"
)

const (
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteLength   = 8
	inviteAttempts = 5
)

// randomInviteCode — 8 символов без похожих (0/O, 1/I).
func randomInviteCode() (string, error) {
	b := make([]byte, inviteLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = inviteAlphabet[int(b[i])%len(inviteAlphabet)]
	}
	return string(b), nil
}

// NormalizeInviteCode — коды сравниваются без учёта регистра и пробелов.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (u *unit) newInviteCode() (string, error) {
	for i := 0; i < inviteAttempts; i++ {
		code, err := u.svc.codes()
		if err != nil {
			return "", apperrors.Wrap(apperrors.KindInternal, "generate invite code", err)
		}
		code = NormalizeInviteCode(code)
		taken, err := u.repos.Events.InviteCodeExists(u.ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.New(apperrors.KindInternal, "could not allocate a unique invite code")
}

func checkEventWindow(start, finish *time.Time) error {
	if start != nil && finish != nil && finish.Before(*start) {
		return apperrors.ConstraintViolation("event finish_time must not be before start_time")
	}
	return nil
}

type CreateEventInput struct {
	Name       string
	Location   string
	StartTime  *time.Time
	FinishTime *time.Time
}

// CreateEvent создаёт событие в статусе upcoming и назначает на него автора.
func (s *Service) CreateEvent(ctx context.Context, p authz.Principal, in CreateEventInput) (model.Event, error) {
	var out model.Event
	err := s.run(ctx, "CreateEvent", p, func(u *unit) error {
		if err := u.authorize(authz.EventCreate, authz.Target{}); err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return apperrors.ConstraintViolation("event name must not be empty")
		}
		if err := checkEventWindow(in.StartTime, in.FinishTime); err != nil {
			return err
		}
		code, err := u.newInviteCode()
		if err != nil {
			return err
		}

		e := model.Event{
			ID:         uuid.New(),
			Name:       name,
			Location:   strings.TrimSpace(in.Location),
			Status:     model.EventStatusUpcoming,
			StartTime:  utcPtr(in.StartTime),
			FinishTime: utcPtr(in.FinishTime),
			InviteCode: code,
			CreatedBy:  u.actor.ID,
		}
		if err := u.repos.Events.Create(u.ctx, &e); err != nil {
			return err
		}
		u.record(model.EntityEvent, e.ID, model.AuditCreated, model.Created(e.Snapshot()))

		if err := u.moveActor(&e, nil); err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

// moveActor назначает самого вызывающего на событие (и лагерь), заменяя прежнее назначение.
func (u *unit) moveActor(e *model.Event, camp *model.Camp) error {
	self, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, u.actor.ID)
	if err != nil {
		return err
	}
	if err := validateAssignment(&e.ID, camp); err != nil {
		return err
	}
	var campID *uuid.UUID
	if camp != nil {
		campID = &camp.ID
	}
	changes := model.Changes{}
	changes.Track("current_event_id", self.CurrentEventID, e.ID)
	changes.Track("current_camp_id", self.CurrentCampID, campID)
	if changes.Empty() {
		return apperrors.NoChange("assignment")
	}
	if err := u.repos.Professionals.Update(u.ctx, self.ID, changes); err != nil {
		return err
	}
	u.actor.CurrentEventID = &e.ID
	changes.Track("professional_id", nil, self.ID)
	u.record(model.EntityEvent, e.ID, model.AuditMemberJoined, changes)
	return nil
}

// UpdateEvent меняет название, место и время. Закрытые события не меняются.
func (s *Service) UpdateEvent(ctx context.Context, p authz.Principal, eventID uuid.UUID, patch model.EventPatch) (model.Event, []string, error) {
	var (
		out     model.Event
		changed []string
	)
	err := s.run(ctx, "UpdateEvent", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.EventUpdate, eventTarget(e.ID)); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			return apperrors.ConstraintViolation("event name must not be empty")
		}

		changes := patch.Apply(*e)
		if changes.Empty() {
			return apperrors.NoChange("event")
		}
		start, finish := e.StartTime, e.FinishTime
		if patch.StartTime.Set {
			start = patch.StartTime.Value
		}
		if patch.FinishTime.Set {
			finish = patch.FinishTime.Value
		}
		if err := checkEventWindow(start, finish); err != nil {
			return err
		}

		if err := u.repos.Events.Update(u.ctx, e.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityEvent, e.ID, model.AuditUpdated, changes)

		fresh, err := u.repos.Events.GetByID(u.ctx, e.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}

// TransitionEvent переводит событие по таблице переходов. При входе
// в finished без finish_time время проставляется моментом перехода.
func (s *Service) TransitionEvent(ctx context.Context, p authz.Principal, eventID uuid.UUID, status model.EventStatus) (model.Event, error) {
	var out model.Event
	err := s.run(ctx, "TransitionEvent", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.EventTransition, eventTarget(e.ID)); err != nil {
			return err
		}
		changes, err := lifecycle.ApplyEventTransition(*e, status, u.now)
		if err != nil {
			return err
		}
		if err := u.repos.Events.Update(u.ctx, e.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityEvent, e.ID, model.AuditTransitioned, changes)

		fresh, err := u.repos.Events.GetByID(u.ctx, e.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}

// DeleteEvent удаляет событие без зависимых данных. С force зависимые
// лагеря, пострадавшие, задачи и запросы ресурсов удаляются вместе с ним,
// специалисты снимаются с события.
func (s *Service) DeleteEvent(ctx context.Context, p authz.Principal, eventID uuid.UUID, force bool) error {
	return s.run(ctx, "DeleteEvent", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.EventDelete, eventTarget(e.ID)); err != nil {
			return err
		}
		deps, err := u.repos.Events.CountDependents(u.ctx, e.ID)
		if err != nil {
			return err
		}
		if deps.Total() > 0 && !force {
			return apperrors.WithMetadata(apperrors.KindConstraintViolation,
				"event has dependent data; use force to delete it",
				map[string]string{
					"camps":      fmt.Sprint(deps.Camps),
					"casualties": fmt.Sprint(deps.Casualties),
					"tasks":      fmt.Sprint(deps.Tasks),
					"resources":  fmt.Sprint(deps.Resources),
				},
			)
		}

		if _, err := u.repos.Professionals.DetachFromEvent(u.ctx, e.ID); err != nil {
			return err
		}
		if deps.Total() > 0 {
			if err := u.purgeEvent(e.ID); err != nil {
				return err
			}
		}
		if err := u.repos.Events.Delete(u.ctx, e.ID); err != nil {
			return err
		}
		u.record(model.EntityEvent, e.ID, model.AuditDeleted, model.Deleted(e.Snapshot()))
		return nil
	})
}

// purgeEvent удаляет зависимые данные события, записывая удаление каждой строки.
func (u *unit) purgeEvent(eventID uuid.UUID) error {
	tasks, err := u.repos.Tasks.ListByEvent(u.ctx, eventID)
	if err != nil {
		return err
	}
	if err := u.repos.Tasks.DeleteByEvent(u.ctx, eventID); err != nil {
		return err
	}
	for _, t := range tasks {
		u.record(model.EntityTask, t.ID, model.AuditDeleted, model.Deleted(t.Snapshot()))
	}

	resources, err := u.repos.Resources.ListByEvent(u.ctx, eventID)
	if err != nil {
		return err
	}
	if err := u.repos.Resources.DeleteByEvent(u.ctx, eventID); err != nil {
		return err
	}
	for _, r := range resources {
		u.record(model.EntityResource, r.ID, model.AuditDeleted, model.Deleted(r.Snapshot()))
	}

	casualties, err := u.repos.Casualties.ListByEvent(u.ctx, eventID)
	if err != nil {
		return err
	}
	for _, c := range casualties {
		if err := u.repos.Casualties.Delete(u.ctx, c.ID); err != nil {
			return err
		}
		u.record(model.EntityCasualty, c.ID, model.AuditDeleted, model.Deleted(c.Snapshot()))
	}

	camps, err := u.repos.Camps.ListByEvent(u.ctx, eventID)
	if err != nil {
		return err
	}
	for _, c := range camps {
		if err := u.repos.Camps.Delete(u.ctx, c.ID); err != nil {
			return err
		}
		u.record(model.EntityCamp, c.ID, model.AuditDeleted, model.Deleted(c.Snapshot()))
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
