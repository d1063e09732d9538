package service

import (
	"testing"
	"time"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/lifecycle"
	"github.com/Leganyst/mci-platform/internal/model"
)

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	past := testNow.Add(-time.Minute)

	cases := map[string]CreateTaskInput{
		"empty description": {AssigneeID: f.commander.ID, Description: " "},
		"unknown priority":  {AssigneeID: f.commander.ID, Description: "Triage", Priority: "urgent"},
		"past due date":     {AssigneeID: f.commander.ID, Description: "Triage", DueDate: &past},
	}
	for name, in := range cases {
		_, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, in)
		if !apperrors.IsKind(err, apperrors.KindConstraintViolation) {
			t.Fatalf("%s: error = %v, want CONSTRAINT_VIOLATION", name, err)
		}
	}

	task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: "Triage"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	if task.Status != model.TaskStatusPending || task.Priority != model.PriorityMedium {
		t.Fatalf("task = (%s, %s), want (pending, medium)", task.Status, task.Priority)
	}
}

// Завершённая задача: чужой не может менять её, автор переоткрывает.
func TestUpdateTask_CompletedTaskReopenedByCreator(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	creator := f.member("Creator", model.RoleMedicalOfficer, e)
	assignee := f.member("Assignee", model.RoleVolunteer, e)
	outsider := f.member("Outsider", model.RoleMERTMember, e)

	task, err := f.svc.CreateTask(f.ctx, creator, e.ID, CreateTaskInput{AssigneeID: assignee.ID, Description: "Carry stretchers"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	for _, status := range []model.TaskStatus{model.TaskStatusInProgress, model.TaskStatusCompleted} {
		if _, _, err := f.svc.UpdateTask(f.ctx, assignee, task.ID, model.TaskPatch{Status: ptr(status)}); err != nil {
			t.Fatalf("UpdateTask(%s) by assignee error = %v", status, err)
		}
	}
	before := f.auditCount(model.EntityTask, task.ID)

	_, _, err = f.svc.UpdateTask(f.ctx, assignee, task.ID, model.TaskPatch{Description: ptr("Carry more")})
	wantKind(t, err, apperrors.KindTaskLocked)
	_, _, err = f.svc.UpdateTask(f.ctx, outsider, task.ID, model.TaskPatch{Status: ptr(model.TaskStatusInProgress)})
	wantKind(t, err, apperrors.KindForbidden)
	if after := f.auditCount(model.EntityTask, task.ID); after != before {
		t.Fatalf("audit entries = %d, want %d", after, before)
	}

	got, fields, err := f.svc.UpdateTask(f.ctx, creator, task.ID, model.TaskPatch{Status: ptr(model.TaskStatusInProgress)})
	if err != nil {
		t.Fatalf("UpdateTask(in_progress) by creator error = %v", err)
	}
	if got.Status != model.TaskStatusInProgress || got.CompletedAt != nil {
		t.Fatalf("task = (%s, %v), want in_progress without completed_at", got.Status, got.CompletedAt)
	}
	if len(fields) != 2 || fields[0] != "completed_at" || fields[1] != "status" {
		t.Fatalf("changed fields = %v, want [completed_at status]", fields)
	}
}

func TestUpdateTask_CompletingStampsCompletedAt(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: "Count"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	if _, _, err := f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{Status: ptr(model.TaskStatusInProgress)}); err != nil {
		t.Fatalf("UpdateTask(in_progress) error = %v", err)
	}

	// срок в прошлом допустим, если патч завершает задачу
	past := testNow.Add(-time.Hour)
	got, _, err := f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{
		Status:  ptr(model.TaskStatusCompleted),
		DueDate: model.Value(past),
	})
	if err != nil {
		t.Fatalf("UpdateTask(completed) error = %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(testNow) {
		t.Fatalf("completed_at = %v, want %v", got.CompletedAt, testNow)
	}
}

func TestUpdateTask_PastDueDateRejected(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: "Count"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	_, _, err = f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{DueDate: model.Value(testNow.Add(-time.Hour))})
	wantKind(t, err, apperrors.KindConstraintViolation)
}

func TestUpdateTask_ReassignRequiresCreator(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	creator := f.member("Creator", model.RoleMedicalOfficer, e)
	assignee := f.member("Assignee", model.RoleVolunteer, e)
	other := f.member("Other", model.RoleVolunteer, e)

	task, err := f.svc.CreateTask(f.ctx, creator, e.ID, CreateTaskInput{AssigneeID: assignee.ID, Description: "Guard"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	_, _, err = f.svc.UpdateTask(f.ctx, assignee, task.ID, model.TaskPatch{AssignedTo: &other.ID})
	wantKind(t, err, apperrors.KindForbidden)

	got, _, err := f.svc.UpdateTask(f.ctx, creator, task.ID, model.TaskPatch{AssignedTo: &other.ID})
	if err != nil {
		t.Fatalf("UpdateTask(reassign) error = %v", err)
	}
	if got.AssignedTo != other.ID {
		t.Fatalf("assigned_to = %s, want %s", got.AssignedTo, other.ID)
	}
}

// путь из pending в каждый статус задачи
var taskPaths = map[model.TaskStatus][]model.TaskStatus{
	model.TaskStatusPending:    nil,
	model.TaskStatusInProgress: {model.TaskStatusInProgress},
	model.TaskStatusCompleted:  {model.TaskStatusInProgress, model.TaskStatusCompleted},
	model.TaskStatusCancelled:  {model.TaskStatusCancelled},
}

func TestUpdateTask_TableCompleteness(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	states := lifecycle.TaskMachine.States()

	for _, from := range states {
		for _, to := range states {
			if from == to {
				continue // тот же статус переходом не считается
			}
			task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: string(from) + "->" + string(to)})
			if err != nil {
				t.Fatalf("CreateTask error = %v", err)
			}
			for _, step := range taskPaths[from] {
				if _, _, err := f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{Status: ptr(step)}); err != nil {
					t.Fatalf("drive task to %s: %v", step, err)
				}
			}

			got, _, err := f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{Status: ptr(to)})
			if lifecycle.TaskMachine.CanTransition(from, to) {
				if err != nil {
					t.Fatalf("UpdateTask(%s -> %s) error = %v, want nil", from, to, err)
				}
				if got.Status != to {
					t.Fatalf("UpdateTask(%s -> %s) status = %s", from, to, got.Status)
				}
				continue
			}
			wantKind(t, err, apperrors.KindInvalidTransition)
		}
	}
}

func TestUpdateTask_SameStatusIsNoChange(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: "Count"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	_, _, err = f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{Status: ptr(model.TaskStatusPending)})
	wantKind(t, err, apperrors.KindNoChange)
}

func TestCancelTask(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	creator := f.member("Creator", model.RoleMedicalOfficer, e)
	assignee := f.member("Assignee", model.RoleVolunteer, e)
	task, err := f.svc.CreateTask(f.ctx, creator, e.ID, CreateTaskInput{AssigneeID: assignee.ID, Description: "Guard"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}

	_, err = f.svc.CancelTask(f.ctx, assignee, task.ID)
	wantKind(t, err, apperrors.KindForbidden)

	got, err := f.svc.CancelTask(f.ctx, creator, task.ID)
	if err != nil {
		t.Fatalf("CancelTask error = %v", err)
	}
	if got.Status != model.TaskStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	_, err = f.svc.CancelTask(f.ctx, creator, task.ID)
	wantKind(t, err, apperrors.KindNoChange)

	actions := f.auditActions(model.EntityTask, task.ID)
	if last := actions[len(actions)-1]; last != model.AuditTransitioned {
		t.Fatalf("last action = %s, want %s", last, model.AuditTransitioned)
	}
}

func TestClosedEvent_TasksStillUpdatable(t *testing.T) {
	f := newFixture(t)
	e := f.event("E1")
	task, err := f.svc.CreateTask(f.ctx, f.commander, e.ID, CreateTaskInput{AssigneeID: f.commander.ID, Description: "Wrap up"})
	if err != nil {
		t.Fatalf("CreateTask error = %v", err)
	}
	if _, err := f.svc.TransitionEvent(f.ctx, f.commander, e.ID, model.EventStatusCancelled); err != nil {
		t.Fatalf("TransitionEvent error = %v", err)
	}
	if _, _, err := f.svc.UpdateTask(f.ctx, f.commander, task.ID, model.TaskPatch{Status: ptr(model.TaskStatusInProgress)}); err != nil {
		t.Fatalf("UpdateTask on closed event error = %v", err)
	}
}
