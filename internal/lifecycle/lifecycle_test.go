package lifecycle

import (
	"testing"
	"time"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

var allEventStatuses = []model.EventStatus{
	model.EventStatusUpcoming,
	model.EventStatusInProgress,
	model.EventStatusFinished,
	model.EventStatusCancelled,
}

var allTaskStatuses = []model.TaskStatus{
	model.TaskStatusPending,
	model.TaskStatusInProgress,
	model.TaskStatusCompleted,
	model.TaskStatusCancelled,
}

func TestEventMachine_TableCompleteness(t *testing.T) {
	allowed := map[[2]model.EventStatus]bool{
		{model.EventStatusUpcoming, model.EventStatusInProgress}:  true,
		{model.EventStatusUpcoming, model.EventStatusCancelled}:   true,
		{model.EventStatusInProgress, model.EventStatusFinished}:  true,
		{model.EventStatusInProgress, model.EventStatusCancelled}: true,
	}
	for _, from := range allEventStatuses {
		for _, to := range allEventStatuses {
			want := allowed[[2]model.EventStatus{from, to}]
			if got := EventMachine.CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
			err := EventMachine.Validate(from, to)
			if want && err != nil {
				t.Fatalf("Validate(%s, %s) = %v, want nil", from, to, err)
			}
			if !want && !apperrors.IsKind(err, apperrors.KindInvalidTransition) {
				t.Fatalf("Validate(%s, %s) = %v, want INVALID_TRANSITION", from, to, err)
			}
		}
	}
}

func TestEventMachine_TerminalStates(t *testing.T) {
	for _, s := range []model.EventStatus{model.EventStatusFinished, model.EventStatusCancelled} {
		if !EventMachine.IsTerminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if EventMachine.IsTerminal(model.EventStatusUpcoming) {
		t.Fatalf("upcoming must not be terminal")
	}
}

func TestEventMachine_MessageListsAllowedStates(t *testing.T) {
	err := EventMachine.Validate(model.EventStatusUpcoming, model.EventStatusFinished)
	want := "event status cannot move from upcoming to finished; allowed: cancelled, in_progress"
	if err == nil || err.Error() != want {
		t.Fatalf("message = %v, want %q", err, want)
	}

	err = EventMachine.Validate(model.EventStatusFinished, model.EventStatusInProgress)
	want = "event status cannot move from finished to in_progress; allowed: none (terminal state)"
	if err == nil || err.Error() != want {
		t.Fatalf("message = %v, want %q", err, want)
	}
}

func TestApplyEventTransition_StampsFinishTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := model.Event{Status: model.EventStatusInProgress}

	changes, err := ApplyEventTransition(e, model.EventStatusFinished, now)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	fc, ok := changes["finish_time"]
	if !ok {
		t.Fatalf("finish_time not stamped: %v", changes)
	}
	if got := fc.To.(time.Time); !got.Equal(now) {
		t.Fatalf("finish_time = %v, want %v", got, now)
	}
}

func TestApplyEventTransition_KeepsExistingFinishTime(t *testing.T) {
	planned := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	e := model.Event{Status: model.EventStatusInProgress, FinishTime: &planned}

	changes, err := ApplyEventTransition(e, model.EventStatusFinished, planned.Add(time.Hour))
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, ok := changes["finish_time"]; ok {
		t.Fatalf("finish_time must not be overwritten: %v", changes)
	}
	if got := changes.Fields(); len(got) != 1 || got[0] != "status" {
		t.Fatalf("fields = %v, want [status]", got)
	}
}

func TestTaskMachine_TableCompleteness(t *testing.T) {
	allowed := map[[2]model.TaskStatus]bool{
		{model.TaskStatusPending, model.TaskStatusInProgress}:    true,
		{model.TaskStatusPending, model.TaskStatusCancelled}:     true,
		{model.TaskStatusInProgress, model.TaskStatusCompleted}:  true,
		{model.TaskStatusInProgress, model.TaskStatusPending}:    true,
		{model.TaskStatusInProgress, model.TaskStatusCancelled}:  true,
		{model.TaskStatusCompleted, model.TaskStatusInProgress}:  true,
		{model.TaskStatusCancelled, model.TaskStatusPending}:     true,
	}
	for _, from := range allTaskStatuses {
		for _, to := range allTaskStatuses {
			want := allowed[[2]model.TaskStatus{from, to}]
			if got := TaskMachine.CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestApplyTaskTransition_CompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	changes := model.Changes{}
	task := model.Task{Status: model.TaskStatusInProgress}
	if err := ApplyTaskTransition(changes, task, model.TaskStatusCompleted, now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if fc := changes["completed_at"]; fc.To == nil {
		t.Fatalf("completed_at not stamped")
	}

	reopened := model.Changes{}
	task = model.Task{Status: model.TaskStatusCompleted, CompletedAt: &now}
	if err := ApplyTaskTransition(reopened, task, model.TaskStatusInProgress, now); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	fc, ok := reopened["completed_at"]
	if !ok || fc.To != nil {
		t.Fatalf("completed_at must be cleared on reopen: %v", reopened)
	}
}

func TestApplyTaskTransition_Rejected(t *testing.T) {
	changes := model.Changes{}
	task := model.Task{Status: model.TaskStatusCompleted}
	err := ApplyTaskTransition(changes, task, model.TaskStatusCancelled, time.Now())
	if !apperrors.IsKind(err, apperrors.KindInvalidTransition) {
		t.Fatalf("err = %v, want INVALID_TRANSITION", err)
	}
	if !changes.Empty() {
		t.Fatalf("rejected transition must not stage changes: %v", changes)
	}
}
