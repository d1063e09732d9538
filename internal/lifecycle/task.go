package lifecycle

import (
	"time"

	"github.com/Leganyst/mci-platform/internal/model"
)

// TaskMachine допускает повторное открытие завершённой задачи
// и восстановление отменённой.
var TaskMachine = NewMachine("task", map[model.TaskStatus][]model.TaskStatus{
	model.TaskStatusPending:    {model.TaskStatusInProgress, model.TaskStatusCancelled},
	model.TaskStatusInProgress: {model.TaskStatusCompleted, model.TaskStatusPending, model.TaskStatusCancelled},
	model.TaskStatusCompleted:  {model.TaskStatusInProgress},
	model.TaskStatusCancelled:  {model.TaskStatusPending},
})

// ApplyTaskTransition добавляет в changes смену статуса задачи.
// completed_at ставится при входе в completed и сбрасывается при выходе.
func ApplyTaskTransition(changes model.Changes, t model.Task, target model.TaskStatus, now time.Time) error {
	if err := TaskMachine.Validate(t.Status, target); err != nil {
		return err
	}
	changes.Track("status", t.Status, target)
	switch {
	case target == model.TaskStatusCompleted:
		changes.Track("completed_at", t.CompletedAt, now.UTC())
	case t.Status == model.TaskStatusCompleted:
		changes.Track("completed_at", t.CompletedAt, nil)
	}
	return nil
}
