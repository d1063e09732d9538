package lifecycle

import (
	"time"

	"github.com/Leganyst/mci-platform/internal/model"
)

// EventMachine: upcoming → {in_progress, cancelled}; in_progress → {finished, cancelled}.
var EventMachine = NewMachine("event", map[model.EventStatus][]model.EventStatus{
	model.EventStatusUpcoming:   {model.EventStatusInProgress, model.EventStatusCancelled},
	model.EventStatusInProgress: {model.EventStatusFinished, model.EventStatusCancelled},
	model.EventStatusFinished:   {},
	model.EventStatusCancelled:  {},
})

// ApplyEventTransition проверяет переход и возвращает изменения для записи.
// При входе в finished проставляет finish_time, если его нет;
// при входе в in_progress — start_time.
func ApplyEventTransition(e model.Event, target model.EventStatus, now time.Time) (model.Changes, error) {
	if err := EventMachine.Validate(e.Status, target); err != nil {
		return nil, err
	}
	now = now.UTC()
	changes := model.Changes{}
	changes.Track("status", e.Status, target)
	if target == model.EventStatusFinished && e.FinishTime == nil {
		changes.Track("finish_time", nil, now)
	}
	if target == model.EventStatusInProgress && e.StartTime == nil {
		changes.Track("start_time", nil, now)
	}
	return changes, nil
}
