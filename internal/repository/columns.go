package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Колонки, которые разрешено менять частичным обновлением. Всё остальное
// (id, event_id, created_by, invite_code, ...) меняется только при создании.
var updatableColumns = map[string]map[string]struct{}{
	"events":            set("name", "location", "status", "start_time", "finish_time"),
	"camps":             set("location_name", "capacity"),
	"casualties":        set("camp_id", "color", "breathing", "conscious", "bleeding", "hospital_status", "notes"),
	"tasks":             set("description", "status", "priority", "assigned_to", "due_date", "completed_at"),
	"groups":            set("name", "max_members", "lead_id"),
	"resource_requests": set("confirmed", "confirmed_by", "arrival_time"),
	"professionals":     set("name", "role", "current_event_id", "current_camp_id", "group_id"),
}

func set(cols ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		out[c] = struct{}{}
	}
	return out
}

// compile проверяет колонки по белому списку и возвращает значения для UPDATE.
// Имена колонок никогда не подставляются в SQL в обход списка.
func compile(table string, changes model.Changes) (map[string]any, error) {
	allowed, ok := updatableColumns[table]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindInternal, "table %s has no updatable columns", table)
	}
	values := make(map[string]any, len(changes))
	for col, fc := range changes {
		if _, ok := allowed[col]; !ok {
			return nil, apperrors.Wrap(apperrors.KindInternal, "internal storage error",
				fmt.Errorf("column %s.%s is not updatable", table, col))
		}
		values[col] = fc.To
	}
	return values, nil
}

// applyChanges выполняет параметризованный UPDATE по id.
func applyChanges(db *gorm.DB, value any, table string, id any, changes model.Changes) error {
	if changes.Empty() {
		return nil
	}
	values, err := compile(table, changes)
	if err != nil {
		return err
	}
	return db.Model(value).Where("id = ?", id).Updates(values).Error
}
