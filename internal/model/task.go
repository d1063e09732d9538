package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsLocked — закрытая задача; менять её могут только автор и командир.
func (s TaskStatus) IsLocked() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Priority используется задачами и запросами ресурсов.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func ParsePriority(value string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(value))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	case "":
		return PriorityMedium, nil
	default:
		return "", fmt.Errorf("unknown priority: %q", value)
	}
}

// tasks
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	AssignedTo  uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	Priority    Priority   `gorm:"type:varchar(16);not null" json:"priority"`

	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Event    *Event        `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Creator  *Professional `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Assignee *Professional `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (t Task) Snapshot() map[string]any {
	return map[string]any{
		"event_id":     t.EventID,
		"created_by":   t.CreatedBy,
		"assigned_to":  t.AssignedTo,
		"description":  t.Description,
		"status":       t.Status,
		"priority":     t.Priority,
		"due_date":     t.DueDate,
		"completed_at": t.CompletedAt,
	}
}
