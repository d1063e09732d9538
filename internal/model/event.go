package model

import (
	"time"

	"github.com/google/uuid"
)

// Статус события (инцидента или учений).
type EventStatus string

const (
	EventStatusUpcoming   EventStatus = "upcoming"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusFinished   EventStatus = "finished"
	EventStatusCancelled  EventStatus = "cancelled"
)

// IsClosed — событие в терминальном статусе, содержимое менять нельзя.
func (s EventStatus) IsClosed() bool {
	return s == EventStatusFinished || s == EventStatusCancelled
}

// events
type Event struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string      `gorm:"type:varchar(255);not null" json:"name"`
	Location string      `gorm:"type:varchar(255)" json:"location"`
	Status   EventStatus `gorm:"type:varchar(32);not null;index" json:"status"`

	StartTime  *time.Time `json:"start_time"`
	FinishTime *time.Time `json:"finish_time"`

	// Код приглашения хранится в верхнем регистре.
	InviteCode string    `gorm:"type:varchar(16);not null;uniqueIndex" json:"invite_code"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Snapshot — значения полей для аудита.
func (e Event) Snapshot() map[string]any {
	return map[string]any{
		"name":        e.Name,
		"location":    e.Location,
		"status":      e.Status,
		"start_time":  e.StartTime,
		"finish_time": e.FinishTime,
		"invite_code": e.InviteCode,
		"created_by":  e.CreatedBy,
	}
}
