package model

import (
	"time"

	"github.com/google/uuid"
)

// resource_requests
type ResourceRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity int       `gorm:"not null;default:1" json:"quantity"`
	Priority Priority  `gorm:"type:varchar(16);not null" json:"priority"`

	Confirmed   bool       `gorm:"not null;default:false;index" json:"confirmed"`
	ConfirmedBy *uuid.UUID `gorm:"type:uuid" json:"confirmed_by"`
	ArrivalTime *time.Time `json:"arrival_time"`

	RequestedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"requested_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (r ResourceRequest) Snapshot() map[string]any {
	return map[string]any{
		"event_id":     r.EventID,
		"name":         r.Name,
		"quantity":     r.Quantity,
		"priority":     r.Priority,
		"confirmed":    r.Confirmed,
		"confirmed_by": r.ConfirmedBy,
		"arrival_time": r.ArrivalTime,
		"requested_by": r.RequestedBy,
	}
}
