package model

import (
	"time"

	"github.com/google/uuid"
)

// groups
//
// Лидер всегда состоит в группе; лимит не опускается ниже численности.
type Group struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	LeadID     uuid.UUID `gorm:"type:uuid;not null;index" json:"lead_id"`
	MaxMembers int       `gorm:"not null" json:"max_members"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (g Group) Snapshot() map[string]any {
	return map[string]any{
		"name":        g.Name,
		"lead_id":     g.LeadID,
		"max_members": g.MaxMembers,
		"created_by":  g.CreatedBy,
	}
}
