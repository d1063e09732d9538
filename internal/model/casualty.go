package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Цвет сортировки (приоритет пострадавшего).
type TriageColor string

const (
	TriageGreen  TriageColor = "green"
	TriageYellow TriageColor = "yellow"
	TriageRed    TriageColor = "red"
	TriageBlack  TriageColor = "black"
)

// Rank — порядок отображения: red > yellow > green > black.
func (c TriageColor) Rank() int {
	switch c {
	case TriageRed:
		return 0
	case TriageYellow:
		return 1
	case TriageGreen:
		return 2
	case TriageBlack:
		return 3
	default:
		return 4
	}
}

func ParseTriageColor(value string) (TriageColor, error) {
	switch c := TriageColor(strings.ToLower(strings.TrimSpace(value))); c {
	case TriageGreen, TriageYellow, TriageRed, TriageBlack:
		return c, nil
	default:
		return "", fmt.Errorf("unknown triage color: %q", value)
	}
}

// casualties
type Casualty struct {
	ID      uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	EventID uuid.UUID   `gorm:"type:uuid;not null;index" json:"event_id"`
	CampID  *uuid.UUID  `gorm:"type:uuid;index" json:"camp_id"`
	Color   TriageColor `gorm:"type:varchar(16);not null;index" json:"color"`

	Breathing bool `gorm:"not null;default:false" json:"breathing"`
	Conscious bool `gorm:"not null;default:false" json:"conscious"`
	Bleeding  bool `gorm:"not null;default:false" json:"bleeding"`

	HospitalStatus string `gorm:"type:varchar(255)" json:"hospital_status"`
	Notes          string `gorm:"type:text" json:"notes"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Camp  *Camp  `gorm:"foreignKey:CampID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

func (c Casualty) Snapshot() map[string]any {
	return map[string]any{
		"event_id":        c.EventID,
		"camp_id":         c.CampID,
		"color":           c.Color,
		"breathing":       c.Breathing,
		"conscious":       c.Conscious,
		"bleeding":        c.Bleeding,
		"hospital_status": c.HospitalStatus,
		"notes":           c.Notes,
		"created_by":      c.CreatedBy,
	}
}
