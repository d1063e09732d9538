package model

import (
	"time"

	"github.com/google/uuid"
)

// camps
type Camp struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	LocationName string    `gorm:"type:varchar(255);not null" json:"location_name"`

	// nil — без ограничения вместимости.
	Capacity *int `gorm:"type:integer" json:"capacity"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (c Camp) Snapshot() map[string]any {
	return map[string]any{
		"event_id":      c.EventID,
		"location_name": c.LocationName,
		"capacity":      c.Capacity,
	}
}

// CampOccupancy — производные счётчики, в таблице не хранятся.
type CampOccupancy struct {
	Professionals int64 `json:"professionals"`
	Casualties    int64 `json:"casualties"`
}

// CampView — лагерь вместе с текущей занятостью.
type CampView struct {
	Camp
	Occupancy CampOccupancy `json:"occupancy"`
}
