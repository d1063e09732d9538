package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role — роль специалиста в системе реагирования.
type Role string

const (
	RoleCommander      Role = "commander"
	RoleMedicalOfficer Role = "medical_officer"
	RoleMERTMember     Role = "mert_member"
	RoleVolunteer      Role = "volunteer"
)

// ParseRole нормализует строковую роль (регистр и пробелы не важны).
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCommander:
		return RoleCommander, nil
	case RoleMedicalOfficer:
		return RoleMedicalOfficer, nil
	case RoleMERTMember:
		return RoleMERTMember, nil
	case RoleVolunteer:
		return RoleVolunteer, nil
	default:
		return "", fmt.Errorf("unknown role: %q", value)
	}
}

// professionals
//
// У специалиста не больше одного активного назначения в каждом измерении:
// событие, лагерь, группа. Назначения переназначаются, а не дублируются.
type Professional struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(255);not null" json:"name"`
	Role Role      `gorm:"type:varchar(32);not null;index" json:"role"`

	CurrentEventID *uuid.UUID `gorm:"type:uuid;index" json:"current_event_id"`
	CurrentCampID  *uuid.UUID `gorm:"type:uuid;index" json:"current_camp_id"`
	GroupID        *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	CurrentEvent *Event `gorm:"foreignKey:CurrentEventID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CurrentCamp  *Camp  `gorm:"foreignKey:CurrentCampID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Group        *Group `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// IsCommander сообщает, есть ли у специалиста роль командира.
func (p Professional) IsCommander() bool {
	return p.Role == RoleCommander
}

// InEvent сообщает, назначен ли специалист на событие eventID.
func (p Professional) InEvent(eventID uuid.UUID) bool {
	return p.CurrentEventID != nil && *p.CurrentEventID == eventID
}

// Assignment — назначение специалиста на событие и (опционально) лагерь.
type Assignment struct {
	EventID *uuid.UUID
	CampID  *uuid.UUID
}

// Validate проверяет инвариант: лагерь допустим только вместе с событием,
// которому он принадлежит.
func (a Assignment) Validate(campEventID *uuid.UUID) error {
	if a.CampID == nil {
		return nil
	}
	if a.EventID == nil {
		return fmt.Errorf("camp assignment requires an event assignment")
	}
	if campEventID == nil || *campEventID != *a.EventID {
		return fmt.Errorf("camp %s does not belong to event %s", a.CampID, a.EventID)
	}
	return nil
}
