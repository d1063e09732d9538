package model

import (
	"time"

	"github.com/google/uuid"
)

// Nullable — поле патча для nullable-колонки: не задано, задано значение
// или явно сброшено в NULL.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Value задаёт новое значение.
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null явно сбрасывает поле.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// EventPatch — изменяемые поля события (статус меняется только переходом).
type EventPatch struct {
	Name       *string
	Location   *string
	StartTime  Nullable[time.Time]
	FinishTime Nullable[time.Time]
}

type CampPatch struct {
	LocationName *string
	Capacity     Nullable[int]
}

type CasualtyPatch struct {
	CampID         Nullable[uuid.UUID]
	Color          *TriageColor
	Breathing      *bool
	Conscious      *bool
	Bleeding       *bool
	HospitalStatus *string
	Notes          *string
}

type TaskPatch struct {
	Description *string
	Status      *TaskStatus
	Priority    *Priority
	AssignedTo  *uuid.UUID
	DueDate     Nullable[time.Time]
}

type GroupPatch struct {
	Name       *string
	MaxMembers *int
	LeadID     *uuid.UUID
}

// Apply переносит изменения СОБЫТИЯ в набор Changes относительно текущей строки.
func (p EventPatch) Apply(e Event) Changes {
	c := Changes{}
	if p.Name != nil {
		c.Track("name", e.Name, *p.Name)
	}
	if p.Location != nil {
		c.Track("location", e.Location, *p.Location)
	}
	if p.StartTime.Set {
		c.Track("start_time", e.StartTime, p.StartTime.Value)
	}
	if p.FinishTime.Set {
		c.Track("finish_time", e.FinishTime, p.FinishTime.Value)
	}
	return c
}

func (p CampPatch) Apply(camp Camp) Changes {
	c := Changes{}
	if p.LocationName != nil {
		c.Track("location_name", camp.LocationName, *p.LocationName)
	}
	if p.Capacity.Set {
		c.Track("capacity", camp.Capacity, p.Capacity.Value)
	}
	return c
}

func (p CasualtyPatch) Apply(cas Casualty) Changes {
	c := Changes{}
	if p.CampID.Set {
		c.Track("camp_id", cas.CampID, p.CampID.Value)
	}
	if p.Color != nil {
		c.Track("color", cas.Color, *p.Color)
	}
	if p.Breathing != nil {
		c.Track("breathing", cas.Breathing, *p.Breathing)
	}
	if p.Conscious != nil {
		c.Track("conscious", cas.Conscious, *p.Conscious)
	}
	if p.Bleeding != nil {
		c.Track("bleeding", cas.Bleeding, *p.Bleeding)
	}
	if p.HospitalStatus != nil {
		c.Track("hospital_status", cas.HospitalStatus, *p.HospitalStatus)
	}
	if p.Notes != nil {
		c.Track("notes", cas.Notes, *p.Notes)
	}
	return c
}

// Apply для задачи не трогает статус: переход проверяется отдельно.
func (p TaskPatch) Apply(t Task) Changes {
	c := Changes{}
	if p.Description != nil {
		c.Track("description", t.Description, *p.Description)
	}
	if p.Priority != nil {
		c.Track("priority", t.Priority, *p.Priority)
	}
	if p.AssignedTo != nil {
		c.Track("assigned_to", t.AssignedTo, *p.AssignedTo)
	}
	if p.DueDate.Set {
		c.Track("due_date", t.DueDate, p.DueDate.Value)
	}
	return c
}

func (p GroupPatch) Apply(g Group) Changes {
	c := Changes{}
	if p.Name != nil {
		c.Track("name", g.Name, *p.Name)
	}
	if p.MaxMembers != nil {
		c.Track("max_members", g.MaxMembers, *p.MaxMembers)
	}
	if p.LeadID != nil {
		c.Track("lead_id", g.LeadID, *p.LeadID)
	}
	return c
}
