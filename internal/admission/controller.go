// Package admission проверяет ограничения вместимости лагерей и групп.
//
// Все проверки выполняются внутри транзакции, которая затем делает запись:
// счётчики читаются заново через OccupancyCounter, привязанный к этой же
// транзакции, а строка контейнера к этому моменту уже заблокирована.
package admission

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Policy определяет, что входит в занятость лагеря.
type Policy string

const (
	// PolicyProfessionals — вместимость ограничивает только специалистов,
	// пострадавшие принимаются без ограничения.
	PolicyProfessionals Policy = "professionals"
	// PolicyCombined — специалисты и пострадавшие считаются вместе.
	PolicyCombined Policy = "combined"
)

func ParsePolicy(value string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(value))); p {
	case "", PolicyProfessionals:
		return PolicyProfessionals, nil
	case PolicyCombined:
		return PolicyCombined, nil
	default:
		return "", fmt.Errorf("unknown camp capacity policy: %q", value)
	}
}

// OccupancyCounter считает текущую занятость в рамках транзакции.
type OccupancyCounter interface {
	CountCampProfessionals(ctx context.Context, campID uuid.UUID) (int64, error)
	CountCampCasualties(ctx context.Context, campID uuid.UUID) (int64, error)
	CountGroupMembers(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type Controller struct {
	policy Policy
}

func NewController(policy Policy) *Controller {
	if policy == "" {
		policy = PolicyProfessionals
	}
	return &Controller{policy: policy}
}

func (c *Controller) Policy() Policy { return c.policy }

func campName(camp model.Camp) string {
	return "camp " + camp.ID.String()
}

func groupName(group model.Group) string {
	return "group " + group.Name
}

// Occupancy возвращает занятость лагеря по текущей политике.
func (c *Controller) Occupancy(ctx context.Context, counter OccupancyCounter, campID uuid.UUID) (int64, error) {
	professionals, err := counter.CountCampProfessionals(ctx, campID)
	if err != nil {
		return 0, err
	}
	if c.policy != PolicyCombined {
		return professionals, nil
	}
	casualties, err := counter.CountCampCasualties(ctx, campID)
	if err != nil {
		return 0, err
	}
	return professionals + casualties, nil
}

// VerifyCampEvent отличает лагерь чужого события от несуществующего:
// отсутствие лагеря сообщает репозиторий (NOT_FOUND), здесь — только несовпадение.
func VerifyCampEvent(camp model.Camp, eventID uuid.UUID) error {
	if camp.EventID != eventID {
		return apperrors.WithMetadata(apperrors.KindConstraintViolation,
			fmt.Sprintf("camp %s belongs to a different event", camp.ID),
			map[string]string{"camp_id": camp.ID.String(), "event_id": eventID.String()},
		)
	}
	return nil
}

func (c *Controller) admit(ctx context.Context, counter OccupancyCounter, camp model.Camp) error {
	if camp.Capacity == nil {
		return nil
	}
	occupancy, err := c.Occupancy(ctx, counter, camp.ID)
	if err != nil {
		return err
	}
	limit := int64(*camp.Capacity)
	if occupancy >= limit {
		return apperrors.CapacityExceeded(campName(camp), occupancy, limit)
	}
	return nil
}

// AdmitProfessional проверяет, что специалист поместится в лагерь.
// Повторное назначение в тот же лагерь занятость не меняет.
func (c *Controller) AdmitProfessional(ctx context.Context, counter OccupancyCounter, camp model.Camp, p model.Professional) error {
	if p.CurrentCampID != nil && *p.CurrentCampID == camp.ID {
		return nil
	}
	return c.admit(ctx, counter, camp)
}

// AdmitCasualty при политике professionals ничего не проверяет.
func (c *Controller) AdmitCasualty(ctx context.Context, counter OccupancyCounter, camp model.Camp, current *uuid.UUID) error {
	if c.policy != PolicyCombined {
		return nil
	}
	if current != nil && *current == camp.ID {
		return nil
	}
	return c.admit(ctx, counter, camp)
}

// CheckCampCapacity запрещает опускать вместимость ниже текущей занятости.
// nil снимает ограничение и допустим всегда.
func (c *Controller) CheckCampCapacity(ctx context.Context, counter OccupancyCounter, camp model.Camp, capacity *int) error {
	if capacity == nil {
		return nil
	}
	if *capacity < 0 {
		return apperrors.ConstraintViolation("camp capacity must not be negative")
	}
	occupancy, err := c.Occupancy(ctx, counter, camp.ID)
	if err != nil {
		return err
	}
	if occupancy > int64(*capacity) {
		return apperrors.CapacityExceeded(campName(camp), occupancy, int64(*capacity))
	}
	return nil
}

// AdmitGroupMember проверяет max_members группы.
func (c *Controller) AdmitGroupMember(ctx context.Context, counter OccupancyCounter, group model.Group, p model.Professional) error {
	if p.GroupID != nil && *p.GroupID == group.ID {
		return nil
	}
	members, err := counter.CountGroupMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	if members >= int64(group.MaxMembers) {
		return apperrors.CapacityExceeded(groupName(group), members, int64(group.MaxMembers))
	}
	return nil
}

// CheckGroupLimit запрещает лимит ниже текущей численности.
func (c *Controller) CheckGroupLimit(ctx context.Context, counter OccupancyCounter, group model.Group, maxMembers int) error {
	if maxMembers < 1 {
		return apperrors.ConstraintViolation("group max_members must be at least 1")
	}
	members, err := counter.CountGroupMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	if members > int64(maxMembers) {
		return apperrors.CapacityExceeded(groupName(group), members, int64(maxMembers))
	}
	return nil
}
