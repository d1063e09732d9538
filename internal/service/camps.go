package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

type CreateCampInput struct {
	LocationName string
	Capacity     *int
}

func (s *Service) CreateCamp(ctx context.Context, p authz.Principal, eventID uuid.UUID, in CreateCampInput) (model.Camp, error) {
	var out model.Camp
	err := s.run(ctx, "CreateCamp", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.CampCreate, eventTarget(e.ID)); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}
		name := strings.TrimSpace(in.LocationName)
		if name == "" {
			return apperrors.ConstraintViolation("camp location_name must not be empty")
		}
		if in.Capacity != nil && *in.Capacity < 0 {
			return apperrors.ConstraintViolation("camp capacity must not be negative")
		}

		camp := model.Camp{
			ID:           uuid.New(),
			EventID:      e.ID,
			LocationName: name,
			Capacity:     in.Capacity,
		}
		if err := u.repos.Camps.Create(u.ctx, &camp); err != nil {
			return err
		}
		u.record(model.EntityCamp, camp.ID, model.AuditCreated, model.Created(camp.Snapshot()))
		out = camp
		return nil
	})
	return out, err
}

// lockCampWithEvent блокирует событие, затем лагерь (порядок блокировок везде
// один: событие, лагерь, специалист) и проверяет право на действие.
func (u *unit) lockCampWithEvent(campID uuid.UUID, action authz.Action) (*model.Camp, *model.Event, error) {
	probe, err := u.repos.Camps.GetByID(u.ctx, campID)
	if err != nil {
		return nil, nil, err
	}
	e, err := u.lockEvent(probe.EventID)
	if err != nil {
		return nil, nil, err
	}
	camp, err := u.repos.Camps.GetByIDForUpdate(u.ctx, campID)
	if err != nil {
		return nil, nil, err
	}
	if err := u.authorize(action, eventTarget(e.ID)); err != nil {
		return nil, nil, err
	}
	if err := ensureOpen(e); err != nil {
		return nil, nil, err
	}
	return camp, e, nil
}

// UpdateCamp меняет название и вместимость. Вместимость нельзя опустить
// ниже текущей занятости.
func (s *Service) UpdateCamp(ctx context.Context, p authz.Principal, campID uuid.UUID, patch model.CampPatch) (model.Camp, []string, error) {
	var (
		out     model.Camp
		changed []string
	)
	err := s.run(ctx, "UpdateCamp", p, func(u *unit) error {
		camp, _, err := u.lockCampWithEvent(campID, authz.CampUpdate)
		if err != nil {
			return err
		}
		if patch.LocationName != nil && strings.TrimSpace(*patch.LocationName) == "" {
			return apperrors.ConstraintViolation("camp location_name must not be empty")
		}
		changes := patch.Apply(*camp)
		if changes.Empty() {
			return apperrors.NoChange("camp")
		}
		if _, ok := changes["capacity"]; ok {
			if err := u.svc.admission.CheckCampCapacity(u.ctx, u.counter(), *camp, patch.Capacity.Value); err != nil {
				return err
			}
		}
		if err := u.repos.Camps.Update(u.ctx, camp.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityCamp, camp.ID, model.AuditUpdated, changes)

		fresh, err := u.repos.Camps.GetByID(u.ctx, camp.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}

// DeleteCamp удаляет пустой лагерь. С force специалисты и пострадавшие
// снимаются с лагеря (остаются в событии), и лагерь удаляется.
func (s *Service) DeleteCamp(ctx context.Context, p authz.Principal, campID uuid.UUID, force bool) (model.Camp, error) {
	var out model.Camp
	err := s.run(ctx, "DeleteCamp", p, func(u *unit) error {
		camp, _, err := u.lockCampWithEvent(campID, authz.CampDelete)
		if err != nil {
			return err
		}
		occ, err := u.repos.Occupancy.CampOccupancy(u.ctx, camp.ID)
		if err != nil {
			return err
		}
		if occ.Professionals+occ.Casualties > 0 {
			if !force {
				return apperrors.WithMetadata(apperrors.KindConstraintViolation,
					"camp still has assigned occupants; use force to unassign them",
					map[string]string{
						"professionals": fmt.Sprint(occ.Professionals),
						"casualties":    fmt.Sprint(occ.Casualties),
					},
				)
			}
			if err := u.evacuateCamp(camp); err != nil {
				return err
			}
		}

		if err := u.repos.Camps.Delete(u.ctx, camp.ID); err != nil {
			return err
		}
		u.record(model.EntityCamp, camp.ID, model.AuditDeleted, model.Deleted(camp.Snapshot()))
		out = *camp
		return nil
	})
	return out, err
}

// evacuateCamp снимает всех с лагеря. Перемещение каждого пострадавшего
// попадает в его журнал, снятие специалистов — в журнал события.
func (u *unit) evacuateCamp(camp *model.Camp) error {
	professionals, err := u.repos.Professionals.ListByCamp(u.ctx, camp.ID)
	if err != nil {
		return err
	}
	if _, err := u.repos.Professionals.DetachFromCamp(u.ctx, camp.ID); err != nil {
		return err
	}
	for _, pro := range professionals {
		changes := model.Changes{}
		changes.Track("current_camp_id", camp.ID, nil)
		changes.Track("professional_id", nil, pro.ID)
		u.record(model.EntityEvent, camp.EventID, model.AuditCampAssigned, changes)
	}

	casualties, err := u.repos.Casualties.ListByCamp(u.ctx, camp.ID)
	if err != nil {
		return err
	}
	for _, c := range casualties {
		changes := model.Changes{}
		changes.Track("camp_id", c.CampID, nil)
		if err := u.repos.Casualties.Update(u.ctx, c.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityCasualty, c.ID, model.AuditUpdated, changes)
	}
	return nil
}
