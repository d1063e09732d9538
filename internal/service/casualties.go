package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/admission"
	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

type AddCasualtyInput struct {
	CampID         *uuid.UUID
	Color          model.TriageColor
	Breathing      bool
	Conscious      bool
	Bleeding       bool
	HospitalStatus string
	Notes          string
}

// parseColor нормализует цвет сортировки: в базу попадает только каноничное значение.
func parseColor(c model.TriageColor) (model.TriageColor, error) {
	v, err := model.ParseTriageColor(string(c))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindConstraintViolation, err.Error(), err)
	}
	return v, nil
}

// admitCasualtyToCamp блокирует лагерь и проверяет его событие и вместимость.
// current — лагерь, в котором пострадавший уже находится.
func (u *unit) admitCasualtyToCamp(eventID, campID uuid.UUID, current *uuid.UUID) error {
	camp, err := u.repos.Camps.GetByIDForUpdate(u.ctx, campID)
	if err != nil {
		return err
	}
	if err := admission.VerifyCampEvent(*camp, eventID); err != nil {
		return err
	}
	return u.svc.admission.AdmitCasualty(u.ctx, u.counter(), *camp, current)
}

func (s *Service) AddCasualty(ctx context.Context, p authz.Principal, eventID uuid.UUID, in AddCasualtyInput) (model.Casualty, error) {
	var out model.Casualty
	err := s.run(ctx, "AddCasualty", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.CasualtyCreate, eventTarget(e.ID)); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}
		color, err := parseColor(in.Color)
		if err != nil {
			return err
		}
		if in.CampID != nil {
			if err := u.admitCasualtyToCamp(e.ID, *in.CampID, nil); err != nil {
				return err
			}
		}

		c := model.Casualty{
			ID:             uuid.New(),
			EventID:        e.ID,
			CampID:         in.CampID,
			Color:          color,
			Breathing:      in.Breathing,
			Conscious:      in.Conscious,
			Bleeding:       in.Bleeding,
			HospitalStatus: in.HospitalStatus,
			Notes:          in.Notes,
			CreatedBy:      u.actor.ID,
		}
		if err := u.repos.Casualties.Create(u.ctx, &c); err != nil {
			return err
		}
		u.record(model.EntityCasualty, c.ID, model.AuditCreated, model.Created(c.Snapshot()))
		out = c
		return nil
	})
	return out, err
}

// lockCasualty блокирует событие пострадавшего, затем его строку.
func (u *unit) lockCasualty(id uuid.UUID, action authz.Action) (*model.Casualty, *model.Event, error) {
	probe, err := u.repos.Casualties.GetByID(u.ctx, id)
	if err != nil {
		return nil, nil, err
	}
	e, err := u.lockEvent(probe.EventID)
	if err != nil {
		return nil, nil, err
	}
	c, err := u.repos.Casualties.GetByIDForUpdate(u.ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := u.authorize(action, authz.Target{EventID: &e.ID, CreatorID: &c.CreatedBy}); err != nil {
		return nil, nil, err
	}
	if err := ensureOpen(e); err != nil {
		return nil, nil, err
	}
	return c, e, nil
}

// UpdateCasualtyStatus применяет патч; каждое изменённое поле попадает в журнал
// с прежним и новым значением. Патч без изменений — NO_CHANGE без записи.
func (s *Service) UpdateCasualtyStatus(ctx context.Context, p authz.Principal, casualtyID uuid.UUID, patch model.CasualtyPatch) (model.Casualty, []string, error) {
	var (
		out     model.Casualty
		changed []string
	)
	err := s.run(ctx, "UpdateCasualtyStatus", p, func(u *unit) error {
		c, e, err := u.lockCasualty(casualtyID, authz.CasualtyUpdate)
		if err != nil {
			return err
		}
		if patch.Color != nil {
			color, err := parseColor(*patch.Color)
			if err != nil {
				return err
			}
			patch.Color = &color
		}
		changes := patch.Apply(*c)
		if changes.Empty() {
			return apperrors.NoChange("casualty")
		}
		if _, ok := changes["camp_id"]; ok && patch.CampID.Value != nil {
			if err := u.admitCasualtyToCamp(e.ID, *patch.CampID.Value, c.CampID); err != nil {
				return err
			}
		}
		if err := u.repos.Casualties.Update(u.ctx, c.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityCasualty, c.ID, model.AuditUpdated, changes)

		fresh, err := u.repos.Casualties.GetByID(u.ctx, c.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}

func (s *Service) DeleteCasualty(ctx context.Context, p authz.Principal, casualtyID uuid.UUID) error {
	return s.run(ctx, "DeleteCasualty", p, func(u *unit) error {
		c, _, err := u.lockCasualty(casualtyID, authz.CasualtyDelete)
		if err != nil {
			return err
		}
		if err := u.repos.Casualties.Delete(u.ctx, c.ID); err != nil {
			return err
		}
		u.record(model.EntityCasualty, c.ID, model.AuditDeleted, model.Deleted(c.Snapshot()))
		return nil
	})
}
