package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/admission"
	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

// JoinResult — событие, на которое назначен специалист, и лагерь, если он был указан.
type JoinResult struct {
	Event model.Event
	Camp  *model.Camp
}

// JoinEventByCode назначает вызывающего на событие по коду приглашения.
// Прежнее назначение (событие и лагерь) заменяется одним UPDATE.
func (s *Service) JoinEventByCode(ctx context.Context, p authz.Principal, code string, campID *uuid.UUID) (JoinResult, error) {
	var out JoinResult
	err := s.run(ctx, "JoinEventByCode", p, func(u *unit) error {
		if err := u.authorize(authz.EventJoin, authz.Target{SubjectID: &u.actor.ID}); err != nil {
			return err
		}
		e, err := u.repos.Events.GetByInviteCodeForUpdate(u.ctx, NormalizeInviteCode(code))
		if err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}

		var camp *model.Camp
		if campID != nil {
			camp, err = u.admitToCamp(e, *campID, u.actor.ID)
			if err != nil {
				return err
			}
		}
		if err := u.moveActor(e, camp); err != nil {
			return err
		}
		out = JoinResult{Event: *e, Camp: camp}
		return nil
	})
	return out, err
}

// admitToCamp блокирует лагерь, проверяет его событие и вместимость для специалиста.
func (u *unit) admitToCamp(e *model.Event, campID, professionalID uuid.UUID) (*model.Camp, error) {
	camp, err := u.repos.Camps.GetByIDForUpdate(u.ctx, campID)
	if err != nil {
		return nil, err
	}
	if err := admission.VerifyCampEvent(*camp, e.ID); err != nil {
		return nil, err
	}
	subject, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if err := u.svc.admission.AdmitProfessional(u.ctx, u.counter(), *camp, *subject); err != nil {
		return nil, err
	}
	return camp, nil
}

// LeaveEvent снимает вызывающего с события и лагеря.
func (s *Service) LeaveEvent(ctx context.Context, p authz.Principal) error {
	return s.run(ctx, "LeaveEvent", p, func(u *unit) error {
		if err := u.authorize(authz.EventLeave, authz.Target{SubjectID: &u.actor.ID}); err != nil {
			return err
		}
		self, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, u.actor.ID)
		if err != nil {
			return err
		}
		if self.CurrentEventID == nil {
			return apperrors.NoChange("assignment")
		}
		previous := *self.CurrentEventID

		changes := model.Changes{}
		changes.Track("current_event_id", self.CurrentEventID, nil)
		changes.Track("current_camp_id", self.CurrentCampID, nil)
		if err := u.repos.Professionals.Update(u.ctx, self.ID, changes); err != nil {
			return err
		}
		changes.Track("professional_id", self.ID, nil)
		u.record(model.EntityEvent, previous, model.AuditMemberLeft, changes)
		return nil
	})
}

// AssignCamp переводит специалиста в лагерь его текущего события или снимает
// с лагеря (campID == nil). Снятие вместимость не проверяет.
func (s *Service) AssignCamp(ctx context.Context, p authz.Principal, professionalID uuid.UUID, campID *uuid.UUID) (model.Professional, error) {
	var out model.Professional
	err := s.run(ctx, "AssignCamp", p, func(u *unit) error {
		probe, err := u.repos.Professionals.GetByID(u.ctx, professionalID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.CampAssign, authz.Target{
			EventID:   probe.CurrentEventID,
			SubjectID: &probe.ID,
		}); err != nil {
			return err
		}
		if probe.CurrentEventID == nil {
			return apperrors.ConstraintViolation("professional is not assigned to an event")
		}
		e, err := u.lockEvent(*probe.CurrentEventID)
		if err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}

		var camp *model.Camp
		if campID != nil {
			if camp, err = u.admitToCamp(e, *campID, probe.ID); err != nil {
				return err
			}
		}
		subject, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, probe.ID)
		if err != nil {
			return err
		}
		if !subject.InEvent(e.ID) {
			return apperrors.ConstraintViolation("professional left the event concurrently")
		}
		if err := validateAssignment(&e.ID, camp); err != nil {
			return err
		}

		changes := model.Changes{}
		if camp != nil {
			changes.Track("current_camp_id", subject.CurrentCampID, camp.ID)
		} else {
			changes.Track("current_camp_id", subject.CurrentCampID, nil)
		}
		if changes.Empty() {
			return apperrors.NoChange("assignment")
		}
		if err := u.repos.Professionals.Update(u.ctx, subject.ID, changes); err != nil {
			return err
		}
		changes.Track("professional_id", nil, subject.ID)
		u.record(model.EntityEvent, e.ID, model.AuditCampAssigned, changes)

		fresh, err := u.repos.Professionals.GetByID(u.ctx, subject.ID)
		if err != nil {
			return err
		}
		out = *fresh
		return nil
	})
	return out, err
}

// validateAssignment проверяет инвариант назначения перед записью:
// лагерь допустим только вместе со своим событием.
func validateAssignment(eventID *uuid.UUID, camp *model.Camp) error {
	a := model.Assignment{EventID: eventID}
	var campEvent *uuid.UUID
	if camp != nil {
		a.CampID = &camp.ID
		campEvent = &camp.EventID
	}
	if err := a.Validate(campEvent); err != nil {
		return apperrors.Wrap(apperrors.KindConstraintViolation, err.Error(), err)
	}
	return nil
}
