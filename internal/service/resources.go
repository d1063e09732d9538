package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
)

type RequestResourceInput struct {
	Name     string
	Quantity int // 0 — одна единица
	Priority model.Priority
}

func (s *Service) RequestResource(ctx context.Context, p authz.Principal, eventID uuid.UUID, in RequestResourceInput) (model.ResourceRequest, error) {
	var out model.ResourceRequest
	err := s.run(ctx, "RequestResource", p, func(u *unit) error {
		e, err := u.lockEvent(eventID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.ResourceRequest, eventTarget(e.ID)); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return apperrors.ConstraintViolation("resource name must not be empty")
		}
		quantity := in.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return apperrors.ConstraintViolation("resource quantity must be positive")
		}
		priority, err := parsePriority(in.Priority)
		if err != nil {
			return err
		}

		r := model.ResourceRequest{
			ID:          uuid.New(),
			EventID:     e.ID,
			Name:        name,
			Quantity:    quantity,
			Priority:    priority,
			RequestedBy: u.actor.ID,
		}
		if err := u.repos.Resources.Create(u.ctx, &r); err != nil {
			return err
		}
		u.record(model.EntityResource, r.ID, model.AuditCreated, model.Created(r.Snapshot()))
		out = r
		return nil
	})
	return out, err
}

// ConfirmResource подтверждает (или снимает подтверждение) запроса ресурса.
// arrival == nil оставляет время прибытия как есть.
func (s *Service) ConfirmResource(ctx context.Context, p authz.Principal, requestID uuid.UUID, confirmed bool, arrival *time.Time) (model.ResourceRequest, []string, error) {
	var (
		out     model.ResourceRequest
		changed []string
	)
	err := s.run(ctx, "ConfirmResource", p, func(u *unit) error {
		probe, err := u.repos.Resources.GetByID(u.ctx, requestID)
		if err != nil {
			return err
		}
		e, err := u.lockEvent(probe.EventID)
		if err != nil {
			return err
		}
		r, err := u.repos.Resources.GetByIDForUpdate(u.ctx, requestID)
		if err != nil {
			return err
		}
		if err := u.authorize(authz.ResourceConfirm, authz.Target{EventID: &e.ID, CreatorID: &r.RequestedBy}); err != nil {
			return err
		}
		if err := ensureOpen(e); err != nil {
			return err
		}

		changes := model.Changes{}
		changes.Track("confirmed", r.Confirmed, confirmed)
		if confirmed {
			if !r.Confirmed {
				changes.Track("confirmed_by", r.ConfirmedBy, u.actor.ID)
			}
		} else {
			changes.Track("confirmed_by", r.ConfirmedBy, nil)
		}
		if arrival != nil {
			changes.Track("arrival_time", r.ArrivalTime, arrival.UTC())
		}
		if changes.Empty() {
			return apperrors.NoChange("resource request")
		}
		if err := u.repos.Resources.Update(u.ctx, r.ID, changes); err != nil {
			return err
		}
		u.record(model.EntityResource, r.ID, model.AuditConfirmed, changes)

		fresh, err := u.repos.Resources.GetByID(u.ctx, r.ID)
		if err != nil {
			return err
		}
		out, changed = *fresh, changes.Fields()
		return nil
	})
	return out, changed, err
}
