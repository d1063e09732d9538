package service

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/audit"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/listing"
	"github.com/Leganyst/mci-platform/internal/model"
)

// ListCamps возвращает лагеря события с текущей занятостью.
func (s *Service) ListCamps(ctx context.Context, p authz.Principal, eventID uuid.UUID) ([]model.CampView, error) {
	var out []model.CampView
	err := s.run(ctx, "ListCamps", p, func(u *unit) error {
		if err := u.authorize(authz.EventRead, eventTarget(eventID)); err != nil {
			return err
		}
		if _, err := u.repos.Events.GetByID(u.ctx, eventID); err != nil {
			return err
		}
		camps, err := u.repos.Camps.ListByEvent(u.ctx, eventID)
		if err != nil {
			return err
		}
		out = make([]model.CampView, 0, len(camps))
		for _, c := range camps {
			occ, err := u.repos.Occupancy.CampOccupancy(u.ctx, c.ID)
			if err != nil {
				return err
			}
			out = append(out, model.CampView{Camp: c, Occupancy: occ})
		}
		return nil
	})
	return out, err
}

// ListCasualties возвращает пострадавших события по приоритету сортировки:
// red, yellow, green, black; внутри цвета — по времени поступления.
func (s *Service) ListCasualties(ctx context.Context, p authz.Principal, eventID uuid.UUID, req listing.Request) (listing.Page[model.Casualty], error) {
	var out listing.Page[model.Casualty]
	err := s.run(ctx, "ListCasualties", p, func(u *unit) error {
		if err := u.authorize(authz.EventRead, eventTarget(eventID)); err != nil {
			return err
		}
		if _, err := u.repos.Events.GetByID(u.ctx, eventID); err != nil {
			return err
		}
		items, err := u.repos.Casualties.ListByEvent(u.ctx, eventID)
		if err != nil {
			return err
		}
		slices.SortStableFunc(items, func(a, b model.Casualty) int {
			return a.Color.Rank() - b.Color.Rank()
		})
		out = listing.Paginate(items, req)
		return nil
	})
	return out, err
}

// AuditTrail — журнал сущности в порядке записи.
func (s *Service) AuditTrail(ctx context.Context, p authz.Principal, kind model.EntityKind, entityID uuid.UUID) ([]audit.Record, error) {
	var out []audit.Record
	err := s.run(ctx, "AuditTrail", p, func(u *unit) error {
		if err := u.authorize(authz.AuditRead, authz.Target{}); err != nil {
			return err
		}
		if !slices.Contains(model.AuditKinds, kind) {
			return apperrors.ConstraintViolation("unknown audit kind: " + string(kind))
		}
		rows, err := u.repos.Audit.Trail(u.ctx, kind, entityID)
		if err != nil {
			return err
		}
		out = make([]audit.Record, 0, len(rows))
		for _, row := range rows {
			changes, err := audit.Decode(row)
			if err != nil {
				return apperrors.Wrap(apperrors.KindInternal, "corrupt audit entry", err)
			}
			out = append(out, audit.Record{
				Entry: audit.Entry{
					Kind:     kind,
					EntityID: row.EntityID,
					ActorID:  row.ActorID,
					Action:   row.Action,
					Changes:  changes,
				},
				Seq:       row.ID,
				CreatedAt: row.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}
