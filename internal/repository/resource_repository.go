package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

type ResourceRepository interface {
	Create(ctx context.Context, r *model.ResourceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ResourceRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ResourceRequest, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.ResourceRequest, error)
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) Create(ctx context.Context, req *model.ResourceRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *GormResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ResourceRequest, error) {
	return getByID[model.ResourceRequest](r.db.WithContext(ctx), "resource request", id)
}

func (r *GormResourceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ResourceRequest, error) {
	return getByID[model.ResourceRequest](forUpdate(r.db.WithContext(ctx)), "resource request", id)
}

func (r *GormResourceRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.ResourceRequest{}, "resource_requests", id, changes)
}

func (r *GormResourceRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.ResourceRequest, error) {
	var out []model.ResourceRequest
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormResourceRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&model.ResourceRequest{}).Error
}
