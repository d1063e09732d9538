package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

type CasualtyRepository interface {
	Create(ctx context.Context, c *model.Casualty) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Casualty, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Casualty, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Casualty, error)
	ListByCamp(ctx context.Context, campID uuid.UUID) ([]model.Casualty, error)
}

type GormCasualtyRepository struct {
	db *gorm.DB
}

func NewGormCasualtyRepository(db *gorm.DB) *GormCasualtyRepository {
	return &GormCasualtyRepository{db: db}
}

func (r *GormCasualtyRepository) Create(ctx context.Context, c *model.Casualty) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *GormCasualtyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Casualty, error) {
	return getByID[model.Casualty](r.db.WithContext(ctx), "casualty", id)
}

func (r *GormCasualtyRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Casualty, error) {
	return getByID[model.Casualty](forUpdate(r.db.WithContext(ctx)), "casualty", id)
}

func (r *GormCasualtyRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Casualty{}, "casualties", id, changes)
}

func (r *GormCasualtyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Casualty{}, "id = ?", id).Error
}

func (r *GormCasualtyRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Casualty, error) {
	var out []model.Casualty
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormCasualtyRepository) ListByCamp(ctx context.Context, campID uuid.UUID) ([]model.Casualty, error) {
	var out []model.Casualty
	err := r.db.WithContext(ctx).
		Where("camp_id = ?", campID).
		Order("created_at ASC").
		Find(&out).
		Error
	return out, err
}
