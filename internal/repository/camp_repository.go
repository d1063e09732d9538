package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

type CampRepository interface {
	Create(ctx context.Context, c *model.Camp) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Camp, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Camp, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Лагеря события в порядке создания.
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Camp, error)
}

type GormCampRepository struct {
	db *gorm.DB
}

func NewGormCampRepository(db *gorm.DB) *GormCampRepository {
	return &GormCampRepository{db: db}
}

func (r *GormCampRepository) Create(ctx context.Context, c *model.Camp) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *GormCampRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Camp, error) {
	return getByID[model.Camp](r.db.WithContext(ctx), "camp", id)
}

func (r *GormCampRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Camp, error) {
	return getByID[model.Camp](forUpdate(r.db.WithContext(ctx)), "camp", id)
}

func (r *GormCampRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Camp{}, "camps", id, changes)
}

func (r *GormCampRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Camp{}, "id = ?", id).Error
}

func (r *GormCampRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Camp, error) {
	var camps []model.Camp
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&camps).
		Error
	return camps, err
}
