package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, p *model.Professional) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	// Обновить назначения или профиль. Поля назначений проверяются по
	// инварианту Assignment до вызова.
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	ListByCamp(ctx context.Context, campID uuid.UUID) ([]model.Professional, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Professional, error)
	// Снять всех с события (и с лагерей этого события).
	DetachFromEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	// Снять всех с лагеря, событие остаётся.
	DetachFromCamp(ctx context.Context, campID uuid.UUID) (int64, error)
	DetachFromGroup(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type GormProfessionalRepository struct {
	db *gorm.DB
}

func NewGormProfessionalRepository(db *gorm.DB) *GormProfessionalRepository {
	return &GormProfessionalRepository{db: db}
}

func (r *GormProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	return getByID[model.Professional](r.db.WithContext(ctx), "professional", id)
}

func (r *GormProfessionalRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	return getByID[model.Professional](forUpdate(r.db.WithContext(ctx)), "professional", id)
}

func (r *GormProfessionalRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Professional{}, "professionals", id, changes)
}

func (r *GormProfessionalRepository) ListByCamp(ctx context.Context, campID uuid.UUID) ([]model.Professional, error) {
	var out []model.Professional
	err := r.db.WithContext(ctx).Where("current_camp_id = ?", campID).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *GormProfessionalRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Professional, error) {
	var out []model.Professional
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *GormProfessionalRepository) DetachFromEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Professional{}).
		Where("current_event_id = ?", eventID).
		Updates(map[string]any{"current_event_id": nil, "current_camp_id": nil})
	return res.RowsAffected, res.Error
}

func (r *GormProfessionalRepository) DetachFromCamp(ctx context.Context, campID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Professional{}).
		Where("current_camp_id = ?", campID).
		Update("current_camp_id", nil)
	return res.RowsAffected, res.Error
}

func (r *GormProfessionalRepository) DetachFromGroup(ctx context.Context, groupID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Professional{}).
		Where("group_id = ?", groupID).
		Update("group_id", nil)
	return res.RowsAffected, res.Error
}
