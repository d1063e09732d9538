package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

type GroupRepository interface {
	Create(ctx context.Context, g *model.Group) error
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Group, error)
	// Имя занято другой группой (excluding — id самой группы при переименовании).
	NameTaken(ctx context.Context, name string, excluding *uuid.UUID) (bool, error)
	// Группа, которой руководит специалист, если она есть.
	LedBy(ctx context.Context, leadID uuid.UUID) (*model.Group, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormGroupRepository struct {
	db *gorm.DB
}

func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GormGroupRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	return getByID[model.Group](forUpdate(r.db.WithContext(ctx)), "group", id)
}

func (r *GormGroupRepository) NameTaken(ctx context.Context, name string, excluding *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Group{}).Where("name = ?", name)
	if excluding != nil {
		q = q.Where("id <> ?", *excluding)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormGroupRepository) LedBy(ctx context.Context, leadID uuid.UUID) (*model.Group, error) {
	var groups []model.Group
	if err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Limit(1).Find(&groups).Error; err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return &groups[0], nil
}

func (r *GormGroupRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Group{}, "groups", id, changes)
}

func (r *GormGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Group{}, "id = ?", id).Error
}
