package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

// Задачи физически не удаляются: удаление — это переход в cancelled.
type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Task, error)
	// Используется только при принудительном удалении события.
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(ctx context.Context, t *model.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *GormTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return getByID[model.Task](r.db.WithContext(ctx), "task", id)
}

func (r *GormTaskRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	return getByID[model.Task](forUpdate(r.db.WithContext(ctx)), "task", id)
}

func (r *GormTaskRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Task{}, "tasks", id, changes)
}

func (r *GormTaskRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Task, error) {
	var out []model.Task
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).
		Error
	return out, err
}

func (r *GormTaskRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&model.Task{}).Error
}
