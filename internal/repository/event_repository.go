package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// EventDependents — данные, которые держат событие от удаления.
type EventDependents struct {
	Camps      int64
	Casualties int64
	Tasks      int64
	Resources  int64
}

func (d EventDependents) Total() int64 {
	return d.Camps + d.Casualties + d.Tasks + d.Resources
}

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Прочитать событие с блокировкой строки до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Код ожидается уже в верхнем регистре.
	GetByInviteCodeForUpdate(ctx context.Context, code string) (*model.Event, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, changes model.Changes) error
	CountDependents(ctx context.Context, id uuid.UUID) (EventDependents, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return getByID[model.Event](r.db.WithContext(ctx), "event", id)
}

func (r *GormEventRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return getByID[model.Event](forUpdate(r.db.WithContext(ctx)), "event", id)
}

func (r *GormEventRepository) GetByInviteCodeForUpdate(ctx context.Context, code string) (*model.Event, error) {
	var e model.Event
	err := forUpdate(r.db.WithContext(ctx)).First(&e, "invite_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundBy("event", "invite_code", code)
		}
		return nil, err
	}
	return &e, nil
}

func (r *GormEventRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Where("invite_code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *GormEventRepository) Update(ctx context.Context, id uuid.UUID, changes model.Changes) error {
	return applyChanges(r.db.WithContext(ctx), &model.Event{}, "events", id, changes)
}

func (r *GormEventRepository) CountDependents(ctx context.Context, id uuid.UUID) (EventDependents, error) {
	var d EventDependents
	db := r.db.WithContext(ctx)
	counts := []struct {
		value any
		dst   *int64
	}{
		{&model.Camp{}, &d.Camps},
		{&model.Casualty{}, &d.Casualties},
		{&model.Task{}, &d.Tasks},
		{&model.ResourceRequest{}, &d.Resources},
	}
	for _, c := range counts {
		if err := db.Model(c.value).Where("event_id = ?", id).Count(c.dst).Error; err != nil {
			return EventDependents{}, err
		}
	}
	return d, nil
}

func (r *GormEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Event{}, "id = ?", id).Error
}
