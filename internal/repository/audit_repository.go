package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

// Журналы только читаются здесь; пишет в них audit.Recorder.
type AuditRepository interface {
	Trail(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) ([]model.AuditLogEntry, error)
	Count(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) (int64, error)
}

type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Trail возвращает записи в порядке коммитов.
func (r *GormAuditRepository) Trail(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) ([]model.AuditLogEntry, error) {
	var rows []model.AuditLogEntry
	err := r.db.WithContext(ctx).
		Table(kind.AuditTable()).
		Where("entity_id = ?", entityID).
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *GormAuditRepository) Count(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(kind.AuditTable()).Where("entity_id = ?", entityID).Count(&n).Error
	return n, err
}
