package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/model"
)

// GormOccupancyRepository считает занятость прямо в таблицах: счётчики
// нигде не хранятся, поэтому внутри транзакции всегда видно актуальное значение.
type GormOccupancyRepository struct {
	db *gorm.DB
}

func NewGormOccupancyRepository(db *gorm.DB) *GormOccupancyRepository {
	return &GormOccupancyRepository{db: db}
}

func (r *GormOccupancyRepository) CountCampProfessionals(ctx context.Context, campID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Professional{}).Where("current_camp_id = ?", campID).Count(&n).Error
	return n, err
}

func (r *GormOccupancyRepository) CountCampCasualties(ctx context.Context, campID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Casualty{}).Where("camp_id = ?", campID).Count(&n).Error
	return n, err
}

func (r *GormOccupancyRepository) CountGroupMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Professional{}).Where("group_id = ?", groupID).Count(&n).Error
	return n, err
}

// CampOccupancy возвращает обе составляющие занятости лагеря.
func (r *GormOccupancyRepository) CampOccupancy(ctx context.Context, campID uuid.UUID) (model.CampOccupancy, error) {
	var occ model.CampOccupancy
	var err error
	if occ.Professionals, err = r.CountCampProfessionals(ctx, campID); err != nil {
		return occ, err
	}
	occ.Casualties, err = r.CountCampCasualties(ctx, campID)
	return occ, err
}
