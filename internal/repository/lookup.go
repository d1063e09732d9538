package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
)

func getByID[T any](db *gorm.DB, entity string, id uuid.UUID) (*T, error) {
	var v T
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(entity, id)
		}
		return nil, err
	}
	return &v, nil
}
