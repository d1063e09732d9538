package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
)

// Translate приводит ошибку хранилища к доменной. Доменные ошибки проходят как есть,
// текст внутренних ошибок базы наружу не попадает.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Wrap(apperrors.KindConstraintViolation, "duplicate value violates a unique constraint", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Wrap(apperrors.KindConstraintViolation, "referenced record does not exist or is still in use", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Wrap(apperrors.KindInternal, "storage operation timed out", err)
	default:
		return apperrors.Wrap(apperrors.KindInternal, "internal storage error", err)
	}
}
