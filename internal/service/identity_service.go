package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/model"
	"github.com/Leganyst/mci-platform/internal/repository"
)

// RegisterInput — данные специалиста от доверенного внешнего сервиса идентификации.
type RegisterInput struct {
	// ID задаётся внешней системой; пустой ID — новый специалист.
	ID   uuid.UUID
	Name string
	Role string
}

// RegisterProfessional создаёт специалиста или возвращает существующего, обновляя имя.
// Вызывается доверенным сервисом идентификации: роль применяется только при создании,
// дальше её меняет SetRole.
func (s *Service) RegisterProfessional(ctx context.Context, in RegisterInput) (model.Professional, error) {
	return s.register(ctx, "RegisterProfessional", in, true)
}

// SelfRegister — регистрация без аутентифицированного вызывающего.
// Запрошенная роль игнорируется: новый специалист всегда volunteer.
// Уже существующий ID не перезаписывается.
func (s *Service) SelfRegister(ctx context.Context, in RegisterInput) (model.Professional, error) {
	in.Role = string(model.RoleVolunteer)
	return s.register(ctx, "SelfRegister", in, false)
}

func (s *Service) register(ctx context.Context, op string, in RegisterInput, trusted bool) (model.Professional, error) {
	ctx, span := s.tracer.Start(ctx, "service."+op)
	defer span.End()
	started := s.clock()

	var out model.Professional
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return apperrors.ConstraintViolation("professional name is required")
		}
		repos := repository.NewSet(tx)

		if in.ID != uuid.Nil {
			existing, err := repos.Professionals.GetByIDForUpdate(ctx, in.ID)
			switch {
			case err == nil && !trusted:
				return apperrors.WithMetadata(apperrors.KindConstraintViolation,
					"professional is already registered",
					map[string]string{"id": in.ID.String()},
				)
			case err == nil:
				changes := model.Changes{}
				changes.Track("name", existing.Name, name)
				if !changes.Empty() {
					if err := repos.Professionals.Update(ctx, existing.ID, changes); err != nil {
						return err
					}
					existing.Name = name
				}
				out = *existing
				return nil
			case !apperrors.IsKind(err, apperrors.KindNotFound):
				return err
			}
		}

		role := model.RoleVolunteer
		if in.Role != "" {
			parsed, err := model.ParseRole(in.Role)
			if err != nil {
				return apperrors.ConstraintViolation(err.Error())
			}
			role = parsed
		}
		p := model.Professional{ID: in.ID, Name: name, Role: role}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if err := repos.Professionals.Create(ctx, &p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, s.finish(ctx, span, op, started, err)
}

// SetRole назначает роль специалисту. Новая роль действует со следующей операции.
func (s *Service) SetRole(ctx context.Context, p authz.Principal, professionalID uuid.UUID, role string) (model.Professional, error) {
	var out model.Professional
	err := s.run(ctx, "SetRole", p, func(u *unit) error {
		if err := u.authorize(authz.ProfessionalSetRole, authz.Target{SubjectID: &professionalID}); err != nil {
			return err
		}
		parsed, err := model.ParseRole(role)
		if err != nil {
			return apperrors.ConstraintViolation(err.Error())
		}
		target, err := u.repos.Professionals.GetByIDForUpdate(u.ctx, professionalID)
		if err != nil {
			return err
		}
		changes := model.Changes{}
		changes.Track("role", target.Role, parsed)
		if changes.Empty() {
			return apperrors.NoChange("professional role")
		}
		if err := u.repos.Professionals.Update(u.ctx, target.ID, changes); err != nil {
			return err
		}
		target.Role = parsed
		out = *target
		return nil
	})
	return out, err
}

// GetProfessional возвращает профиль специалиста; свой профиль доступен всем.
func (s *Service) GetProfessional(ctx context.Context, p authz.Principal, professionalID uuid.UUID) (model.Professional, error) {
	var out model.Professional
	err := s.run(ctx, "GetProfessional", p, func(u *unit) error {
		found, err := u.repos.Professionals.GetByID(u.ctx, professionalID)
		if err != nil {
			return err
		}
		if found.ID != u.actor.ID && !u.isCommander() {
			if found.CurrentEventID == nil || u.actor.CurrentEventID == nil || *found.CurrentEventID != *u.actor.CurrentEventID {
				return apperrors.Forbidden("professional is outside the actor's event")
			}
		}
		out = *found
		return nil
	})
	return out, err
}

// AdmitLogin пропускает попытку входа через счётчик неудач.
// verify выполняет саму проверку учётных данных во внешней системе.
func (s *Service) AdmitLogin(ctx context.Context, key string, verify func(ctx context.Context) error) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return apperrors.ConstraintViolation("login key is required")
	}
	if err := s.attempts.Check(ctx, key); err != nil {
		if apperrors.IsKind(err, apperrors.KindRateLimited) {
			s.metrics.RateLimited()
		}
		return err
	}
	verr := verify(ctx)
	if err := s.attempts.Record(ctx, key, verr == nil); err != nil {
		s.logger.WarnContext(ctx, "login attempt not recorded",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	if verr != nil {
		var appErr *apperrors.Error
		if errors.As(verr, &appErr) {
			return verr
		}
		return apperrors.Wrap(apperrors.KindForbidden, "invalid credentials", verr)
	}
	return nil
}
