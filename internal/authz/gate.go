// Package authz решает, может ли специалист выполнить действие над сущностью.
// Решение чистое: все входные данные читаются сервисом в той же транзакции,
// что и последующая запись.
package authz

import (
	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Principal — аутентифицированный вызывающий (id и роль от внешнего identity).
type Principal struct {
	ID   uuid.UUID
	Role model.Role
}

// Actor — вызывающий вместе с текущими назначениями, прочитанными в транзакции.
type Actor struct {
	ID             uuid.UUID
	Role           model.Role
	CurrentEventID *uuid.UUID
}

// ActorFrom строит Actor из строки специалиста.
func ActorFrom(p model.Professional) Actor {
	return Actor{ID: p.ID, Role: p.Role, CurrentEventID: p.CurrentEventID}
}

func (a Actor) inEvent(eventID *uuid.UUID) bool {
	return eventID != nil && a.CurrentEventID != nil && *a.CurrentEventID == *eventID
}

// Target — связи целевой сущности, которые нужны правилам.
type Target struct {
	EventID    *uuid.UUID
	CreatorID  *uuid.UUID
	AssigneeID *uuid.UUID
	LeadID     *uuid.UUID
	SubjectID  *uuid.UUID
}

func is(id *uuid.UUID, actor uuid.UUID) bool {
	return id != nil && *id == actor
}

// Decision — итог проверки.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err возвращает FORBIDDEN для отказа и nil для разрешения.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperrors.Forbidden(d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Gate применяет таблицу правил. Нулевое значение готово к работе.
type Gate struct{}

func NewGate() Gate { return Gate{} }

// Authorize проверяет действие. Командир проходит любую проверку.
func (Gate) Authorize(actor Actor, action Action, target Target) Decision {
	if actor.Role == model.RoleCommander {
		return allow()
	}
	rule, ok := rules[action]
	if !ok {
		return deny("unknown action " + string(action))
	}
	return rule(actor, target)
}
