// Package lifecycle содержит конечные автоматы статусов событий и задач.
// Таблицы переходов статические; всё, чего нет в таблице, запрещено.
package lifecycle

import (
	"github.com/Leganyst/mci-platform/internal/apperrors"
)

// Machine — таблица допустимых переходов для строкового статуса.
type Machine[S ~string] struct {
	entity      string
	transitions map[S][]S
}

// NewMachine строит автомат по таблице переходов.
func NewMachine[S ~string](entity string, transitions map[S][]S) Machine[S] {
	return Machine[S]{entity: entity, transitions: transitions}
}

// States — все известные автомату статусы.
func (m Machine[S]) States() []S {
	out := make([]S, 0, len(m.transitions))
	for s := range m.transitions {
		out = append(out, s)
	}
	return out
}

// Allowed — допустимые следующие статусы.
func (m Machine[S]) Allowed(from S) []S {
	return append([]S(nil), m.transitions[from]...)
}

// CanTransition сообщает, есть ли пара (from, to) в таблице.
func (m Machine[S]) CanTransition(from, to S) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal — из статуса нет исходящих переходов.
func (m Machine[S]) IsTerminal(s S) bool {
	_, known := m.transitions[s]
	return known && len(m.transitions[s]) == 0
}

// Validate возвращает INVALID_TRANSITION с перечнем допустимых статусов.
func (m Machine[S]) Validate(from, to S) error {
	if m.CanTransition(from, to) {
		return nil
	}
	allowed := m.transitions[from]
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, string(s))
	}
	return apperrors.InvalidTransition(m.entity, string(from), string(to), names)
}
