// Package apperrors описывает таксономию ошибок ядра координации:
// каждая неудачная операция возвращает стабильный Kind и понятную причину.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain — домен ошибок для errdetails.ErrorInfo.
const Domain = "github.com/Leganyst/mci-platform"

// Error — доменная ошибка со структурированными метаданными.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по Kind, чтобы работал errors.Is(err, &Error{Kind: ...}).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WithMetadata(kind Kind, message string, metadata map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Metadata: metadata}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf возвращает Kind первой доменной ошибки в цепочке.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind — короткая форма KindOf(err) == kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// NotFound — ссылка на несуществующую сущность.
func NotFound(entity string, id fmt.Stringer) *Error {
	return WithMetadata(KindNotFound,
		fmt.Sprintf("%s %s not found", entity, id),
		map[string]string{"entity": entity, "id": id.String()},
	)
}

// NotFoundBy — поиск по другому ключу (например, по коду приглашения).
func NotFoundBy(entity, field, value string) *Error {
	return WithMetadata(KindNotFound,
		fmt.Sprintf("%s with %s %q not found", entity, field, value),
		map[string]string{"entity": entity, field: value},
	)
}

func Forbidden(reason string) *Error {
	return New(KindForbidden, reason)
}

// InvalidTransition перечисляет допустимые следующие состояния.
func InvalidTransition(entity, from, to string, allowed []string) *Error {
	list := "none (terminal state)"
	if len(allowed) > 0 {
		sorted := append([]string(nil), allowed...)
		sort.Strings(sorted)
		list = strings.Join(sorted, ", ")
	}
	return WithMetadata(KindInvalidTransition,
		fmt.Sprintf("%s status cannot move from %s to %s; allowed: %s", entity, from, to, list),
		map[string]string{"from": from, "to": to, "allowed": list},
	)
}

// CapacityExceeded сообщает текущую занятость и лимит.
func CapacityExceeded(container string, occupancy, limit int64) *Error {
	return WithMetadata(KindCapacityExceeded,
		fmt.Sprintf("%s is at capacity: %d/%d", container, occupancy, limit),
		map[string]string{
			"container": container,
			"occupancy": fmt.Sprintf("%d", occupancy),
			"limit":     fmt.Sprintf("%d", limit),
		},
	)
}

func ConstraintViolation(reason string) *Error {
	return New(KindConstraintViolation, reason)
}

// NoChange — патч совпадает с текущим состоянием.
func NoChange(entity string) *Error {
	return New(KindNoChange, entity+" already matches the requested state")
}

// ToGRPCStatus переводит ошибку в gRPC-статус с ErrorInfo.
// Для INTERNAL наружу уходит только общее сообщение.
func (e *Error) ToGRPCStatus() error {
	msg := e.Message
	if e.Kind == KindInternal {
		msg = "internal error"
	}
	st := status.New(e.Kind.GRPCCode(), msg)
	withDetails, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(e.Kind),
		Domain:   Domain,
		Metadata: e.Metadata,
	})
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// ToGRPC приводит произвольную ошибку к gRPC-статусу.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ToGRPCStatus()
	}
	return Wrap(KindInternal, "internal error", err).ToGRPCStatus()
}
