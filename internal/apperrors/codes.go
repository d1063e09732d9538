package apperrors

import "google.golang.org/grpc/codes"

// Kind — стабильный машиночитаемый тип ошибки, который видят вызывающие.
type Kind string

const (
	KindUnknown             Kind = "UNKNOWN"
	KindNotFound            Kind = "NOT_FOUND"
	KindForbidden           Kind = "FORBIDDEN"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindCapacityExceeded    Kind = "CAPACITY_EXCEEDED"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindNoChange            Kind = "NO_CHANGE"
	KindEventClosed         Kind = "EVENT_CLOSED"
	KindTaskLocked          Kind = "TASK_LOCKED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindAuditWriteFailed    Kind = "AUDIT_WRITE_FAILED"
	KindInternal            Kind = "INTERNAL"
)

// GRPCCode сопоставляет тип ошибки коду gRPC.
func (k Kind) GRPCCode() codes.Code {
	switch k {
	case KindNotFound:
		return codes.NotFound
	case KindForbidden:
		return codes.PermissionDenied
	case KindInvalidTransition,
		KindCapacityExceeded,
		KindEventClosed,
		KindTaskLocked:
		return codes.FailedPrecondition
	case KindConstraintViolation:
		return codes.InvalidArgument
	case KindNoChange:
		return codes.AlreadyExists
	case KindRateLimited:
		return codes.ResourceExhausted
	case KindInternal, KindAuditWriteFailed:
		return codes.Internal
	default:
		return codes.Unknown
	}
}
