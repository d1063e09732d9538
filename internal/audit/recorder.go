// Package audit ведёт неизменяемые журналы изменений по типам сущностей.
//
// Запись журнала выполняется в той же транзакции, что и изменение, но во
// вложенной транзакции (savepoint): неудачная вставка откатывает только
// себя, а основное изменение фиксируется.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Entry — одно изменение для журнала.
type Entry struct {
	Kind     model.EntityKind
	EntityID uuid.UUID
	ActorID  uuid.UUID
	Action   model.AuditAction
	Changes  model.Changes
}

// Record — запись, попавшая в журнал.
type Record struct {
	Entry
	Seq       int64
	CreatedAt time.Time
}

// FailureHook вызывается при каждой неудачной записи журнала.
type FailureHook func(kind model.EntityKind, action model.AuditAction, err error)

type Recorder struct {
	logger *slog.Logger
	clock  func() time.Time
	hooks  []FailureHook
}

type Option func(*Recorder)

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) { r.clock = clock }
}

func WithFailureHook(h FailureHook) Option {
	return func(r *Recorder) { r.hooks = append(r.hooks, h) }
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record добавляет запись в журнал <kind>_audit_logs внутри транзакции tx.
// Ошибка AUDIT_WRITE_FAILED уже залогирована и передана хукам;
// вызывающий не должен откатывать из-за неё транзакцию.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, e Entry) (Record, error) {
	changes := e.Changes
	if changes == nil {
		changes = model.Changes{}
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return Record{}, r.fail(ctx, e, err)
	}

	row := model.AuditLogEntry{
		EntityID:  e.EntityID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Changes:   datatypes.JSON(payload),
		CreatedAt: r.clock().UTC(),
	}
	err = tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Table(e.Kind.AuditTable()).Create(&row).Error
	})
	if err != nil {
		return Record{}, r.fail(ctx, e, err)
	}
	return Record{Entry: e, Seq: row.ID, CreatedAt: row.CreatedAt}, nil
}

func (r *Recorder) fail(ctx context.Context, e Entry, cause error) error {
	r.logger.WarnContext(ctx, "audit write failed",
		slog.String("kind", string(e.Kind)),
		slog.String("entity_id", e.EntityID.String()),
		slog.String("action", string(e.Action)),
		slog.Any("error", cause),
	)
	for _, h := range r.hooks {
		h(e.Kind, e.Action, cause)
	}
	return apperrors.Wrap(apperrors.KindAuditWriteFailed, "audit write failed", cause)
}

// Decode разбирает JSON изменений из строки журнала.
func Decode(row model.AuditLogEntry) (model.Changes, error) {
	var c model.Changes
	if len(row.Changes) == 0 {
		return model.Changes{}, nil
	}
	if err := json.Unmarshal(row.Changes, &c); err != nil {
		return nil, err
	}
	return c, nil
}
