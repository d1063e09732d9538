// Package service реализует операции ядра координации.
//
// Каждая операция выполняется ровно в одной транзакции: чтение текущего
// состояния, авторизация, проверка перехода и вместимости, запись и журнал
// аудита идут через tx. Любая ошибка до коммита откатывает всё целиком.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/admission"
	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/audit"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/changefeed"
	"github.com/Leganyst/mci-platform/internal/model"
	"github.com/Leganyst/mci-platform/internal/ratelimit"
	"github.com/Leganyst/mci-platform/internal/repository"
	"github.com/Leganyst/mci-platform/internal/telemetry"
)

const tracerName = "github.com/Leganyst/mci-platform/internal/service"

// Service — точка входа во все операции ядра.
type Service struct {
	db        *gorm.DB
	gate      authz.Gate
	admission *admission.Controller
	recorder  *audit.Recorder
	publisher changefeed.Publisher
	attempts  ratelimit.AttemptTracker
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	clock     func() time.Time
	codes     func() (string, error)
}

type Option func(*Service)

func WithAdmission(c *admission.Controller) Option {
	return func(s *Service) { s.admission = c }
}

func WithRecorder(r *audit.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithPublisher(p changefeed.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithAttemptTracker(t ratelimit.AttemptTracker) Option {
	return func(s *Service) { s.attempts = t }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithInviteCodes подменяет генератор кодов приглашения.
func WithInviteCodes(gen func() (string, error)) Option {
	return func(s *Service) { s.codes = gen }
}

func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		gate:      authz.NewGate(),
		publisher: changefeed.Nop{},
		tracer:    otel.Tracer(tracerName),
		logger:    slog.Default(),
		clock:     time.Now,
		codes:     randomInviteCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.admission == nil {
		s.admission = admission.NewController(admission.PolicyProfessionals)
	}
	if s.recorder == nil {
		s.recorder = audit.NewRecorder(
			audit.WithLogger(s.logger),
			audit.WithClock(s.clock),
			audit.WithFailureHook(s.metrics.AuditFailure),
		)
	}
	if s.attempts == nil {
		s.attempts = ratelimit.NewMemoryTracker(ratelimit.Limits{MaxAttempts: 5, Window: 15 * time.Minute})
	}
	return s
}

// unit — состояние одной транзакции операции.
type unit struct {
	ctx   context.Context
	tx    *gorm.DB
	repos *repository.Set
	svc   *Service

	actor authz.Actor
	now   time.Time

	records []audit.Record
}

func (u *unit) authorize(action authz.Action, target authz.Target) error {
	return u.svc.gate.Authorize(u.actor, action, target).Err()
}

func (u *unit) isCommander() bool {
	return u.actor.Role == model.RoleCommander
}

// record пишет журнал. Ошибка журнала уже залогирована рекордером
// и операцию не прерывает.
func (u *unit) record(kind model.EntityKind, id uuid.UUID, action model.AuditAction, changes model.Changes) {
	rec, err := u.svc.recorder.Record(u.ctx, u.tx, audit.Entry{
		Kind:     kind,
		EntityID: id,
		ActorID:  u.actor.ID,
		Action:   action,
		Changes:  changes,
	})
	if err != nil {
		return
	}
	u.records = append(u.records, rec)
}

// counter — счётчики занятости внутри текущей транзакции.
func (u *unit) counter() admission.OccupancyCounter {
	return u.repos.Occupancy
}

// run выполняет fn в транзакции от имени principal.
func (s *Service) run(ctx context.Context, op string, p authz.Principal, fn func(u *unit) error) error {
	ctx, span := s.tracer.Start(ctx, "service."+op, trace.WithAttributes(
		attribute.String("actor.id", p.ID.String()),
	))
	defer span.End()
	started := s.clock()

	var records []audit.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.NewSet(tx)
		self, err := repos.Professionals.GetByID(ctx, p.ID)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				return apperrors.Forbidden("actor is not a registered professional")
			}
			return err
		}
		// роль берём из базы: SetRole действует немедленно
		u := &unit{
			ctx:   ctx,
			tx:    tx,
			repos: repos,
			svc:   s,
			actor: authz.ActorFrom(*self),
			now:   s.clock().UTC(),
		}
		if err := fn(u); err != nil {
			return err
		}
		records = u.records
		return nil
	})
	err = s.finish(ctx, span, op, started, err)
	if err == nil {
		s.publish(ctx, records)
	}
	return err
}

// finish переводит ошибку в доменную, пишет метрики и спан.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, started time.Time, err error) error {
	err = repository.Translate(err)
	s.metrics.ObserveOperation(op, err, s.clock().Sub(started))
	if err == nil {
		return nil
	}
	kind := apperrors.KindOf(err)
	span.SetAttributes(attribute.String("error.kind", string(kind)))
	if kind == apperrors.KindInternal {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "internal error")
		s.logger.ErrorContext(ctx, "operation failed",
			slog.String("operation", op),
			slog.Any("error", err),
		)
	}
	return err
}

func (s *Service) publish(ctx context.Context, records []audit.Record) {
	if len(records) == 0 {
		return
	}
	changes := make([]changefeed.Change, 0, len(records))
	for _, r := range records {
		changes = append(changes, changefeed.FromRecord(r))
	}
	if err := s.publisher.Publish(ctx, changes...); err != nil {
		s.logger.WarnContext(ctx, "changefeed publish failed",
			slog.Int("changes", len(changes)),
			slog.Any("error", err),
		)
	}
}

func eventTarget(eventID uuid.UUID) authz.Target {
	return authz.Target{EventID: &eventID}
}

// lockEvent читает событие с блокировкой: переходы статуса и изменения
// содержимого события сериализуются на этой строке.
func (u *unit) lockEvent(id uuid.UUID) (*model.Event, error) {
	return u.repos.Events.GetByIDForUpdate(u.ctx, id)
}

// ensureOpen — EVENT_CLOSED для событий в терминальном статусе.
func ensureOpen(e *model.Event) error {
	if !e.Status.IsClosed() {
		return nil
	}
	return apperrors.WithMetadata(apperrors.KindEventClosed,
		"event is "+string(e.Status)+"; its content can no longer change",
		map[string]string{"event_id": e.ID.String(), "status": string(e.Status)},
	)
}
