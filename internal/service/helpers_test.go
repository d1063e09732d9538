package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/authz"
	"github.com/Leganyst/mci-platform/internal/changefeed"
	"github.com/Leganyst/mci-platform/internal/db"
	"github.com/Leganyst/mci-platform/internal/model"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	svc       *Service
	feed      *captureFeed
	commander authz.Principal
}

// captureFeed запоминает всё, что сервис отдал в changefeed.
type captureFeed struct {
	mu      sync.Mutex
	changes []changefeed.Change
}

func (c *captureFeed) Publish(_ context.Context, changes ...changefeed.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, changes...)
	return nil
}

func (c *captureFeed) Close() error { return nil }

func (c *captureFeed) snapshot() []changefeed.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]changefeed.Change(nil), c.changes...)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	gdb, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	feed := &captureFeed{}
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithPublisher(feed),
	}
	f := &fixture{
		t:    t,
		ctx:  context.Background(),
		db:   gdb,
		svc:  New(gdb, append(base, opts...)...),
		feed: feed,
	}
	f.commander = f.professional("Commander", model.RoleCommander)
	return f
}

func (f *fixture) professional(name string, role model.Role) authz.Principal {
	f.t.Helper()
	p, err := f.svc.RegisterProfessional(f.ctx, RegisterInput{Name: name, Role: string(role)})
	if err != nil {
		f.t.Fatalf("RegisterProfessional(%s) error = %v", name, err)
	}
	return authz.Principal{ID: p.ID, Role: p.Role}
}

func (f *fixture) event(name string) model.Event {
	f.t.Helper()
	e, err := f.svc.CreateEvent(f.ctx, f.commander, CreateEventInput{Name: name, Location: "Central station"})
	if err != nil {
		f.t.Fatalf("CreateEvent(%s) error = %v", name, err)
	}
	return e
}

func (f *fixture) camp(e model.Event, capacity *int) model.Camp {
	f.t.Helper()
	c, err := f.svc.CreateCamp(f.ctx, f.commander, e.ID, CreateCampInput{LocationName: "North gate", Capacity: capacity})
	if err != nil {
		f.t.Fatalf("CreateCamp error = %v", err)
	}
	return c
}

func (f *fixture) join(p authz.Principal, e model.Event, campID *uuid.UUID) {
	f.t.Helper()
	if _, err := f.svc.JoinEventByCode(f.ctx, p, e.InviteCode, campID); err != nil {
		f.t.Fatalf("JoinEventByCode error = %v", err)
	}
}

// member — специалист, уже назначенный на событие.
func (f *fixture) member(name string, role model.Role, e model.Event) authz.Principal {
	f.t.Helper()
	p := f.professional(name, role)
	f.join(p, e, nil)
	return p
}

func (f *fixture) load(p authz.Principal) model.Professional {
	f.t.Helper()
	var out model.Professional
	if err := f.db.First(&out, "id = ?", p.ID).Error; err != nil {
		f.t.Fatalf("load professional: %v", err)
	}
	return out
}

func (f *fixture) auditCount(kind model.EntityKind, id uuid.UUID) int64 {
	f.t.Helper()
	var n int64
	if err := f.db.Table(kind.AuditTable()).Where("entity_id = ?", id).Count(&n).Error; err != nil {
		f.t.Fatalf("count audit: %v", err)
	}
	return n
}

func (f *fixture) auditActions(kind model.EntityKind, id uuid.UUID) []model.AuditAction {
	f.t.Helper()
	var rows []model.AuditLogEntry
	if err := f.db.Table(kind.AuditTable()).Where("entity_id = ?", id).Order("id ASC").Find(&rows).Error; err != nil {
		f.t.Fatalf("load audit: %v", err)
	}
	out := make([]model.AuditAction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Action)
	}
	return out
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("error kind = %s (%v), want %s", got, err, kind)
	}
}


func ptr[T any](v T) *T { return &v }
