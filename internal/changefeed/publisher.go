// Package changefeed публикует зафиксированные записи аудита для внешних
// получателей (уведомления, аналитика). Публикуется только то, что уже
// закоммичено; ошибка публикации изменение не отменяет.
package changefeed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/mci-platform/internal/audit"
	"github.com/Leganyst/mci-platform/internal/model"
)

// Change — сообщение об одном зафиксированном изменении.
type Change struct {
	Kind      model.EntityKind  `json:"kind"`
	EntityID  uuid.UUID         `json:"entity_id"`
	ActorID   uuid.UUID         `json:"actor_id"`
	Action    model.AuditAction `json:"action"`
	Changes   model.Changes     `json:"changes"`
	Seq       int64             `json:"seq"`
	CreatedAt time.Time         `json:"created_at"`
}

func FromRecord(r audit.Record) Change {
	return Change{
		Kind:      r.Kind,
		EntityID:  r.EntityID,
		ActorID:   r.ActorID,
		Action:    r.Action,
		Changes:   r.Changes,
		Seq:       r.Seq,
		CreatedAt: r.CreatedAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, changes ...Change) error
	Close() error
}

// Nop — публикация выключена.
type Nop struct{}

func (Nop) Publish(context.Context, ...Change) error { return nil }

func (Nop) Close() error { return nil }
