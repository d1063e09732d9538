package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EntityKind — тип сущности; у каждого свой журнал аудита.
type EntityKind string

const (
	EntityEvent    EntityKind = "event"
	EntityCamp     EntityKind = "camp"
	EntityCasualty EntityKind = "casualty"
	EntityTask     EntityKind = "task"
	EntityGroup    EntityKind = "group"
	EntityResource EntityKind = "resource"
)

// AuditKinds перечисляет все журналы аудита.
var AuditKinds = []EntityKind{
	EntityEvent,
	EntityCamp,
	EntityCasualty,
	EntityTask,
	EntityGroup,
	EntityResource,
}

// AuditTable возвращает имя таблицы журнала для типа сущности.
func (k EntityKind) AuditTable() string {
	return string(k) + "_audit_logs"
}

// Тег действия в журнале.
type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditUpdated       AuditAction = "updated"
	AuditDeleted       AuditAction = "deleted"
	AuditTransitioned  AuditAction = "status_changed"
	AuditMemberJoined  AuditAction = "member_joined"
	AuditMemberLeft    AuditAction = "member_left"
	AuditCampAssigned  AuditAction = "camp_assigned"
	AuditMemberAdded   AuditAction = "member_added"
	AuditMemberRemoved AuditAction = "member_removed"
	AuditConfirmed     AuditAction = "confirmation_changed"
)

// <kind>_audit_logs — неизменяемые записи, никогда не обновляются и не удаляются.
// Автоинкрементный ID задаёт порядок записей в порядке коммитов.
type AuditLogEntry struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	EntityID  uuid.UUID      `gorm:"type:uuid;not null"`
	ActorID   uuid.UUID      `gorm:"type:uuid;not null"`
	Action    AuditAction    `gorm:"type:varchar(64);not null"`
	Changes   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
