package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate выполняет миграцию сущностей ядра и журналов аудита.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Event{},
		&Camp{},
		&Group{},
		&Professional{},
		&Casualty{},
		&Task{},
		&ResourceRequest{},
	); err != nil {
		return err
	}

	// Журналы используют одну структуру, поэтому индексы создаём вручную:
	// gorm назвал бы их одинаково для всех таблиц.
	for _, kind := range AuditKinds {
		table := kind.AuditTable()
		if err := db.Table(table).AutoMigrate(&AuditLogEntry{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_entity ON %s (entity_id, id)", table, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index %s: %w", table, err)
		}
	}
	return nil
}
