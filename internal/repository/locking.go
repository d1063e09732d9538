package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate блокирует читаемые строки до конца транзакции (SELECT ... FOR UPDATE).
// SQLite этот clause игнорирует: у неё и так один писатель.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
