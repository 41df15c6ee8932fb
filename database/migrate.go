package database

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/querykit"
)

const migrationsTable = "migrations"

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*DB) error
	Key      string
}

// migrationRecord is a row in the migrations table.
type migrationRecord struct {
	ID    uint   `gorm:"primaryKey"`
	Key   string `gorm:"size:191;uniqueIndex;not null"`
	RanAt int64
}

func (migrationRecord) TableName() string { return migrationsTable }

func (m Migration) execute(db *DB) error {
	tx := db.Begin()
	if tx.db.Error != nil {
		return fmt.Errorf("%w: failed beginning tx: %s", querykit.ErrUnexpected, tx.db.Error)
	}

	if err := m.Executor(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	record := &migrationRecord{Key: m.Key, RanAt: time.Now().Unix()}
	if err := tx.db.Create(record).Error; err != nil {
		_ = tx.Rollback()
		return wrap(err)
	}

	return tx.Commit()
}

// MigrateUp runs every migration whose key is not yet recorded in the migrations table,
// in the order given.
//
// Each migration runs in its own transaction.
// MigrateUp stops at the first failure.
func MigrateUp(db *DB, migrations []Migration) error {
	if err := db.db.AutoMigrate(&migrationRecord{}); err != nil {
		return fmt.Errorf("%w: failed creating migrations table: %s", querykit.ErrUnexpected, err)
	}

	for _, m := range determineMigrationsToRun(db, migrations) {
		if err := m.execute(db); err != nil {
			return fmt.Errorf("migration %s: %w", m.Key, err)
		}
	}

	return nil
}

func determineMigrationsToRun(db *DB, all []Migration) []Migration {
	var ran []string
	db.db.Model(&migrationRecord{}).Pluck("key", &ran)

	seen := make(map[string]bool, len(ran))
	for _, key := range ran {
		seen[key] = true
	}

	toRun := make([]Migration, 0, len(all))
	for _, m := range all {
		if !seen[m.Key] {
			toRun = append(toRun, m)
		}
	}

	return toRun
}
