package kit

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"github.com/xy-planning-network/querykit/logger"
	"gorm.io/gorm/clause"
)

// Upsert inserts rows into the Kit's table, updating the updateKeys columns of any row
// that conflicts with one already stored.
//
// Each row is narrowed to insertKeys before it is inserted.
// When updateKeys is empty, conflicting rows are left untouched.
//
// Upsert validates its arguments before querying the database:
// if insertKeys is empty or a row lacks one of them, ErrMissingData returns;
// if a key is not a column name or updateKeys is not a subset of insertKeys, ErrNotValid returns.
//
// All rows are written in one transaction, in batches.
// If any batch fails, Upsert logs the failure, rolls back every batch and returns the error.
func (k *Kit) Upsert(ctx context.Context, rows []Row, insertKeys, updateKeys []string) error {
	if len(rows) == 0 {
		return nil
	}

	records, err := k.project(rows, insertKeys, updateKeys)
	if err != nil {
		return err
	}

	onConflict, err := k.onConflict(updateKeys)
	if err != nil {
		return err
	}

	lc := &logger.LogContext{
		Data: map[string]any{
			"insertKeys": insertKeys,
			"rows":       len(rows),
			"updateKeys": updateKeys,
		},
		Table: k.Table(),
	}

	tx := k.db.WithContext(ctx).Begin()
	if err := tx.Err(); err != nil {
		err = fmt.Errorf("%w: failed beginning tx: %s", querykit.ErrUnexpected, err)
		lc.Error = err
		k.logger.Error("upsert failed", lc)
		return err
	}

	for batch := range slices.Chunk(records, k.batchSize) {
		if err := tx.Model(k.model).Clauses(onConflict).Create(batch); err != nil {
			lc.Error = err
			k.logger.Error("upsert failed", lc)

			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Join(err, rbErr)
			}

			return err
		}
	}

	if err := tx.Commit(); err != nil {
		lc.Error = err
		k.logger.Error("upsert failed", lc)

		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}

		return err
	}

	return nil
}

// project validates the keys and narrows each row to insertKeys.
func (k *Kit) project(rows []Row, insertKeys, updateKeys []string) ([]database.Updates, error) {
	if len(insertKeys) == 0 {
		return nil, fmt.Errorf("%w: no insert keys", querykit.ErrMissingData)
	}

	if err := validIdentifiers(insertKeys); err != nil {
		return nil, err
	}

	if err := validIdentifiers(updateKeys); err != nil {
		return nil, err
	}

	for _, key := range updateKeys {
		if !slices.Contains(insertKeys, key) {
			return nil, fmt.Errorf("%w: update key %s is not an insert key", querykit.ErrNotValid, key)
		}
	}

	records := make([]database.Updates, len(rows))
	for i, row := range rows {
		record := make(database.Updates, len(insertKeys))
		for _, key := range insertKeys {
			val, ok := row[key]
			if !ok {
				return nil, fmt.Errorf("%w: row %d has no %s", querykit.ErrMissingData, i, key)
			}

			record[key] = val
		}

		records[i] = record
	}

	return records, nil
}

// onConflict builds the clause resolving conflicting rows.
func (k *Kit) onConflict(updateKeys []string) (clause.OnConflict, error) {
	conflicts := k.conflicts
	if len(conflicts) == 0 {
		conflicts = k.schema.PrimaryFieldDBNames
	}

	if err := validIdentifiers(conflicts); err != nil {
		return clause.OnConflict{}, err
	}

	cols := make([]clause.Column, len(conflicts))
	for i, name := range conflicts {
		cols[i] = clause.Column{Name: name}
	}

	if len(updateKeys) == 0 {
		return clause.OnConflict{Columns: cols, DoNothing: true}, nil
	}

	return clause.OnConflict{Columns: cols, DoUpdates: clause.AssignmentColumns(updateKeys)}, nil
}
