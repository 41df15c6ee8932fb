package database

import (
	"fmt"

	"github.com/xy-planning-network/querykit"
)

// ColumnNames asks the database for the columns of the table backing model,
// in the order the database reports them.
func ColumnNames(db *DB, model any) ([]string, error) {
	if db.db.Error != nil {
		return nil, db.db.Error
	}

	if model == nil {
		return nil, fmt.Errorf("%w: nil model", querykit.ErrMissingData)
	}

	types, err := db.db.Migrator().ColumnTypes(model)
	if err != nil {
		return nil, fmt.Errorf("%w: failed reading columns of %T: %s", querykit.ErrNotExist, model, err)
	}

	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no table for %T", querykit.ErrNotExist, model)
	}

	cols := make([]string, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
	}

	return cols, nil
}
