package kit

import (
	"fmt"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
)

// Exclude selects every column of the Kit's model except columns.
// Without columns, Exclude drops the Kit's excludable columns instead.
// The selected columns keep the order Columns lists them in.
//
// If there is nothing to exclude, the query fails with ErrMissingData.
// If nothing would be left to select, the query fails with ErrNotValid.
//
// Count ignores the columns Exclude selects.
func (k *Kit) Exclude(columns ...string) database.Scope {
	return func(db *database.DB) *database.DB {
		excluded := columns
		if len(excluded) == 0 {
			excluded = k.excludable
		}

		if len(excluded) == 0 {
			return db.AddError(fmt.Errorf("%w: too few arguments to Exclude", querykit.ErrMissingData))
		}

		all, err := k.Columns()
		if err != nil {
			return db.AddError(err)
		}

		drop := make(map[string]bool, len(excluded))
		for _, col := range excluded {
			drop[col] = true
		}

		selected := make([]string, 0, len(all))
		for _, col := range all {
			if !drop[col] {
				selected = append(selected, col)
			}
		}

		if len(selected) == 0 {
			return db.AddError(fmt.Errorf("%w: Exclude dropped every column of %s", querykit.ErrNotValid, k.Table()))
		}

		return db.Select(selected...)
	}
}
