package kit

import "github.com/xy-planning-network/querykit/logger"

// An OptFn configures a Kit.
type OptFn func(*Kit)

// WithBatchSize sets how many rows Upsert sends per statement.
// Sizes below one are ignored.
func WithBatchSize(n int) OptFn {
	return func(k *Kit) {
		if n > 0 {
			k.batchSize = n
		}
	}
}

// WithConflictColumns sets the unique columns Upsert detects conflicts on
// for PostgreSQL and SQLite.
// The default is the model's primary keys.
//
// MySQL always detects conflicts on every unique index.
func WithConflictColumns(cols ...string) OptFn {
	return func(k *Kit) { k.conflicts = append([]string(nil), cols...) }
}

// WithExcludable sets the columns Exclude drops when called without any.
func WithExcludable(cols ...string) OptFn {
	return func(k *Kit) { k.SetExcludable(cols...) }
}

// WithFilterable sets the configuration Filter applies.
func WithFilterable(f Filterable) OptFn {
	return func(k *Kit) { k.SetFilterable(f) }
}

// WithLogger sets the logger Upsert reports failures to.
func WithLogger(l logger.Logger) OptFn {
	return func(k *Kit) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithSearchable sets the columns Search matches against.
func WithSearchable(cols ...string) OptFn {
	return func(k *Kit) { k.SetSearchable(cols...) }
}

// WithSearchMode sets how Search interprets its term.
// Invalid modes are ignored.
func WithSearchMode(mode SearchMode) OptFn {
	return func(k *Kit) {
		if mode.Valid() == nil {
			k.searchMode = mode
		}
	}
}

// WithTableIntrospection makes Columns ask the database for the table's columns
// instead of reading them off the model.
func WithTableIntrospection() OptFn {
	return func(k *Kit) { k.introspect = true }
}
