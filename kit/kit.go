package kit

import (
	"fmt"
	"maps"
	"slices"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"github.com/xy-planning-network/querykit/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const defaultBatchSize = 100

// A Row is one record of data to upsert, keyed by column.
type Row = database.Updates

// Params are the actual parameters of a request, keyed by name, a Filter consumes.
type Params map[string]any

// A Kit binds query helpers to a GORM model:
// bulk upsert, column exclusion, filtering by request parameters and full-text search.
//
// A Kit is meant for a single goroutine.
type Kit struct {
	db         *database.DB
	model      any
	schema     *schema.Schema
	logger     logger.Logger
	batchSize  int
	conflicts  []string
	introspect bool

	excludable []string
	filterable Filterable
	searchable []string
	searchMode SearchMode
}

// New constructs a Kit for model, a pointer to a GORM model struct.
//
// If db or model is nil, New returns ErrMissingData.
// If GORM cannot parse model, New returns ErrNotValid.
func New(db *database.DB, model any, opts ...OptFn) (*Kit, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil *database.DB", querykit.ErrMissingData)
	}

	if model == nil {
		return nil, fmt.Errorf("%w: nil model", querykit.ErrMissingData)
	}

	stmt := &gorm.Statement{DB: db.DB()}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("%w: cannot parse %T: %s", querykit.ErrNotValid, model, err)
	}

	k := &Kit{
		db:         db,
		model:      model,
		schema:     stmt.Schema,
		logger:     logger.NewLogger(),
		batchSize:  defaultBatchSize,
		filterable: make(Filterable),
		searchMode: SearchNatural,
	}
	for _, opt := range opts {
		opt(k)
	}

	return k, nil
}

// Table names the database table backing the Kit's model.
func (k *Kit) Table() string { return k.schema.Table }

// Query begins a query on the Kit's model.
// Chain the Kit's scopes onto it:
//
//	k.Query().Scope(k.Filter(params)).Scope(k.Exclude()).Find(&products)
func (k *Kit) Query() *database.DB { return k.db.Model(k.model) }

// Columns lists the columns of the Kit's model in declaration order.
//
// If the Kit was built with WithTableIntrospection,
// Columns asks the database instead, in the order the database reports them.
func (k *Kit) Columns() ([]string, error) {
	if k.introspect {
		return database.ColumnNames(k.db, k.model)
	}

	return slices.Clone(k.schema.DBNames), nil
}

// Excludable returns a copy of the columns Exclude drops when called without any.
func (k *Kit) Excludable() []string { return slices.Clone(k.excludable) }

// SetExcludable replaces the columns Exclude drops when called without any.
func (k *Kit) SetExcludable(cols ...string) { k.excludable = slices.Clone(cols) }

// Filterable returns a copy of the configuration Filter applies.
func (k *Kit) Filterable() Filterable { return maps.Clone(k.filterable) }

// SetFilterable replaces the configuration Filter applies.
func (k *Kit) SetFilterable(f Filterable) {
	k.filterable = maps.Clone(f)
	if k.filterable == nil {
		k.filterable = make(Filterable)
	}
}

// Searchable returns a copy of the columns Search matches against.
func (k *Kit) Searchable() []string { return slices.Clone(k.searchable) }

// SetSearchable replaces the columns Search matches against.
func (k *Kit) SetSearchable(cols ...string) { k.searchable = slices.Clone(cols) }
