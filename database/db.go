package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/xy-planning-network/querykit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// safeGORMSession forces the next *gorm.DB method to clone the statement it builds upon.
var safeGORMSession = &gorm.Session{}

// A Scope is a reusable, named query modification applied with [*DB.Scope].
//
// A Scope receives the query built so far and returns the query with its modifications.
// A Scope that cannot apply itself ought to return [*DB.AddError],
// so the finisher method called on the query returns that error.
type Scope func(*DB) *DB

type DB struct {
	// *gorm.DB's methods are generally unsafe to use.
	// Specifically, some *gorm.DB methods are not thread-safe
	// and mutate the state of the *gorm.DB backing DB.
	//
	// If a *gorm.DB method calls *gorm.DB.getInstance,
	// this appears to render a method "safe" since it creates a new pointer.
	//
	// If a *gorm.DB method does not, be aware.
	// One solution is to use *gorm.DB.Session to force a clean pointer.
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// Debug prints the current query to the logger.
func (db *DB) Debug() *DB { return &DB{db.db.Debug()} }

// Dialect names the database the DB is connected to: mysql, postgres or sqlite.
func (db *DB) Dialect() string { return db.db.Dialector.Name() }

// Err returns the error recorded while building the current query, if any.
func (db *DB) Err() error { return db.db.Error }

// AddError records err on the current query.
// Every finisher method called on the returned *DB returns err without querying the database.
func (db *DB) AddError(err error) *DB {
	gdb := db.db.Session(safeGORMSession)
	_ = gdb.AddError(err)
	return &DB{db: gdb}
}

// WithContext sets ctx on the current query, cancelling it when ctx is done.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// **************************************************************************
// FINISHER METHODS
//
// These methods close out a current query, executing it.
// All finisher methods are terminal and cannot be chained.
// They return any errors occuring within the query chain
// or when executing the query.
// Unless returning a value, like Count does a number or Paged does PagedData,
// finisher methods expect a pointer data from the query can be inserted into.
//
// **************************************************************************

// Count returns the number of records matching the current query or an error.
func (db *DB) Count() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	var count int64
	if err := db.db.Count(&count).Error; err != nil {
		return 0, wrap(err)
	}

	return count, nil
}

// Create inserts value into the database, updating value with new data yielding from that insertion.
// Accordingly, almost always, value is a pointer to a struct that is a database table.
//
// Create allows for setting the table via Table or Model, as well.
// Value can be an Updates or a []Updates, in this use case.
// Create applies any clauses set with Clauses, such as a clause.OnConflict.
//
// Value must be a pointer, otherwise ErrUnaddressable returns.
// If value violates a foreign key constraint defined by the database, ErrNotValid returns.
// If value violates a unique constraint defined by the database, ErrExists returns.
// If value is not a database table, ErrMissingData returns.
func (db *DB) Create(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %T must be a non-nil pointer or slice", querykit.ErrUnaddressable, value)
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	switch v := value.(type) {
	case Updates:
		if err = v.valid(); err != nil {
			return err
		}

		value = map[string]any(v)

	case []Updates:
		rows := make([]map[string]any, len(v))
		for i, row := range v {
			if err = row.valid(); err != nil {
				return err
			}

			rows[i] = map[string]any(row)
		}

		// NOTE(querykit): GORM scans RETURNING values into a slice of maps only through a pointer.
		value = &rows
	}

	err = db.db.Session(&gorm.Session{FullSaveAssociations: false}).Create(value).Error
	switch {
	case err == nil:
		return nil

	case errors.Is(err, schema.ErrUnsupportedDataType), errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%w: %T is not a database table", querykit.ErrMissingData, value)

	case errors.Is(err, gorm.ErrEmptySlice):
		return fmt.Errorf("%w: nothing to create", querykit.ErrMissingData)

	default:
		return wrap(err)
	}
}

// Delete archives or soft deletes the database record for value.
func (db *DB) Delete(value any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	res := db.db.Delete(value)
	if errors.Is(res.Error, schema.ErrUnsupportedDataType) {
		return fmt.Errorf("%w: cannot parse table name from %T", querykit.ErrMissingData, value)
	}

	if res.Error != nil {
		return wrap(res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %T", querykit.ErrNotFound, value)
	}

	return nil
}

// Exec executes SQL query sql, passing values to it.
//
// If the query executed does not affect any records, Exec return ErrNotFound.
// There are many use cases where the caller ought to specifically ignore this error,
// since the execution may not change existing records.
//
// Exec does not write any data resulting from the query into Go values.
func (db *DB) Exec(sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	var err error
	values, err = unwrap(values...)
	if err != nil && !errors.Is(err, errNilArg) {
		return err
	}

	res := db.db.Exec(sql, values...)
	if res.Error != nil {
		return wrap(res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: exec failed to affect any rows", querykit.ErrNotFound)
	}

	return nil
}

// Exists asserts whether any record matches the current query.
func (db *DB) Exists() (bool, error) {
	if db.db.Error != nil {
		return false, db.db.Error
	}

	var exists bool
	// NOTE(querykit): the outer query needs a statement of its own,
	// otherwise Raw overwrites the one the sub-query renders from.
	outer := db.db.Session(&gorm.Session{NewDB: true})
	err := outer.Raw("SELECT EXISTS(?)", db.db.Session(safeGORMSession)).Scan(&exists).Error
	if err != nil {
		return false, wrap(err)
	}

	return exists, nil
}

// Find retrieves all records matching the current query
// and stores them in dest.
//
// If dest is not a valid type for the table queried,
// then ErrNotValid returns.
// If no matches are found, Find returns ErrNotFound.
func (db *DB) Find(dest any) (err error) {
	badDest := fmt.Errorf("%w: %T cannot be scanned into", querykit.ErrNotValid, dest)
	defer func() {
		if r := recover(); r != nil {
			err = badDest
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	res := db.db.Find(dest)
	if res.Error != nil && errSQLScan.MatchString(res.Error.Error()) {
		return badDest
	}

	if res.Error != nil {
		return wrap(res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w", querykit.ErrNotFound)
	}

	return nil
}

// First retrieves a single record from the database matching the query
// and stores it in dest.
//
// If no matches are found, First returns ErrNotFound.
func (db *DB) First(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %T", querykit.ErrNotFound, dest)
	}

	return wrap(err)
}

// Paged turns the results of the current query into a paginated version: PagedData.
//
// Paged requires the table be set with Model,
// otherwise ErrUnaddressable returns.
func (db *DB) Paged(page, perPage int64) (pd PagedData, err error) {
	defer func() {
		// NOTE: This method uses reflect and so can panic.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: Paged panicked: %s", querykit.ErrUnexpected, r)
			pd = PagedData{}
		}
	}()

	if db.db.Error != nil {
		return PagedData{}, db.db.Error
	}

	model := db.db.Statement.Model
	if model == nil {
		err = fmt.Errorf("%w: must use Model with Paged", querykit.ErrUnaddressable)
		return PagedData{}, err
	}

	reflectType := reflect.TypeOf(model).Elem()
	if reflectType.Kind() != reflect.Slice {
		model = reflect.New(reflect.SliceOf(reflectType)).Interface()
	}

	pd.Items = model
	pd.Page = max(1, page)
	pd.PerPage = max(1, perPage)

	var totalRecords int64
	err = db.db.Session(safeGORMSession).Count(&totalRecords).Error
	if err != nil {
		return PagedData{}, wrap(err)
	}

	offset := int((pd.Page - 1) * pd.PerPage)
	err = db.db.Limit(int(pd.PerPage)).Offset(offset).Find(pd.Items).Error
	if err != nil {
		return PagedData{}, wrap(err)
	}

	// NOTE: use math/big for accurate float64 division.
	totalPages := new(big.Float).SetInt(big.NewInt(totalRecords))
	totalPages.Quo(totalPages, new(big.Float).SetInt(big.NewInt(pd.PerPage)))

	// NOTE: Int64 rounds towards zero,
	// so add one when it truncates to get the ceiling.
	var acc big.Accuracy
	pd.TotalPages, acc = totalPages.Int64()
	if acc == big.Below {
		pd.TotalPages += 1
	}

	pd.TotalItems = totalRecords

	return pd, nil
}

// Pluck retrieves the values of column for all records matching the current query
// and stores them in dest, a pointer to a slice.
func (db *DB) Pluck(column string, dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	return wrap(db.db.Pluck(column, dest).Error)
}

// Raw executes sql, passing values to it, and scans the results into dest.
func (db *DB) Raw(dest any, sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	var err error
	values, err = unwrap(values...)
	if err != nil && !errors.Is(err, errNilArg) {
		return err
	}

	return wrap(db.db.Raw(sql, values...).Scan(dest).Error)
}

// Update replaces existing data on all records matching the query with values.
//
// If no records are updated, ErrNotFound returns.
// The caller ought to specifically handle this error
// when its expected a query may not mutate records.
func (db *DB) Update(values Updates) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := values.valid(); err != nil {
		return err
	}

	res := db.db.Updates(map[string]any(values))
	switch {
	case res.Error != nil:
		return wrap(res.Error)

	case res.RowsAffected == 0:
		return fmt.Errorf("%w", querykit.ErrNotFound)

	default:
		return nil
	}
}

// **************************************************************************
// QUERY BUILDING METHODS
//
// Query building methods initiate a query and then add clauses to it
// until a finisher method is called.
// The caller can chain methods.
// There is no required sort order,
// but conventions dictate acceptable patterns for which methods are called first.
//
// **************************************************************************

// Clauses adds clause expressions, like a clause.OnConflict, to the current query.
func (db *DB) Clauses(exprs ...clause.Expression) *DB { return &DB{db: db.db.Clauses(exprs...)} }

// Distinct adds a DISTINCT clause to the current query.
// Column can be an empty string, which is the equivalent of all columns, i.e.: *.
func (db *DB) Distinct(column string) *DB {
	if column == "" {
		column = "*"
	}

	return &DB{db.db.Distinct(column)}
}

// Group applies a GROUP BY clause to the current query.
func (db *DB) Group(name string) *DB { return &DB{db: db.db.Group(name)} }

// Limit applies a LIMIT clause to the current query.
func (db *DB) Limit(limit int) *DB {
	// NOTE: GORM interprets negatives by not applying a LIMIT clause.
	// Databases error on them; Limit mirrors the databases, not GORM.
	if limit < 0 {
		return db.AddError(fmt.Errorf("%w: limit must not be negative", querykit.ErrNotValid))
	}

	return &DB{db: db.db.Limit(limit)}
}

// Model declares the table used for the query.
//
// Model computes the name for the database table from the type of model,
// taking the plural of the table, for example:
// - Product -> products
// - User -> users
//
// Unless, model implements: func TableName() string
// The value returned from that function is used instead.
//
// Calling Model multiple times or in conjunction with Table is undefined behavior.
func (db *DB) Model(model any) *DB { return &DB{db: db.db.Model(model)} }

// Not applies a NOT clause to the current query.
//
// Not supports one or none args.
func (db *DB) Not(query any, args ...any) *DB {
	q, args, err := conditionArgs("Not", query, args...)
	if err != nil {
		return db.AddError(err)
	}

	return &DB{db: db.db.Not(q, args...)}
}

// Offset applies an OFFSET clause to the current query.
func (db *DB) Offset(offset int) *DB {
	if offset < 0 {
		return db.AddError(fmt.Errorf("%w: offset must not be negative", querykit.ErrNotValid))
	}

	return &DB{db: db.db.Offset(offset)}
}

// Or applies an OR clause to the current query.
//
// Or supports one or none args.
func (db *DB) Or(query any, args ...any) *DB {
	q, args, err := conditionArgs("Or", query, args...)
	if err != nil {
		return db.AddError(err)
	}

	return &DB{db: db.db.Or(q, args...)}
}

// Order applies an ORDER BY clause to the current query.
func (db *DB) Order(order string) *DB { return &DB{db: db.db.Order(order)} }

// Scope applies the scope to the existing query.
// Review [Scope] for more details.
//
// The scope runs when a finisher method executes the query.
func (db *DB) Scope(scope Scope) *DB {
	return &DB{db: db.db.Scopes(func(dbx *gorm.DB) *gorm.DB {
		return scope(NewDB(dbx)).DB()
	})}
}

// Select applies a SELECT statement to the current query.
func (db *DB) Select(columns ...string) *DB { return &DB{db: db.db.Select(columns)} }

// Table defines which database table to query for the current query.
// Table is similar to Model but allows for explicit definition of the table.
//
// Calling Table multiple times or in conjuction with Model
// in the same query chain is undefined behavior.
func (db *DB) Table(name string) *DB { return &DB{db: db.db.Table(name)} }

// Unscoped includes archived, soft deleted records in the current query.
func (db *DB) Unscoped() *DB { return &DB{db: db.db.Unscoped()} }

// Where applies the query fragment, clause expression or subquery to the current query
// as a WHERE or AND clause.
//
// Where supports one or none args.
// If more than one arg is passed, finisher methods will return ErrNotValid.
func (db *DB) Where(query any, args ...any) *DB {
	q, args, err := conditionArgs("Where", query, args...)
	if err != nil {
		return db.AddError(err)
	}

	return &DB{db: db.db.Where(q, args...)}
}

// **************************************************************************
// TRANSACTION METHODS
//
// These methods control database transactions.
// **************************************************************************

// Begin initializes a database transaction.
func (db *DB) Begin(opts ...*sql.TxOptions) *DB {
	return &DB{db: db.db.Begin(opts...)}
}

// Commit completes the current transaction,
// applying any state changes and making them visible to other database connections.
func (db *DB) Commit() error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Commit().Error; err != nil {
		return fmt.Errorf("%w: failed committing tx: %s", querykit.ErrUnexpected, err)
	}

	return nil
}

// Rollback reverts the current transaction.
// If no transaction is open, Rollback returns an error.
func (db *DB) Rollback() error {
	if err := db.db.Rollback().Error; err != nil {
		return fmt.Errorf("%w: failed rolling back tx: %s", querykit.ErrUnexpected, err)
	}

	return nil
}

// **************************************************************************
// HELPERS
//
// **************************************************************************

// conditionArgs validates and unwraps the arguments to Where, Or and Not.
func conditionArgs(method string, query any, args ...any) (any, []any, error) {
	if len(args) > 1 {
		return nil, nil, fmt.Errorf("%w: %s supports one or none args", querykit.ErrNotValid, method)
	}

	args, err := unwrap(args...)
	if err != nil && !errors.Is(err, errNilArg) {
		return nil, nil, err
	}

	q, err := unwrap(query)
	if err != nil {
		return nil, nil, err
	}

	return q[0], args, nil
}

// unwrap converts any custom types that are troublesome for GORM into types it can handle.
// unwrap ought to be applied to parameters of any type.
//
// Notably, if a *DB is passed as a parameter,
// and that *DB is in an error state, that fact is surfaced.
// This enables a *DB method to return early and prevent partial queries from running.
func unwrap(args ...any) ([]any, error) {
	var err error
	res := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *DB:
			gdb := v.DB()
			if gdb.Error != nil {
				err = errors.Join(err, gdb.Error)
			}
			res[i] = gdb

		case Updates:
			res[i] = map[string]any(v)

		case nil:
			res[i] = arg
			err = errors.Join(err, querykit.ErrNotValid, errNilArg)

		default:
			res[i] = arg
		}
	}

	return res, err
}

// wrap passes through errors recorded while building the query
// and translates those coming from the database.
func wrap(err error) error {
	if err == nil || isSentinel(err) {
		return err
	}

	return translate(err)
}
