package kit

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"gorm.io/gorm/clause"
)

// Filter narrows the query by params, according to the Kit's Filterable.
//
// Parameters the Filterable does not name are skipped.
// The rest apply in order of their names, each as configured by its Filter.
// Column names are quoted and values bound; neither is ever interpolated.
//
// If the Filterable is empty, the query fails with ErrMissingData.
// If any of its entries is invalid, the query fails with ErrNotValid.
func (k *Kit) Filter(params Params) database.Scope {
	return func(db *database.DB) *database.DB {
		if len(k.filterable) == 0 {
			return db.AddError(fmt.Errorf("%w: empty filterable", querykit.ErrMissingData))
		}

		if err := k.filterable.valid(); err != nil {
			return db.AddError(err)
		}

		names := make([]string, 0, len(params))
		for name := range params {
			if _, ok := k.filterable[name]; ok {
				names = append(names, name)
			}
		}
		slices.Sort(names)

		for _, name := range names {
			db = applyFilter(db, name, k.filterable[name], params[name])
		}

		return db
	}
}

// applyFilter adds the predicate f builds for column and val to db.
func applyFilter(db *database.DB, column string, f Filter, val any) *database.DB {
	col := clause.Column{Name: column}
	if f.membership() {
		val = list(val)
	}

	if f.Template != "" {
		val = applyTemplate(f.Template, column, val)
	}

	switch f.clause() {
	case ClauseWhereNull:
		return db.Where(clause.Eq{Column: col, Value: nil})

	case ClauseWhereNotNull:
		return db.Where(clause.Neq{Column: col, Value: nil})

	case ClauseWhereIn:
		if op := f.operator(); op != "" {
			return db.Where(compare(col, op, val))
		}

		return db.Where(clause.IN{Column: col, Values: list(val)})

	case ClauseWhereNotIn:
		if op := f.operator(); op != "" {
			return db.Not(compare(col, op, val))
		}

		values := list(val)
		if len(values) == 0 {
			return db
		}

		return db.Not(clause.IN{Column: col, Values: values})

	case ClauseOrWhere:
		return db.Or(compare(col, f.operator(), val))

	case ClauseWhereNot:
		return db.Not(compare(col, f.operator(), val))

	default:
		return db.Where(compare(col, f.operator(), val))
	}
}

// membership asserts whether f tests val against a list of values.
func (f Filter) membership() bool {
	switch op := f.operator(); op {
	case "IN", "NOT IN":
		return true
	case "":
		return f.clause() == ClauseWhereIn || f.clause() == ClauseWhereNotIn
	default:
		return false
	}
}

// compare builds the expression comparing col to val with op.
// An empty op compares by equality.
func compare(col clause.Column, op string, val any) clause.Expression {
	switch op {
	case "!=", "<>":
		return clause.Neq{Column: col, Value: val}
	case "<":
		return clause.Lt{Column: col, Value: val}
	case ">":
		return clause.Gt{Column: col, Value: val}
	case "<=":
		return clause.Lte{Column: col, Value: val}
	case ">=":
		return clause.Gte{Column: col, Value: val}
	case "LIKE":
		return clause.Like{Column: col, Value: val}
	case "NOT LIKE":
		return clause.Not(clause.Like{Column: col, Value: val})
	case "IN":
		return clause.IN{Column: col, Values: list(val)}
	case "NOT IN":
		return clause.Not(clause.IN{Column: col, Values: list(val)})
	default:
		return clause.Eq{Column: col, Value: val}
	}
}

// applyTemplate replaces every {column} in tmpl with val.
// Lists have the template applied to each of their elements.
func applyTemplate(tmpl, column string, val any) any {
	placeholder := "{" + column + "}"
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return strings.ReplaceAll(tmpl, placeholder, fmt.Sprint(val))
	}

	vals := make([]any, rv.Len())
	for i := range rv.Len() {
		vals[i] = strings.ReplaceAll(tmpl, placeholder, fmt.Sprint(rv.Index(i).Interface()))
	}

	return vals
}

// list converts val into the values of a membership predicate.
// val may be a slice, an array or a comma-separated string.
func list(val any) []any {
	if s, ok := val.(string); ok {
		var vals []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				vals = append(vals, part)
			}
		}

		return vals
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{val}
	}

	vals := make([]any, rv.Len())
	for i := range rv.Len() {
		vals[i] = rv.Index(i).Interface()
	}

	return vals
}
