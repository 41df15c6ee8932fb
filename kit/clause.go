package kit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xy-planning-network/querykit"
)

// identifierRegex matches a column name, optionally qualified by its table.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// operators lists the comparison operators a Filter may use.
var operators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	">":        true,
	"<=":       true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
	"IN":       true,
	"NOT IN":   true,
}

// A ClauseType names the kind of predicate a Filter adds to a query.
type ClauseType string

const (
	ClauseWhere        ClauseType = "where"
	ClauseOrWhere      ClauseType = "orWhere"
	ClauseWhereNot     ClauseType = "whereNot"
	ClauseWhereIn      ClauseType = "whereIn"
	ClauseWhereNotIn   ClauseType = "whereNotIn"
	ClauseWhereNull    ClauseType = "whereNull"
	ClauseWhereNotNull ClauseType = "whereNotNull"
)

// String stringifies c.
//
// String implements fmt.Stringer.
func (c ClauseType) String() string { return string(c) }

// Valid asserts c is a known ClauseType.
//
// Valid implements querykit.Enumerable.
func (c ClauseType) Valid() error {
	switch c {
	case ClauseWhere,
		ClauseOrWhere,
		ClauseWhereNot,
		ClauseWhereIn,
		ClauseWhereNotIn,
		ClauseWhereNull,
		ClauseWhereNotNull:
		return nil
	default:
		return fmt.Errorf("%w: ClauseType %q", querykit.ErrNotValid, c)
	}
}

// A Filter configures how a request parameter becomes a predicate on the column of the same name.
//
// The zero value is an equality predicate: column = value.
type Filter struct {
	// Clause picks the predicate.
	// Empty means ClauseWhere.
	Clause ClauseType

	// Operator compares the column to the value, e.g., >= or LIKE.
	// Empty means = or, for ClauseWhereIn and ClauseWhereNotIn, membership.
	Operator string

	// Template shapes the value before it is bound.
	// Every {column} in Template is replaced by the parameter's value,
	// e.g., %{name}% becomes %bob% when name is bob.
	Template string
}

// clause returns the ClauseType f applies.
func (f Filter) clause() ClauseType {
	if f.Clause == "" {
		return ClauseWhere
	}

	return f.Clause
}

// operator returns the normalized Operator f applies.
func (f Filter) operator() string {
	return strings.Join(strings.Fields(strings.ToUpper(f.Operator)), " ")
}

func (f Filter) valid() error {
	if err := f.clause().Valid(); err != nil {
		return err
	}

	if op := f.operator(); op != "" && !operators[op] {
		return fmt.Errorf("%w: operator %q", querykit.ErrNotValid, f.Operator)
	}

	return nil
}

// Filterable maps request parameter names to the Filter applied when that parameter is present.
// Each name is the column filtered.
type Filterable map[string]Filter

// FilterableColumns constructs a Filterable where each column is filtered by equality.
func FilterableColumns(cols ...string) Filterable {
	f := make(Filterable, len(cols))
	for _, col := range cols {
		f[col] = Filter{}
	}

	return f
}

// valid asserts every entry in f names a column and holds a valid Filter.
func (f Filterable) valid() error {
	for name, filter := range f {
		if err := validIdentifier(name); err != nil {
			return fmt.Errorf("%w: invalid filterable: %s", querykit.ErrNotValid, err)
		}

		if err := filter.valid(); err != nil {
			return fmt.Errorf("%w: invalid filterable %s: %s", querykit.ErrNotValid, name, err)
		}
	}

	return nil
}

// A SearchMode picks how a full-text search interprets its term.
type SearchMode string

const (
	// SearchNatural treats the term as natural language.
	SearchNatural SearchMode = "natural"

	// SearchBoolean honors operators in the term, e.g., +required -excluded.
	SearchBoolean SearchMode = "boolean"

	// SearchExpansion widens the search with words relevant to the best matches.
	// Only MySQL supports it.
	SearchExpansion SearchMode = "expansion"
)

// String stringifies m.
//
// String implements fmt.Stringer.
func (m SearchMode) String() string { return string(m) }

// Valid asserts m is a known SearchMode.
//
// Valid implements querykit.Enumerable.
func (m SearchMode) Valid() error {
	switch m {
	case SearchNatural, SearchBoolean, SearchExpansion:
		return nil
	default:
		return fmt.Errorf("%w: SearchMode %q", querykit.ErrNotValid, m)
	}
}

// validIdentifier asserts name can be used as a column name.
func validIdentifier(name string) error {
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%w: identifier %q", querykit.ErrNotValid, name)
	}

	return nil
}

// validIdentifiers asserts every name can be used as a column name.
func validIdentifiers(names []string) error {
	for _, name := range names {
		if err := validIdentifier(name); err != nil {
			return err
		}
	}

	return nil
}
