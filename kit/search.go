package kit

import (
	"fmt"
	"strings"

	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
)

// MySQL full-text search modifiers.
//
// Cf., https://dev.mysql.com/doc/refman/8.0/en/fulltext-search.html
var mysqlSearchModifiers = map[SearchMode]string{
	SearchNatural:   "",
	SearchBoolean:   " IN BOOLEAN MODE",
	SearchExpansion: " WITH QUERY EXPANSION",
}

// PostgreSQL text search parsers.
//
// Cf., https://www.postgresql.org/docs/current/textsearch-controls.html
var pgSearchQueries = map[SearchMode]string{
	SearchNatural: "plainto_tsquery",
	SearchBoolean: "websearch_to_tsquery",
}

// Search narrows the query to rows whose searchable columns match term in full-text.
// A blank term leaves the query as is.
//
// On MySQL, the searchable columns need a FULLTEXT index covering them together.
// On PostgreSQL, the columns are parsed with the simple text search configuration.
//
// If the Kit has no searchable columns, the query fails with ErrMissingData.
// If a searchable column is not a column name, the query fails with ErrNotValid.
// Other databases, and SearchExpansion on PostgreSQL, fail with ErrNotImplemented.
func (k *Kit) Search(term string) database.Scope {
	return func(db *database.DB) *database.DB {
		if len(k.searchable) == 0 {
			return db.AddError(fmt.Errorf("%w: no searchable columns", querykit.ErrMissingData))
		}

		if err := validIdentifiers(k.searchable); err != nil {
			return db.AddError(err)
		}

		t := strings.TrimSpace(term)
		if t == "" {
			return db
		}

		cols := make([]string, len(k.searchable))
		for i, col := range k.searchable {
			cols[i] = db.DB().Statement.Quote(col)
		}

		switch db.Dialect() {
		case database.DialectMySQL:
			q := fmt.Sprintf("MATCH (%s) AGAINST (?%s)", strings.Join(cols, ","), mysqlSearchModifiers[k.searchMode])
			return db.Where(q, t)

		case database.DialectPostgres:
			parser, ok := pgSearchQueries[k.searchMode]
			if !ok {
				return db.AddError(fmt.Errorf("%w: %s search on postgres", querykit.ErrNotImplemented, k.searchMode))
			}

			q := fmt.Sprintf(
				"to_tsvector('simple', concat_ws(' ', %s)) @@ %s('simple', ?)",
				strings.Join(cols, ", "),
				parser,
			)
			return db.Where(q, t)

		default:
			return db.AddError(fmt.Errorf("%w: full-text search on %s", querykit.ErrNotImplemented, db.Dialect()))
		}
	}
}
