package database

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xy-planning-network/querykit"
)

// MySQL server error numbers.
//
// Cf., https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlBadNull         = 1048
	mysqlBadField        = 1054
	mysqlDupEntry        = 1062
	mysqlParseError      = 1064
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlFTMatchingKey   = 1191
)

// PostgreSQL error codes.
//
// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgNotNullViolation = "23502"
	pgFKViolation      = "23503"
	pgUniqueViolation  = "23505"
	pgInvalidText      = "22P02"
	pgSyntaxError      = "42601"
	pgUndefinedColumn  = "42703"
)

var (
	// These errors originate from the std lib database/sql package.
	//
	// Cf., https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=3395;drc=3dbef65bf37f1b7ccd1f884761341a5a15456ffa
	errSQLScan          = regexp.MustCompile(`sql: expected \d+ destination arguments in Scan, not \d+`)
	errSQLUnaddressable = regexp.MustCompile(`sql: Scan error on column index \d+, name "\w+": destination not a pointer`)

	// SQLite reports constraint and syntax issues in text only.
	errSQLiteUniq   = regexp.MustCompile(`UNIQUE constraint failed`)
	errSQLiteFK     = regexp.MustCompile(`FOREIGN KEY constraint failed`)
	errSQLiteSyntax = regexp.MustCompile(`(syntax error|no such column|NOT NULL constraint failed)`)

	// errNilArg marks a nil passed where a query argument was expected.
	errNilArg = errors.New("nil arg")
)

// translate converts an error returned by a database driver into one wrapping a querykit sentinel error.
//
// Unique violations are ErrExists; foreign key, not null, and syntax issues are ErrNotValid;
// scan issues are ErrUnaddressable; everything else is ErrUnexpected.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var (
		myErr *mysql.MySQLError
		pgErr *pgconn.PgError
	)
	switch {
	case errors.As(err, &myErr):
		switch myErr.Number {
		case mysqlDupEntry:
			return fmt.Errorf("%w: %s", querykit.ErrExists, err)

		case mysqlBadNull, mysqlBadField, mysqlParseError, mysqlRowIsReferenced, mysqlNoReferencedRow, mysqlFTMatchingKey:
			return fmt.Errorf("%w: %s", querykit.ErrNotValid, err)
		}

	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", querykit.ErrExists, err)

		case pgNotNullViolation, pgFKViolation, pgInvalidText, pgSyntaxError, pgUndefinedColumn:
			return fmt.Errorf("%w: %s", querykit.ErrNotValid, err)
		}

	case errSQLiteUniq.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", querykit.ErrExists, err)

	case errSQLiteFK.MatchString(err.Error()), errSQLiteSyntax.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", querykit.ErrNotValid, err)

	case errSQLUnaddressable.MatchString(err.Error()), errSQLScan.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", querykit.ErrUnaddressable, err)
	}

	return fmt.Errorf("%w: %s", querykit.ErrUnexpected, err)
}

// isSentinel asserts whether err already wraps a querykit sentinel error,
// as errors added while building a query do.
func isSentinel(err error) bool {
	for _, target := range []error{
		querykit.ErrBadConfig,
		querykit.ErrExists,
		querykit.ErrMissingData,
		querykit.ErrNotExist,
		querykit.ErrNotFound,
		querykit.ErrNotImplemented,
		querykit.ErrNotValid,
		querykit.ErrUnaddressable,
		querykit.ErrUnexpected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
