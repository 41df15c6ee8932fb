package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Dialects Connect supports.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const pgCxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// CxnConfig holds connection information used to connect to a database.
type CxnConfig struct {
	// Dialect is one of mysql, postgres or sqlite.
	// Defaults to mysql.
	Dialect string

	IsTestDB    bool
	MaxIdleCxns int
	URL         string
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
}

// Connect creates a database connection through GORM according to the connection config and runs all migrations.
//
// GORM's own logging is forwarded to l.
func Connect(config *CxnConfig, migrations []Migration, l logger.Logger, env querykit.Environment) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil *CxnConfig", querykit.ErrBadConfig)
	}

	dialector, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	if l == nil {
		l = logger.NewLogger(logger.WithEnv(env.String()))
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGORMLogger(l, env),
		NamingStrategy: schema.NamingStrategy{
			NameReplacer: strings.NewReplacer("Table", ""),
		},
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed opening %s connection: %s", querykit.ErrBadConfig, config.Dialect, err)
	}

	if config.MaxIdleCxns > 0 {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", querykit.ErrUnexpected, err)
		}

		sqlDB.SetMaxIdleConns(config.MaxIdleCxns)
	}

	db := NewDB(gdb)
	if config.IsTestDB {
		if err := DropAll(db); err != nil {
			return nil, err
		}
	}

	if err := MigrateUp(db, migrations); err != nil {
		return nil, err
	}

	return db, nil
}

// dialectorFor picks the GORM driver matching config.Dialect.
func dialectorFor(config *CxnConfig) (gorm.Dialector, error) {
	switch strings.ToLower(config.Dialect) {
	case "", DialectMySQL:
		config.Dialect = DialectMySQL
		return mysql.Open(buildMySQLDSN(config)), nil

	case DialectPostgres, "postgresql":
		config.Dialect = DialectPostgres
		return postgres.Open(buildPGCxnStr(config)), nil

	case DialectSQLite:
		config.Dialect = DialectSQLite
		dsn := config.URL
		if dsn == "" {
			dsn = config.Name
		}

		if dsn == "" {
			return nil, fmt.Errorf("%w: sqlite requires a URL or Name", querykit.ErrBadConfig)
		}

		return sqlite.Open(dsn), nil

	default:
		return nil, fmt.Errorf("%w: unknown dialect %q", querykit.ErrBadConfig, config.Dialect)
	}
}

func buildMySQLDSN(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	port := config.Port
	if port == "" {
		port = "3306"
	}

	cfg := gomysql.NewConfig()
	cfg.User = config.User
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = config.Host + ":" + port
	cfg.DBName = config.Name
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if config.SSLMode != "" && config.SSLMode != "disable" {
		cfg.TLSConfig = "preferred"
	}

	return cfg.FormatDSN()
}

func buildPGCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	if config.SSLMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		config.SSLMode = "prefer"
	}

	return fmt.Sprintf(
		pgCxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		config.SSLMode,
	)
}

// DropAll drops every table in the database db is connected to.
func DropAll(db *DB) error {
	tables, err := db.db.Migrator().GetTables()
	if err != nil {
		return fmt.Errorf("%w: failed listing tables: %s", querykit.ErrUnexpected, err)
	}

	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue
		}

		if err := db.db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("%w: failed dropping %s: %s", querykit.ErrUnexpected, table, err)
		}
	}

	return nil
}

// WipeDB queries for all of the tables and then deletes the data in those tables,
// leaving the migrations table intact.
func WipeDB(db *DB) error {
	tables, err := db.db.Migrator().GetTables()
	if err != nil {
		return fmt.Errorf("%w: failed listing tables: %s", querykit.ErrUnexpected, err)
	}

	for _, table := range tables {
		if table == migrationsTable || strings.HasPrefix(table, "sqlite_") {
			continue
		}

		if err := db.db.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
			return fmt.Errorf("%w: failed wiping %s: %s", querykit.ErrUnexpected, table, err)
		}
	}

	return nil
}
