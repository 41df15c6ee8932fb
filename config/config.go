package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xy-planning-network/querykit"
	"github.com/xy-planning-network/querykit/database"
	"github.com/xy-planning-network/querykit/logger"
)

const (
	// Environment defaults
	EnvironmentEnvVar  = "ENVIRONMENT"
	defaultEnvironment = querykit.Development

	// Log defaults
	LogLevelEnvVar  = "LOG_LEVEL"
	defaultLogLvl   = logger.LogLevelInfo
	SentryDsnEnvVar = "SENTRY_DSN"

	// Database defaults
	DBDialectEnvVar      = "DATABASE_DIALECT"
	defaultDBDialect     = database.DialectMySQL
	DBHostEnvVar         = "DATABASE_HOST"
	defaultDBHost        = "localhost"
	DBNameEnvVar         = "DATABASE_NAME"
	DBPassEnvVar         = "DATABASE_PASSWORD"
	DBPortEnvVar         = "DATABASE_PORT"
	DBSSLModeEnvVar      = "DATABASE_SSLMODE"
	DBURLEnvVar          = "DATABASE_URL"
	DBUserEnvVar         = "DATABASE_USER"
	DBMaxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultDBMaxIdleCxns = 1

	// Test defaults
	DBTestHostEnvVar    = "DATABASE_TEST_HOST"
	DBTestNameEnvVar    = "DATABASE_TEST_NAME"
	DBTestPassEnvVar    = "DATABASE_TEST_PASSWORD"
	DBTestPortEnvVar    = "DATABASE_TEST_PORT"
	DBTestSSLModeEnvVar = "DATABASE_TEST_SSLMODE"
	DBTestURLEnvVar     = "DATABASE_TEST_URL"
	DBTestUserEnvVar    = "DATABASE_TEST_USER"
)

var defaultDBPorts = map[string]string{
	database.DialectMySQL:    "3306",
	database.DialectPostgres: "5432",
}

// Load reads the .env files at paths into the environment,
// defaulting to ".env" in the working directory.
//
// Missing files are skipped; variables already set are never overwritten.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		err := godotenv.Load(p)
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			continue
		}

		if err != nil {
			return fmt.Errorf("%w: failed loading %s: %s", querykit.ErrBadConfig, p, err)
		}
	}

	return nil
}

// Environment reads ENVIRONMENT, falling back to DEVELOPMENT.
func Environment() querykit.Environment {
	return querykit.EnvVarOrEnv(EnvironmentEnvVar, defaultEnvironment)
}

// NewDatabaseConfig constructs a *database.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
//
// In the TESTING environment, the DATABASE_TEST env vars are read instead
// and the connection is flagged as a test database.
func NewDatabaseConfig(env querykit.Environment) *database.CxnConfig {
	dialect := strings.ToLower(querykit.EnvVarOrString(DBDialectEnvVar, defaultDBDialect))
	port := defaultDBPorts[dialect]

	var cfg *database.CxnConfig
	switch {
	case env.IsTesting():
		cfg = &database.CxnConfig{
			IsTestDB: true,
			URL:      os.Getenv(DBTestURLEnvVar),
			Host:     querykit.EnvVarOrString(DBTestHostEnvVar, defaultDBHost),
			Port:     querykit.EnvVarOrString(DBTestPortEnvVar, port),
			Name:     os.Getenv(DBTestNameEnvVar),
			User:     os.Getenv(DBTestUserEnvVar),
			Password: os.Getenv(DBTestPassEnvVar),
			SSLMode:  os.Getenv(DBTestSSLModeEnvVar),
		}

	case os.Getenv(DBURLEnvVar) == "":
		cfg = &database.CxnConfig{
			Host:     querykit.EnvVarOrString(DBHostEnvVar, defaultDBHost),
			Port:     querykit.EnvVarOrString(DBPortEnvVar, port),
			Name:     os.Getenv(DBNameEnvVar),
			User:     os.Getenv(DBUserEnvVar),
			Password: os.Getenv(DBPassEnvVar),
			SSLMode:  os.Getenv(DBSSLModeEnvVar),
		}

	default:
		cfg = &database.CxnConfig{URL: os.Getenv(DBURLEnvVar)}
	}

	cfg.Dialect = dialect
	cfg.MaxIdleCxns = querykit.EnvVarOrInt(DBMaxIdleCxnsEnvVar, defaultDBMaxIdleCxns)

	return cfg
}

// NewLogger constructs a logger.Logger writing to w at the level LOG_LEVEL names.
// When SENTRY_DSN is set, errors and warnings are shipped to Sentry as well.
func NewLogger(env querykit.Environment, w io.Writer) logger.Logger {
	if w == nil {
		w = os.Stdout
	}

	tl := logger.NewLogger(
		logger.WithEnv(env.String()),
		logger.WithLevel(querykit.EnvVarOrLogLevel(LogLevelEnvVar, defaultLogLvl)),
		logger.WithWriter(w),
	)
	tl.Debug("setting up logger", nil)

	if dsn := os.Getenv(SentryDsnEnvVar); dsn != "" {
		l := logger.NewSentryLogger(tl, dsn)
		l.Debug("using SentryLogger", nil)
		return l
	}

	return tl
}

// Open connects to the database the environment configures and runs migrations,
// logging to os.Stdout.
func Open(env querykit.Environment, migrations []database.Migration) (*database.DB, error) {
	l := NewLogger(env, os.Stdout)
	db, err := database.Connect(NewDatabaseConfig(env), migrations, l, env)
	if err != nil {
		l.Error("failed connecting to database", &logger.LogContext{Error: err})
		return nil, err
	}

	return db, nil
}
