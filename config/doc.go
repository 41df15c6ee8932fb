/*
Package config bootstraps querykit's ambient dependencies from the environment.

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from
and read with [Load].

Here are the available environment variables.
  - ENVIRONMENT: the environment the application is running in; cf. [querykit.Environment]
  - LOG_LEVEL: the lowest level logs are written at; DEBUG, INFO, WARN, ERROR or FATAL
  - SENTRY_DSN: when set, warnings and errors are sent to Sentry
  - DATABASE_DIALECT: mysql, postgres or sqlite; defaults to mysql
  - DATABASE_URL: a full DSN; takes precedence over the following DATABASE variables
  - DATABASE_HOST: defaults to localhost
  - DATABASE_PORT: defaults to 3306 for mysql and 5432 for postgres
  - DATABASE_NAME: the database name, or the file path for sqlite
  - DATABASE_USER
  - DATABASE_PASSWORD
  - DATABASE_SSLMODE
  - DATABASE_MAX_IDLE_CXNS: defaults to 1

In the TESTING environment, DATABASE_TEST_URL, DATABASE_TEST_HOST, DATABASE_TEST_PORT,
DATABASE_TEST_NAME, DATABASE_TEST_USER, DATABASE_TEST_PASSWORD and DATABASE_TEST_SSLMODE
are read in place of their DATABASE counterparts,
and every table is dropped before migrations run.
*/
package config
