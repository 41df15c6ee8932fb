/*
Package database manages the database connection and wraps GORM in [*DB],
a query builder whose finisher methods return the sentinel errors declared in querykit.

Connect supports MySQL, PostgreSQL and SQLite.
As part of the connection process, Connect ensures all migrations have been run on the database.
The situation where the database is simply a target for some testing has been
considered as well: with CxnConfig.IsTestDB set, every table is dropped first.

Query building methods record errors on the query instead of returning them;
the finisher method that executes the query returns them.
A [Scope] can do the same through [*DB.AddError].
*/
package database
