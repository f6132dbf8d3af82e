// Package store implements the cache and draft stores on a relational
// database.
//
// Two dialects are supported through database/sql: SQLite (modernc.org/sqlite,
// the default and the test backend) and Postgres (pgx stdlib driver). Queries
// are written once with ? placeholders and rebound for Postgres.
//
// Timestamps are stored as Unix milliseconds. The unique constraint on the
// cache tuple is enforced by the database; a duplicate-key error on insert
// turns into an update.
package store
