package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config configures Open.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string

	// DSN is a file path or ":memory:" for SQLite, a connection URL for
	// Postgres.
	DSN string

	// MaxOpenConns bounds the pool. Ignored for in-memory SQLite, which
	// needs a single connection.
	MaxOpenConns int

	// BusyTimeout is the SQLite lock wait. Default: 10s.
	BusyTimeout time.Duration
}

// DB is a database handle that knows its placeholder dialect.
type DB struct {
	sql      *sql.DB
	postgres bool
}

// Open connects, applies SQLite pragmas, and verifies the connection.
// Call Migrate to create the schema.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrEmptyDSN
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 10 * time.Second
	}

	var driver string
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		driver = "sqlite"
	case DriverPostgres, "pgx":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db := &DB{sql: sqlDB, postgres: driver == "pgx"}

	if !db.postgres && isMemoryDSN(cfg.DSN) {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if !db.postgres {
		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = " + strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10),
			"PRAGMA synchronous = NORMAL",
		}
		for _, p := range pragmas {
			if _, err := sqlDB.ExecContext(ctx, p); err != nil {
				sqlDB.Close()
				return nil, fmt.Errorf("store: %s: %w", p, err)
			}
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cache_entries (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		phase_id      INTEGER NOT NULL,
		kind          TEXT NOT NULL,
		fingerprint   TEXT NOT NULL,
		content       TEXT NOT NULL,
		usage_count   INTEGER NOT NULL DEFAULT 1,
		success_score DOUBLE PRECISION,
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL,
		expires_at    BIGINT NOT NULL,
		UNIQUE (user_id, phase_id, kind, fingerprint)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		status        TEXT NOT NULL,
		syllabus      TEXT NOT NULL DEFAULT '',
		metadata      TEXT NOT NULL DEFAULT '',
		prompt        TEXT NOT NULL DEFAULT '',
		created_at    BIGINT NOT NULL,
		last_saved_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_user ON drafts (user_id, last_saved_at)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Ping verifies the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// Dialect returns "postgres" or "sqlite".
func (db *DB) Dialect() string {
	if db.postgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// rebind rewrites ? placeholders to $n for Postgres.
func (db *DB) rebind(query string) string {
	if !db.postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sql.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.sql.QueryRowContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, db.rebind(query), args...)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
