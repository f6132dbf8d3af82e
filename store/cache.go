package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
)

// CacheRepo is a cache.Store backed by the cache_entries table.
type CacheRepo struct {
	db  *DB
	now func() time.Time
}

var _ cache.Store = (*CacheRepo)(nil)

// NewCacheRepo creates a CacheRepo. A nil now uses time.Now.
func NewCacheRepo(db *DB, now func() time.Time) (*CacheRepo, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if now == nil {
		now = time.Now
	}
	return &CacheRepo{db: db, now: now}, nil
}

const cacheColumns = `id, user_id, phase_id, kind, fingerprint, content, usage_count, success_score, created_at, updated_at, expires_at`

// Lookup increments and returns the live entry for key.
func (r *CacheRepo) Lookup(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	now := toMillis(r.now())

	row := r.db.queryRow(ctx, `UPDATE cache_entries
		SET usage_count = usage_count + 1, updated_at = ?
		WHERE user_id = ? AND phase_id = ? AND kind = ? AND fingerprint = ? AND expires_at > ?
		RETURNING `+cacheColumns,
		now, key.UserID, key.PhaseID, key.Kind, key.Fingerprint, now)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: cache lookup: %w", err)
	}
	return e, nil
}

// Write inserts the entry, or updates the existing row for its key.
func (r *CacheRepo) Write(ctx context.Context, e *cache.Entry) error {
	if err := cache.ValidateEntry(e); err != nil {
		return err
	}
	now := r.now()
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.exec(ctx, `INSERT INTO cache_entries
		(`+cacheColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 1, NULL, ?, ?, ?)`,
		id, e.UserID, e.PhaseID, e.Kind, e.Fingerprint, e.Content,
		toMillis(now), toMillis(now), toMillis(e.ExpiresAt))
	if err == nil {
		e.ID = id
		e.UsageCount = 1
		e.SuccessScore = nil
		e.CreatedAt = fromMillis(toMillis(now))
		e.UpdatedAt = e.CreatedAt
		return nil
	}
	if !IsDuplicate(err) {
		return fmt.Errorf("store: cache insert: %w", err)
	}

	row := r.db.queryRow(ctx, `UPDATE cache_entries
		SET content = ?, usage_count = 1, success_score = NULL, updated_at = ?, expires_at = ?
		WHERE user_id = ? AND phase_id = ? AND kind = ? AND fingerprint = ?
		RETURNING `+cacheColumns,
		e.Content, toMillis(now), toMillis(e.ExpiresAt),
		e.UserID, e.PhaseID, e.Kind, e.Fingerprint)
	stored, err := scanEntry(row)
	if err != nil {
		return fmt.Errorf("store: cache update: %w", err)
	}
	*e = *stored
	return nil
}

// Rate records a quality score.
func (r *CacheRepo) Rate(ctx context.Context, entryID string, score float64) error {
	if err := cache.ValidateScore(score); err != nil {
		return err
	}
	res, err := r.db.exec(ctx, `UPDATE cache_entries SET success_score = ?, updated_at = ? WHERE id = ?`,
		score, toMillis(r.now()), entryID)
	if err != nil {
		return fmt.Errorf("store: cache rate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cache.ErrNotFound
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (r *CacheRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, toMillis(r.now()))
	if err != nil {
		return 0, fmt.Errorf("store: cache purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: cache purge: %w", err)
	}
	return n, nil
}

// Count returns the number of stored rows, expired ones included.
func (r *CacheRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: cache count: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*cache.Entry, error) {
	var (
		e                         cache.Entry
		score                     sql.NullFloat64
		created, updated, expires int64
	)
	err := row.Scan(&e.ID, &e.UserID, &e.PhaseID, &e.Kind, &e.Fingerprint, &e.Content,
		&e.UsageCount, &score, &created, &updated, &expires)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		s := score.Float64
		e.SuccessScore = &s
	}
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	e.ExpiresAt = fromMillis(expires)
	return &e, nil
}
