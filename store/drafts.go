package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/draft"
)

// DraftRepo is a draft.Store backed by the drafts table. Every method
// auto-commits, so a returned Update is durable.
type DraftRepo struct {
	db  *DB
	now func() time.Time
}

var _ draft.Store = (*DraftRepo)(nil)

// NewDraftRepo creates a DraftRepo. A nil now uses time.Now.
func NewDraftRepo(db *DB, now func() time.Time) (*DraftRepo, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if now == nil {
		now = time.Now
	}
	return &DraftRepo{db: db, now: now}, nil
}

const draftColumns = `id, user_id, status, syllabus, metadata, prompt, created_at, last_saved_at`

func (r *DraftRepo) Create(ctx context.Context, userID string, step draft.Step) (*draft.Draft, error) {
	if err := draft.ValidateCreate(userID, step); err != nil {
		return nil, err
	}
	now := fromMillis(toMillis(r.now()))
	d := &draft.Draft{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      draft.StatusDraft,
		CreatedAt:   now,
		LastSavedAt: now,
	}
	step.Apply(d)

	_, err := r.db.exec(ctx, `INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, string(d.Status), d.Syllabus, d.Metadata, d.Prompt,
		toMillis(d.CreatedAt), toMillis(d.LastSavedAt))
	if err != nil {
		return nil, fmt.Errorf("store: draft insert: %w", err)
	}
	return d, nil
}

func (r *DraftRepo) Update(ctx context.Context, id string, step draft.Step) (*draft.Draft, error) {
	step = step.Normalize()
	if step.Empty() {
		return nil, draft.ErrEmptyStep
	}

	row := r.db.queryRow(ctx, `UPDATE drafts SET
		syllabus = CASE WHEN ? = '' THEN syllabus ELSE ? END,
		metadata = CASE WHEN ? = '' THEN metadata ELSE ? END,
		prompt = CASE WHEN ? = '' THEN prompt ELSE ? END,
		last_saved_at = ?
		WHERE id = ? AND status = ?
		RETURNING `+draftColumns,
		step.Syllabus, step.Syllabus,
		step.Metadata, step.Metadata,
		step.Prompt, step.Prompt,
		toMillis(r.now()), id, string(draft.StatusDraft))

	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == draft.StatusActive {
			return nil, draft.ErrDraftFinalized
		}
		return nil, fmt.Errorf("store: draft update: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("store: draft update: %w", err)
	}
	return d, nil
}

func (r *DraftRepo) Finalize(ctx context.Context, id string) (*draft.Draft, error) {
	row := r.db.queryRow(ctx, `UPDATE drafts SET status = ?, last_saved_at = ?
		WHERE id = ? AND status = ? AND syllabus <> '' AND metadata <> '' AND prompt <> ''
		RETURNING `+draftColumns,
		string(draft.StatusActive), toMillis(r.now()), id, string(draft.StatusDraft))

	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == draft.StatusActive {
			return existing, nil
		}
		return nil, draft.ErrIncompleteDraft
	}
	if err != nil {
		return nil, fmt.Errorf("store: draft finalize: %w", err)
	}
	return d, nil
}

func (r *DraftRepo) Get(ctx context.Context, id string) (*draft.Draft, error) {
	row := r.db.queryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, draft.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: draft get: %w", err)
	}
	return d, nil
}

func (r *DraftRepo) ListByUser(ctx context.Context, userID string) ([]*draft.Draft, error) {
	rows, err := r.db.query(ctx, `SELECT `+draftColumns+` FROM drafts
		WHERE user_id = ? ORDER BY last_saved_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: draft list: %w", err)
	}
	defer rows.Close()

	out := make([]*draft.Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("store: draft list: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: draft list: %w", err)
	}
	return out, nil
}

func scanDraft(row rowScanner) (*draft.Draft, error) {
	var (
		d              draft.Draft
		status         string
		created, saved int64
	)
	if err := row.Scan(&d.ID, &d.UserID, &status, &d.Syllabus, &d.Metadata, &d.Prompt, &created, &saved); err != nil {
		return nil, err
	}
	d.Status = draft.Status(status)
	d.CreatedAt = fromMillis(created)
	d.LastSavedAt = fromMillis(saved)
	return &d, nil
}
