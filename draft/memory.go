package draft

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore. A nil now uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{drafts: make(map[string]*Draft), now: now}
}

func (s *MemoryStore) Create(ctx context.Context, userID string, step Step) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateCreate(userID, step); err != nil {
		return nil, err
	}

	now := s.now()
	d := &Draft{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      StatusDraft,
		CreatedAt:   now,
		LastSavedAt: now,
	}
	step.Apply(d)

	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, step Step) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if step.Empty() {
		return nil, ErrEmptyStep
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status == StatusActive {
		return nil, ErrDraftFinalized
	}
	step.Apply(d)
	d.LastSavedAt = s.now()
	return d.Clone(), nil
}

func (s *MemoryStore) Finalize(ctx context.Context, id string) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status == StatusActive {
		return d.Clone(), nil
	}
	if !d.Complete() {
		return nil, ErrIncompleteDraft
	}
	d.Status = StatusActive
	d.LastSavedAt = s.now()
	return d.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*Draft, 0)
	for _, d := range s.drafts {
		if d.UserID == userID {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()

	SortBySaved(out)
	return out, nil
}

// SortBySaved orders drafts most recently saved first, breaking ties by id.
func SortBySaved(drafts []*Draft) {
	sort.SliceStable(drafts, func(i, j int) bool {
		if !drafts[i].LastSavedAt.Equal(drafts[j].LastSavedAt) {
			return drafts[i].LastSavedAt.After(drafts[j].LastSavedAt)
		}
		return drafts[i].ID < drafts[j].ID
	})
}
