package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation.
// Expired entries stay in memory until PurgeExpired runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
	byID    map[string]Key
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[Key]*Entry),
		byID:    make(map[string]Key),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the live entry for key and increments its usage count.
func (s *MemoryStore) Lookup(ctx context.Context, key Key) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(s.now()) {
		return nil, ErrNotFound
	}

	entry.UsageCount++
	return entry.Clone(), nil
}

// Write upserts the entry by its key.
func (s *MemoryStore) Write(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateEntry(entry); err != nil {
		return err
	}

	now := s.now()
	key := entry.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.Content = entry.Content
		existing.UsageCount = 1
		existing.SuccessScore = nil
		existing.UpdatedAt = now
		existing.ExpiresAt = entry.ExpiresAt
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		entry.UpdatedAt = now
		entry.UsageCount = 1
		return nil
	}

	stored := entry.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.UsageCount = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.entries[key] = stored
	s.byID[stored.ID] = key

	entry.ID = stored.ID
	entry.UsageCount = 1
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// Rate records a quality score for the entry with the given id.
func (s *MemoryStore) Rate(ctx context.Context, entryID string, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateScore(score); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[entryID]
	if !ok {
		return ErrNotFound
	}
	entry := s.entries[key]
	entry.SuccessScore = &score
	entry.UpdatedAt = s.now()
	return nil
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (s *MemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			delete(s.byID, entry.ID)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored entries, including expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
