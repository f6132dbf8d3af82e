package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxFingerprintLength is the maximum allowed length for a fingerprint.
const MaxFingerprintLength = 128

// Sentinel errors for cache operations.
var (
	ErrNilStore    = errors.New("cache: store is nil")
	ErrNotFound    = errors.New("cache: entry not found")
	ErrInvalidKey  = errors.New("cache: key is invalid")
	ErrKeyTooLong  = errors.New("cache: fingerprint exceeds max length")
	ErrInvalidRate = errors.New("cache: score out of range")
	ErrEmptyEntry  = errors.New("cache: entry content is empty")
	ErrNoExpiry    = errors.New("cache: entry expiry is not set")
)

// MinScore and MaxScore bound the quality rating accepted by Rate.
const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Key identifies one cache slot. The tuple is unique per store.
type Key struct {
	UserID      string
	PhaseID     int
	Kind        string
	Fingerprint string
}

// String renders the key as user:phase:kind:fingerprint.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", k.UserID, k.PhaseID, k.Kind, k.Fingerprint)
}

// Validate checks if a key is usable for lookups and writes.
func (k Key) Validate() error {
	if strings.TrimSpace(k.UserID) == "" || strings.TrimSpace(k.Kind) == "" {
		return ErrInvalidKey
	}
	if strings.TrimSpace(k.Fingerprint) == "" {
		return ErrInvalidKey
	}
	if len(k.Fingerprint) > MaxFingerprintLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(k.Fingerprint, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Entry is one reusable generation result.
type Entry struct {
	ID           string
	UserID       string
	PhaseID      int
	Kind         string
	Fingerprint  string
	Content      string
	UsageCount   int
	SuccessScore *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// Key returns the unique tuple of the entry.
func (e *Entry) Key() Key {
	return Key{
		UserID:      e.UserID,
		PhaseID:     e.PhaseID,
		Kind:        e.Kind,
		Fingerprint: e.Fingerprint,
	}
}

// Expired reports whether the entry is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Clone returns a copy that does not share the score pointer.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.SuccessScore != nil {
		s := *e.SuccessScore
		c.SuccessScore = &s
	}
	return &c
}

// Store persists cache entries.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Lookup returns ErrNotFound on miss and never returns expired entries.
//     On hit it increments the usage count and returns the incremented entry.
//     Increments are not serialized across concurrent hits.
//   - Write upserts by Key: an existing row has its content, metadata and
//     expiry replaced and its usage count reset to 1.
//   - PurgeExpired is idempotent and safe to run concurrently.
type Store interface {
	Lookup(ctx context.Context, key Key) (*Entry, error)
	Write(ctx context.Context, entry *Entry) error
	Rate(ctx context.Context, entryID string, score float64) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// ValidateEntry checks an entry before it is written.
func ValidateEntry(e *Entry) error {
	if e == nil {
		return ErrEmptyEntry
	}
	if err := e.Key().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Content) == "" {
		return ErrEmptyEntry
	}
	if e.ExpiresAt.IsZero() {
		return ErrNoExpiry
	}
	return nil
}

// ValidateScore checks a rating score.
func ValidateScore(score float64) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: %.2f not in [%.0f, %.0f]", ErrInvalidRate, score, MinScore, MaxScore)
	}
	return nil
}
