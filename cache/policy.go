package cache

import (
	"strings"
	"time"
)

// Policy configures entry lifetimes.
type Policy struct {
	// ShortTTL is the lifetime of ordinary entries.
	// If zero, caching is disabled.
	ShortTTL time.Duration

	// ExtendedTTL is the lifetime of entries whose interaction kind marks a
	// completed milestone. If zero, ShortTTL is used.
	ExtendedTTL time.Duration

	// MaxTTL clamps both lifetimes. If zero, no maximum is enforced.
	MaxTTL time.Duration

	// CompletedKinds lists interaction kinds that get ExtendedTTL.
	// Matching is case-insensitive.
	CompletedKinds []string

	// SkipKinds lists interaction kinds that are never cached, such as
	// free-form chat whose output depends on the live conversation.
	SkipKinds []string
}

// DefaultCompletedKinds are the interaction kinds treated as completed
// milestones by DefaultPolicy.
var DefaultCompletedKinds = []string{"completed", "assessment_complete"}

// DefaultPolicy returns the default lifetime policy.
// ShortTTL: 24 hours, ExtendedTTL: 30 days, MaxTTL: 90 days.
func DefaultPolicy() Policy {
	return Policy{
		ShortTTL:       24 * time.Hour,
		ExtendedTTL:    30 * 24 * time.Hour,
		MaxTTL:         90 * 24 * time.Hour,
		CompletedKinds: append([]string(nil), DefaultCompletedKinds...),
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.ShortTTL > 0
}

// ShouldCacheKind reports whether entries of kind may be cached.
func (p Policy) ShouldCacheKind(kind string) bool {
	return p.ShouldCache() && !containsKind(p.SkipKinds, kind)
}

// IsCompleted reports whether kind is a completed-milestone kind.
func (p Policy) IsCompleted(kind string) bool {
	return containsKind(p.CompletedKinds, kind)
}

func containsKind(kinds []string, kind string) bool {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, k := range kinds {
		if strings.ToLower(strings.TrimSpace(k)) == kind {
			return true
		}
	}
	return false
}

// TTL returns the lifetime for entries of the given interaction kind.
func (p Policy) TTL(kind string) time.Duration {
	ttl := p.ShortTTL
	if p.IsCompleted(kind) && p.ExtendedTTL > 0 {
		ttl = p.ExtendedTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// ExpiresAt returns the expiry for an entry of kind written at now.
func (p Policy) ExpiresAt(kind string, now time.Time) time.Time {
	return now.Add(p.TTL(kind))
}
