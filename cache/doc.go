// Package cache provides the content cache for generated learning material.
//
// Entries are keyed by (user, phase, interaction kind, fingerprint) and carry
// usage accounting and an expiry. A Store looks entries up, upserts them,
// records quality ratings and purges expired rows. Expiry is enforced at read
// time, so purging is housekeeping only.
//
// This package defines the Store contract, the TTL Policy, an in-memory
// MemoryStore, and a Janitor that purges expired rows on a schedule.
// Relational implementations live in package store.
package cache
