package fingerprint

import (
	"fmt"
	"strings"
)

// Level is the learner's coarse proficiency classification.
type Level int

const (
	// LevelBeginner is the default for unknown or new learners.
	LevelBeginner Level = iota
	LevelIntermediate
	LevelAdvanced
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelBeginner:
		return "beginner"
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	default:
		return "beginner"
	}
}

// ParseLevel parses a level name. Unknown names map to LevelBeginner.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return LevelIntermediate
	case "advanced", "expert":
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	*l = ParseLevel(string(b))
	return nil
}

// MaxRecentInteractions is the default window of recent interaction ids that
// contribute to a fingerprint.
const MaxRecentInteractions = 5

// VolatileKeys lists Extra keys that never contribute to a fingerprint.
var VolatileKeys = []string{
	"timestamp",
	"ts",
	"created_at",
	"createdAt",
	"updated_at",
	"updatedAt",
	"session_id",
	"sessionId",
	"request_id",
	"requestId",
	"nonce",
}

// Context is the semantic context a fingerprint is derived from.
type Context struct {
	// PhaseID is the curriculum phase the request belongs to.
	PhaseID int

	// Kind is the interaction kind (introduction, full_content, ...).
	Kind string

	// Level is the learner's proficiency classification.
	Level Level

	// RecentInteractions holds recent interaction ids, oldest first.
	// Only the last MaxRecentInteractions are considered.
	RecentInteractions []string

	// Extra holds additional structured data. Volatile keys are ignored.
	Extra map[string]any
}

// Validate checks that the context carries the fields a key needs.
func (c Context) Validate() error {
	if strings.TrimSpace(c.Kind) == "" {
		return fmt.Errorf("%w: interaction kind is required", ErrInvalidContext)
	}
	if c.PhaseID < 0 {
		return fmt.Errorf("%w: phase id must not be negative", ErrInvalidContext)
	}
	return nil
}
