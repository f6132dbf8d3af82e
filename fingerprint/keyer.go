package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keyer derives a cache fingerprint from a context.
//
// Contract:
// - Determinism: semantically identical contexts produce the same key,
//   regardless of map iteration order or recent-interaction ordering.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(c Context) (string, error)
}

// DefaultKeyer generates SHA-256 based fingerprints.
type DefaultKeyer struct {
	window   int
	volatile map[string]bool
}

// KeyerOption configures a DefaultKeyer.
type KeyerOption func(*DefaultKeyer)

// WithWindow sets how many recent interactions contribute to the key.
func WithWindow(n int) KeyerOption {
	return func(k *DefaultKeyer) {
		if n > 0 {
			k.window = n
		}
	}
}

// WithVolatileKeys adds Extra keys to ignore in addition to VolatileKeys.
func WithVolatileKeys(keys ...string) KeyerOption {
	return func(k *DefaultKeyer) {
		for _, key := range keys {
			k.volatile[key] = true
		}
	}
}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer(opts ...KeyerOption) *DefaultKeyer {
	k := &DefaultKeyer{
		window:   MaxRecentInteractions,
		volatile: make(map[string]bool, len(VolatileKeys)),
	}
	for _, key := range VolatileKeys {
		k.volatile[key] = true
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Key generates a deterministic fingerprint.
// Format: fp:<hash>, where hash is the first 16 hex characters of
// SHA-256(canonical JSON(normalized context)).
func (k *DefaultKeyer) Key(c Context) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	canonical, err := k.canonicalize(c)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCanonicalize, err)
	}

	hash := sha256.Sum256(canonical)
	return "fp:" + hex.EncodeToString(hash[:8]), nil
}

func (k *DefaultKeyer) canonicalize(c Context) ([]byte, error) {
	extra, err := k.canonicalValue(c.Extra)
	if err != nil {
		return nil, err
	}

	// Field order is fixed by construction.
	out := []byte(`{"phase":`)
	out = append(out, []byte(fmt.Sprintf("%d", c.PhaseID))...)
	out = append(out, `,"kind":`...)
	kind, _ := json.Marshal(strings.ToLower(strings.TrimSpace(c.Kind)))
	out = append(out, kind...)
	out = append(out, `,"level":`...)
	level, _ := json.Marshal(c.Level.String())
	out = append(out, level...)
	out = append(out, `,"recent":`...)
	recent, err := json.Marshal(k.normalizeRecent(c.RecentInteractions))
	if err != nil {
		return nil, err
	}
	out = append(out, recent...)
	out = append(out, `,"extra":`...)
	out = append(out, extra...)
	out = append(out, '}')
	return out, nil
}

// normalizeRecent bounds the window to the last k.window ids, then trims,
// de-duplicates and sorts them.
func (k *DefaultKeyer) normalizeRecent(ids []string) []string {
	if len(ids) > k.window {
		ids = ids[len(ids)-k.window:]
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (k *DefaultKeyer) canonicalValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return k.canonicalMap(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for key, s := range val {
			m[key] = s
		}
		return k.canonicalMap(m)
	case []any:
		return k.canonicalSlice(val)
	default:
		return k.canonicalTyped(v)
	}
}

// canonicalTyped reduces typed composites such as []map[string]any or
// structs to their JSON shape so nested volatile keys are stripped too.
func (k *DefaultKeyer) canonicalTyped(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || (raw[0] != '{' && raw[0] != '[') {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return k.canonicalValue(generic)
}

func (k *DefaultKeyer) canonicalMap(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		if k.volatile[key] {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return []byte("null"), nil
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, key := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := k.canonicalValue(m[key])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func (k *DefaultKeyer) canonicalSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := k.canonicalValue(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
