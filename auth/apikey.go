package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
)

// APIKeyHeader carries operator API keys.
const APIKeyHeader = "X-API-Key"

// APIKey is a registered operator key. Only its hash is kept.
type APIKey struct {
	ID      string
	KeyHash string
	Roles   []string
}

// APIKeyAuthenticator validates API keys against an in-memory set.
type APIKeyAuthenticator struct {
	mu   sync.RWMutex
	keys []APIKey
}

// NewAPIKeyAuthenticator creates an authenticator with the given keys.
func NewAPIKeyAuthenticator(keys ...APIKey) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{keys: keys}
}

// Add registers a plaintext key under id.
func (a *APIKeyAuthenticator) Add(id, key string, roles ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, APIKey{ID: id, KeyHash: HashAPIKey(key), Roles: roles})
}

func (a *APIKeyAuthenticator) Name() string { return string(MethodAPIKey) }

func (a *APIKeyAuthenticator) Supports(req *Request) bool {
	return req.Header(APIKeyHeader) != ""
}

// Authenticate compares the key hash against every registered key in
// constant time.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, req *Request) (*Identity, error) {
	key := strings.TrimSpace(req.Header(APIKeyHeader))
	if key == "" {
		return nil, ErrMissingCredentials
	}
	hash := HashAPIKey(key)

	a.mu.RLock()
	defer a.mu.RUnlock()

	var match *APIKey
	for i := range a.keys {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(a.keys[i].KeyHash)) == 1 {
			match = &a.keys[i]
		}
	}
	if match == nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{
		Principal: match.ID,
		Roles:     append([]string(nil), match.Roles...),
		Method:    MethodAPIKey,
	}, nil
}

// HashAPIKey returns the hex SHA-256 of key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)
