package auth

import (
	"slices"
	"time"
)

// Method indicates how a caller authenticated.
type Method string

const (
	MethodJWT    Method = "jwt"
	MethodAPIKey Method = "api_key"
)

// RoleAdmin grants access to administrative endpoints and to every
// learner's content.
const RoleAdmin = "admin"

// Identity is an authenticated caller.
type Identity struct {
	// Principal is the learner's user id, or the key id for API keys.
	Principal string
	Roles     []string
	Method    Method
	ExpiresAt time.Time
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// IsExpired reports whether the identity expired before now.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// CanActFor reports whether the identity may read or write content owned
// by userID.
func (id *Identity) CanActFor(userID string) bool {
	if id == nil {
		return false
	}
	return id.Principal == userID || id.HasRole(RoleAdmin)
}
