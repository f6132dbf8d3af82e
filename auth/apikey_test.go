package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func withKey(key string) *Request {
	h := http.Header{}
	h.Set(APIKeyHeader, key)
	return &Request{Headers: h}
}

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator()
	a.Add("ops", "admin-key-1", RoleAdmin)

	id, err := a.Authenticate(context.Background(), withKey(" admin-key-1 "))
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Principal != "ops" || !id.HasRole(RoleAdmin) || id.Method != MethodAPIKey {
		t.Errorf("identity = %+v, want ops admin via api_key", id)
	}

	if _, err := a.Authenticate(context.Background(), withKey("wrong")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong key error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Authenticate(context.Background(), &Request{}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("missing key error = %v, want ErrMissingCredentials", err)
	}
	if a.Supports(&Request{}) {
		t.Error("Supports() = true without the header")
	}
}

func TestAPIKeyAuthenticator_PrehashedKeys(t *testing.T) {
	a := NewAPIKeyAuthenticator(APIKey{ID: "ci", KeyHash: HashAPIKey("k"), Roles: []string{"reader"}})

	id, err := a.Authenticate(context.Background(), withKey("k"))
	if err != nil || id.Principal != "ci" {
		t.Errorf("Authenticate() = %+v, %v, want ci", id, err)
	}
	id.Roles[0] = "mutated"
	again, _ := a.Authenticate(context.Background(), withKey("k"))
	if again.Roles[0] != "reader" {
		t.Errorf("Roles = %v, want a copy per identity", again.Roles)
	}
}

func TestHashAPIKey(t *testing.T) {
	const want = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
	if got := HashAPIKey("foo"); got != want {
		t.Errorf("HashAPIKey(foo) = %s, want %s", got, want)
	}
}
