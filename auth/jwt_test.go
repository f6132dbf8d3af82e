package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-0123456789")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func bearer(token string) *Request {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return &Request{Headers: h}
}

func TestNewJWTAuthenticator_RequiresSecret(t *testing.T) {
	if _, err := NewJWTAuthenticator(JWTConfig{}); !errors.Is(err, ErrMissingKey) {
		t.Errorf("error = %v, want ErrMissingKey", err)
	}
}

func TestJWTAuthenticator_Supports(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret})

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"Bearer abc", true},
		{"Basic abc", false},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.header != "" {
			h.Set("Authorization", tt.header)
		}
		if got := a.Supports(&Request{Headers: h}); got != tt.want {
			t.Errorf("Supports(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestJWTAuthenticator_Authenticate(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret, Issuer: "skillforge", Audience: "gencache"})
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	token := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub":   "learner-7",
		"iss":   "skillforge",
		"aud":   "gencache",
		"exp":   exp.Unix(),
		"roles": []string{"learner", RoleAdmin},
	})

	id, err := a.Authenticate(context.Background(), bearer(token))
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Principal != "learner-7" || id.Method != MethodJWT {
		t.Errorf("identity = %+v, want learner-7 via jwt", id)
	}
	if !id.HasRole(RoleAdmin) {
		t.Errorf("Roles = %v, want admin", id.Roles)
	}
	if !id.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", id.ExpiresAt, exp)
	}
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret, Issuer: "skillforge"})
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "expired",
			token: signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "u", "iss": "skillforge", "exp": time.Now().Add(-time.Hour).Unix()}),
			want:  ErrTokenExpired,
		},
		{
			name:  "malformed",
			token: "not.a.jwt",
			want:  ErrTokenMalformed,
		},
		{
			name:  "wrong secret",
			token: signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u", "iss": "skillforge", "exp": future}),
			want:  ErrInvalidCredentials,
		},
		{
			name:  "wrong issuer",
			token: signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "u", "iss": "elsewhere", "exp": future}),
			want:  ErrInvalidCredentials,
		},
		{
			name:  "no expiry",
			token: signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "u", "iss": "skillforge"}),
			want:  ErrInvalidCredentials,
		},
		{
			name:  "no subject",
			token: signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"iss": "skillforge", "exp": future}),
			want:  ErrInvalidCredentials,
		},
		{
			name:  "wrong algorithm",
			token: signed(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"sub": "u", "iss": "skillforge", "exp": future}),
			want:  ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), bearer(tt.token))
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
