package auth

import (
	"context"
	"net/http"
)

// Authenticator validates credentials and returns an identity.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Supports reports whether the request carries this authenticator's
//     credentials; Authenticate is only called when it does.
//   - Authenticate returns an error wrapping one of the package sentinels
//     when the credentials are rejected.
type Authenticator interface {
	Name() string
	Supports(req *Request) bool
	Authenticate(ctx context.Context, req *Request) (*Identity, error)
}

// Request carries the credentials of one call.
type Request struct {
	Headers http.Header
}

// Header returns the first value of key.
func (r *Request) Header(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// AuthenticatorFunc adapts a function to Authenticator. It supports
// every request.
type AuthenticatorFunc func(ctx context.Context, req *Request) (*Identity, error)

func (f AuthenticatorFunc) Name() string { return "func" }

func (f AuthenticatorFunc) Supports(*Request) bool { return true }

func (f AuthenticatorFunc) Authenticate(ctx context.Context, req *Request) (*Identity, error) {
	return f(ctx, req)
}
