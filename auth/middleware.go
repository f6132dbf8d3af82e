package auth

import (
	"errors"
	"net/http"
)

// ErrorHandler writes an authentication or authorization failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// StatusCode maps auth errors to HTTP status codes.
func StatusCode(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	http.Error(w, err.Error(), StatusCode(err))
}

// Middleware authenticates each request with the first authenticator that
// supports it and stores the identity in the request context. Requests no
// authenticator supports are rejected with ErrMissingCredentials.
func Middleware(onError ErrorHandler, authenticators ...Authenticator) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &Request{Headers: r.Header}
			for _, a := range authenticators {
				if !a.Supports(req) {
					continue
				}
				id, err := a.Authenticate(r.Context(), req)
				if err != nil {
					onError(w, r, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
			onError(w, r, ErrMissingCredentials)
		})
	}
}

// RequireRole rejects requests whose identity lacks role.
func RequireRole(role string, onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil {
				onError(w, r, ErrMissingCredentials)
				return
			}
			if !id.HasRole(role) {
				onError(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
