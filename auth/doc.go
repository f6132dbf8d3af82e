// Package auth authenticates callers of the generation service.
//
// Learners present an HS256 bearer token whose subject is their user id.
// Operators present an API key for the administrative endpoints. Both are
// Authenticators, and Middleware tries them in order, attaching the
// resulting Identity to the request context.
package auth
