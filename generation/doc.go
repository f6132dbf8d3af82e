// Package generation orchestrates cached, resilient content generation.
//
// An Orchestrator answers a Request in one of three ways:
//
//   - from the cache, when a live entry exists for the request's
//     (user, phase, kind, fingerprint) tuple;
//   - from the upstream generator, when a fresh result arrives in time and
//     passes structural validation (the result is then written through);
//   - from a deterministic fallback, when the upstream call times out,
//     fails after retries, is rejected by the circuit breaker, or returns
//     content that does not validate. Fallbacks are never cached.
//
// Upstream output is normalized before validation: code fences and
// document-level markup are stripped, plain markdown is rendered to HTML,
// the markup is sanitized and wrapped in a lesson-content container.
//
// Cache write failures are logged and never surface to callers.
package generation
