// Package observe provides logging, tracing and metrics primitives for the
// generation service.
//
// Components record work as an Operation (component plus name, optionally the
// interaction kind). Middleware.Run wraps a unit of work with a span, the
// gencache.op.* instruments and one structured log line carrying the outcome.
// The Logger is backed by zap, redacts sensitive keys and never writes raw
// user identifiers.
package observe
