// Package server exposes content generation, ratings, the subject wizard
// and cache administration over HTTP.
//
// Routes:
//
//	POST /v1/generate                       lesson content (cache, upstream or fallback)
//	POST /v1/cache/{id}/rating              quality score for a cache entry
//	POST /v1/wizard/syllabus                first wizard step, creates a draft
//	POST /v1/wizard/drafts/{id}/metadata    second step
//	POST /v1/wizard/drafts/{id}/prompt      third step
//	POST /v1/wizard/drafts/{id}/finalize    publish a complete draft
//	GET  /v1/wizard/drafts/{id}             draft with its next step
//	GET  /v1/wizard/drafts                  caller's drafts
//	POST /v1/admin/cache/purge              remove expired entries (admin API key)
//	GET  /healthz /readyz /health /metrics
//
// Learner routes require a bearer token and are rate limited per caller.
// A learner may only act for its own user id; admins may act for anyone.
package server
