// Package health reports the readiness of the generation service.
//
// A Checker reports one component. The Aggregator runs every registered
// checker concurrently under a shared deadline and folds the results into
// one Status: any Unhealthy result makes the service Unhealthy, otherwise
// any Degraded result makes it Degraded.
//
// Two checkers cover the service's dependencies:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewPingChecker("database", db))
//	agg.Register(health.NewCircuitChecker("upstream", breaker))
//
// An open upstream circuit is Degraded rather than Unhealthy: generation
// keeps answering with fallback content while the upstream recovers.
//
// Mount exposes /healthz (liveness), /readyz (readiness) and /health
// (detailed JSON) on a chi router.
package health
