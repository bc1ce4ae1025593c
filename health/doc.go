// Package health reports whether credential providers can currently
// authenticate requests.
//
// Checks never trigger a login. ProviderChecker reads the token slot of a
// login provider; CircuitChecker reads a resilience.CircuitBreaker placed in
// front of the identity endpoint. An Aggregator folds results into one
// Report and the HTTP handlers expose it:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register(health.NewProviderChecker(authenticator))
//	agg.Register(health.NewCircuitChecker("auth.circuit", breaker))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health
package health
