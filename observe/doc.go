// Package observe provides observability primitives for credential providers.
//
// It is a pure instrumentation library: tracing, metrics and structured
// logging around login exchanges and token cache events. It performs no I/O
// beyond exporter setup. The auth package wires a Middleware into each
// provider; callers supply an Observer built from Config.
package observe
