package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records credential provider metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLogin records a login exchange with duration and error status.
	RecordLogin(ctx context.Context, meta ProviderMeta, duration time.Duration, err error)

	// RecordCacheHit records a request served from the cached token.
	RecordCacheHit(ctx context.Context, meta ProviderMeta)

	// RecordReset records a discarded token.
	RecordReset(ctx context.Context, meta ProviderMeta)
}

type metricsImpl struct {
	loginTotal   metric.Int64Counter
	loginErrors  metric.Int64Counter
	loginLatency metric.Float64Histogram
	cacheHits    metric.Int64Counter
	resets       metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	loginTotal, err := meter.Int64Counter(
		"auth.login.total",
		metric.WithDescription("Total number of login exchanges"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	loginErrors, err := meter.Int64Counter(
		"auth.login.errors",
		metric.WithDescription("Total number of failed login exchanges"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	loginLatency, err := meter.Float64Histogram(
		"auth.login.duration_ms",
		metric.WithDescription("Login exchange duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"auth.token.cache_hits",
		metric.WithDescription("Requests authenticated with the cached token"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	resets, err := meter.Int64Counter(
		"auth.token.resets",
		metric.WithDescription("Cached tokens discarded by reset"),
		metric.WithUnit("{reset}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		loginTotal:   loginTotal,
		loginErrors:  loginErrors,
		loginLatency: loginLatency,
		cacheHits:    cacheHits,
		resets:       resets,
	}, nil
}

func providerAttrs(meta ProviderMeta) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("provider.name", meta.Name))
}

func (m *metricsImpl) RecordLogin(ctx context.Context, meta ProviderMeta, duration time.Duration, err error) {
	opt := providerAttrs(meta)
	m.loginTotal.Add(ctx, 1, opt)

	if err != nil {
		m.loginErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider.name", meta.Name),
			attribute.String("auth.error.kind", ErrorKind(err)),
		))
	}

	m.loginLatency.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context, meta ProviderMeta) {
	m.cacheHits.Add(ctx, 1, providerAttrs(meta))
}

func (m *metricsImpl) RecordReset(ctx context.Context, meta ProviderMeta) {
	m.resets.Add(ctx, 1, providerAttrs(meta))
}

type noopMetrics struct{}

// NoopMetrics returns a Metrics implementation that records nothing.
func NoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordLogin(context.Context, ProviderMeta, time.Duration, error) {}
func (noopMetrics) RecordCacheHit(context.Context, ProviderMeta)                   {}
func (noopMetrics) RecordReset(context.Context, ProviderMeta)                      {}
