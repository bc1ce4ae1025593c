package observe

import (
	"context"
	"time"
)

// LoginFunc performs one login exchange and returns the issued token.
type LoginFunc func(ctx context.Context) (string, error)

// Middleware wraps login exchanges with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: WrapLogin returns a LoginFunc safe for concurrent use.
//   - Context: the span context is propagated to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Secrets: the returned token is never logged or recorded.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NoopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NoopMiddleware returns a Middleware that records nothing.
func NoopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// WithLogger returns a copy of the middleware using logger.
func (m *Middleware) WithLogger(logger Logger) *Middleware {
	if logger == nil {
		return m
	}
	return &Middleware{tracer: m.tracer, metrics: m.metrics, logger: logger}
}

// Logger returns the middleware logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Metrics returns the middleware metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// WrapLogin wraps fn with a span, login metrics and a completion log line.
func (m *Middleware) WrapLogin(meta ProviderMeta, fn LoginFunc) LoginFunc {
	logger := m.logger.WithProvider(meta)

	return func(ctx context.Context) (string, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		token, err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordLogin(ctx, meta, duration, err)

		fields := []Field{F("duration_ms", float64(duration.Milliseconds()))}
		if err != nil {
			fields = append(fields, F("error", err.Error()), F("error.kind", ErrorKind(err)))
			logger.Warn(ctx, "login exchange failed", fields...)
		} else {
			logger.Info(ctx, "login exchange completed", fields...)
		}

		return token, err
	}
}
