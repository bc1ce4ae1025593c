package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ProviderMeta describes a credential provider for telemetry purposes.
type ProviderMeta struct {
	Name     string // Provider name (required), e.g. "login"
	Method   string // Credential method, e.g. "bearer", "api_key"
	Endpoint string // Identity endpoint URL, if any
}

// SpanName returns the span name for a login exchange of this provider.
// Format: auth.login.<name>
func (m ProviderMeta) SpanName() string {
	return "auth.login." + m.Name
}

func (m ProviderMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("provider.name", m.Name)}
	if m.Method != "" {
		attrs = append(attrs, attribute.String("provider.method", m.Method))
	}
	if m.Endpoint != "" {
		attrs = append(attrs, attribute.String("provider.endpoint", m.Endpoint))
	}
	return attrs
}

func (m ProviderMeta) fields() map[string]any {
	out := map[string]any{"provider.name": m.Name}
	if m.Method != "" {
		out["provider.method"] = m.Method
	}
	if m.Endpoint != "" {
		out["provider.endpoint"] = m.Endpoint
	}
	return out
}

// Tracer wraps OpenTelemetry tracing with login span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("auth.error.kind", ErrorKind(err)))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a Tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProviderMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}

// ErrorKind returns "temporary" or "permanent" for errors exposing a
// Temporary() bool method, "unknown" for other errors and "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		if t.Temporary() {
			return "temporary"
		}
		return "permanent"
	}
	return "unknown"
}
