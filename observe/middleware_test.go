package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_WrapLogin_Success(t *testing.T) {
	tracer, rec := newRecordingTracer()
	metrics, reader := newRecordingMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tracer, metrics, NewLoggerWithWriter("info", &buf))

	var spanSeen bool
	login := mw.WrapLogin(ProviderMeta{Name: "login"}, func(ctx context.Context) (string, error) {
		spanSeen = trace.SpanContextFromContext(ctx).IsValid()
		return "abc123", nil
	})

	token, err := login(context.Background())
	if err != nil || token != "abc123" {
		t.Fatalf("login() = (%q, %v)", token, err)
	}
	if !spanSeen {
		t.Error("span context not propagated to the wrapped function")
	}

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Ok {
		t.Errorf("spans = %v", spans)
	}
	if n := counterTotal(t, collect(t, reader)["auth.login.total"]); n != 1 {
		t.Errorf("auth.login.total = %d, want 1", n)
	}

	out := buf.String()
	if !strings.Contains(out, "login exchange completed") {
		t.Errorf("log = %s", out)
	}
	if strings.Contains(out, "abc123") {
		t.Errorf("log contains the token: %s", out)
	}
}

func TestMiddleware_WrapLogin_Error(t *testing.T) {
	tracer, rec := newRecordingTracer()
	var buf bytes.Buffer
	mw := NewMiddleware(tracer, nil, NewLoggerWithWriter("info", &buf))

	want := kindErr{temporary: true}
	login := mw.WrapLogin(ProviderMeta{Name: "login"}, func(context.Context) (string, error) {
		return "", want
	})

	_, err := login(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("login() error = %v, want %v", err, want)
	}
	if rec.Ended()[0].Status().Code != codes.Error {
		t.Error("span status not Error")
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["level"] != "warn" || entries[0]["error.kind"] != "temporary" {
		t.Errorf("log entries = %v", entries)
	}
}

func TestMiddleware_WithLogger(t *testing.T) {
	mw := NoopMiddleware()
	if mw.WithLogger(nil) != mw {
		t.Error("WithLogger(nil) returned a copy")
	}

	var buf bytes.Buffer
	logged := mw.WithLogger(NewLoggerWithWriter("info", &buf))
	if logged == mw {
		t.Fatal("WithLogger() returned the receiver")
	}
	if _, err := logged.WrapLogin(ProviderMeta{Name: "p"}, func(context.Context) (string, error) { return "t", nil })(context.Background()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("replacement logger not used")
	}
	if mw.Logger() == logged.Logger() {
		t.Error("original middleware logger changed")
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) error = %v, want ErrNilObserver", err)
	}

	obs, err := NewObserver(context.Background(), Config{ServiceName: "test"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	if mw.Metrics() == nil || mw.Logger() == nil {
		t.Error("middleware components are nil")
	}
}
