package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newRecordingMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s data = %T, want Sum[int64]", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordLogin(t *testing.T) {
	m, reader := newRecordingMetrics(t)
	meta := ProviderMeta{Name: "login"}
	ctx := context.Background()

	m.RecordLogin(ctx, meta, 20*time.Millisecond, nil)
	m.RecordLogin(ctx, meta, 5*time.Millisecond, kindErr{temporary: true})
	m.RecordLogin(ctx, meta, 5*time.Millisecond, kindErr{temporary: false})

	got := collect(t, reader)
	if n := counterTotal(t, got["auth.login.total"]); n != 3 {
		t.Errorf("auth.login.total = %d, want 3", n)
	}
	if n := counterTotal(t, got["auth.login.errors"]); n != 2 {
		t.Errorf("auth.login.errors = %d, want 2", n)
	}

	errs := got["auth.login.errors"].Data.(metricdata.Sum[int64])
	kinds := map[string]int64{}
	for _, dp := range errs.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("auth.error.kind"))
		kinds[v.AsString()] += dp.Value
	}
	if kinds["temporary"] != 1 || kinds["permanent"] != 1 {
		t.Errorf("error kinds = %v", kinds)
	}

	hist, ok := got["auth.login.duration_ms"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 3 {
		t.Errorf("auth.login.duration_ms = %+v", got["auth.login.duration_ms"].Data)
	}
}

func TestMetrics_CacheHitsAndResets(t *testing.T) {
	m, reader := newRecordingMetrics(t)
	meta := ProviderMeta{Name: "login"}
	ctx := context.Background()

	for range 3 {
		m.RecordCacheHit(ctx, meta)
	}
	m.RecordReset(ctx, meta)

	got := collect(t, reader)
	if n := counterTotal(t, got["auth.token.cache_hits"]); n != 3 {
		t.Errorf("auth.token.cache_hits = %d, want 3", n)
	}
	if n := counterTotal(t, got["auth.token.resets"]); n != 1 {
		t.Errorf("auth.token.resets = %d, want 1", n)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics()
	ctx := context.Background()
	m.RecordLogin(ctx, ProviderMeta{}, time.Second, nil)
	m.RecordCacheHit(ctx, ProviderMeta{})
	m.RecordReset(ctx, ProviderMeta{})
}
