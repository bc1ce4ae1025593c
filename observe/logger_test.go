package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("levels = %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "login exchange completed", F("attempt", 2), F("status", "ok"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e["msg"] != "login exchange completed" {
		t.Errorf("msg = %v", e["msg"])
	}
	if e["attempt"] != float64(2) || e["status"] != "ok" {
		t.Errorf("fields = %v", e)
	}
	if _, ok := e["timestamp"].(string); !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "msg",
		F("password", "hunter2"),
		F("secret", "s3cret"),
		F("token", "abc123"),
		F("Authorization", "Bearer abc123"),
		F("user", "svc"),
	)

	out := buf.String()
	for _, leaked := range []string{"hunter2", "s3cret", "abc123"} {
		if strings.Contains(out, leaked) {
			t.Errorf("output contains %q: %s", leaked, out)
		}
	}
	e := decodeLines(t, &buf)[0]
	if e["secret"] != "[REDACTED]" || e["user"] != "svc" {
		t.Errorf("entry = %v", e)
	}
}

func TestLogger_RedactsCredentialSchemes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "msg",
		F("header", "Bearer abc123"),
		F("upstream", "basic c3ZjOnMzY3JldA=="),
		F("note", "Bearer"),
	)

	e := decodeLines(t, &buf)[0]
	if e["header"] != "[REDACTED]" || e["upstream"] != "[REDACTED]" {
		t.Errorf("credential values not redacted: %v", e)
	}
	if e["note"] != "Bearer" {
		t.Errorf("note = %v, want Bearer", e["note"])
	}
}

func TestLogger_WithProvider(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("info", &buf)
	logger := base.WithProvider(ProviderMeta{Name: "corp", Method: "bearer", Endpoint: "https://id.example.com/identity/v1/login"})

	logger.Info(context.Background(), "with provider")
	base.Info(context.Background(), "without provider")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0]["provider.name"] != "corp" || entries[0]["provider.method"] != "bearer" {
		t.Errorf("provider fields = %v", entries[0])
	}
	if _, ok := entries[1]["provider.name"]; ok {
		t.Error("parent logger gained provider fields")
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("info", &buf)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			base.WithProvider(ProviderMeta{Name: "p"}).Info(context.Background(), "concurrent", F("i", i))
		}()
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Errorf("entries = %d, want 20", got)
	}
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	ctx := context.Background()
	l.Debug(ctx, "x")
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x")
	if l.WithProvider(ProviderMeta{Name: "p"}) == nil {
		t.Error("WithProvider() = nil")
	}
}
