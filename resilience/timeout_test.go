package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_Defaults(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got)
	}
}

func TestTimeout_Execute(t *testing.T) {
	tests := []struct {
		name    string
		op      func(context.Context) error
		wantErr error
	}{
		{"completes", succeeding, nil},
		{"returns error", failing(ErrCircuitOpen), ErrCircuitOpen},
		{"exceeds deadline", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteWithTimeout(context.Background(), 20*time.Millisecond, tt.op)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeout_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecuteWithTimeout(ctx, time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}
