package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_Bounds(t *testing.T) {
	for attempt := range 8 {
		base := time.Duration(1<<uint(attempt)) * 50 * time.Millisecond
		base = min(base, 2*time.Second)
		for range 20 {
			d := Backoff(attempt)
			if d < base || d >= base+base/2 {
				t.Fatalf("Backoff(%d) = %v, want in [%v, %v)", attempt, d, base, base+base/2)
			}
		}
	}
}

func TestWithRetry_NotRetryable(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestWithRetry_Success(t *testing.T) {
	calls := 0
	if err := withRetry(context.Background(), func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}
