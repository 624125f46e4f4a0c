package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForNonPositive(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForElapses(t *testing.T) {
	start := time.Now()
	if err := WaitFor(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("returned after %s", elapsed)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		limit   time.Duration
		expect  time.Duration
	}{
		{name: "first attempt", attempt: 1, limit: time.Minute, expect: 2 * time.Second},
		{name: "doubles", attempt: 3, limit: time.Minute, expect: 8 * time.Second},
		{name: "capped", attempt: 10, limit: 30 * time.Second, expect: 30 * time.Second},
		{name: "no cap", attempt: 4, limit: 0, expect: 16 * time.Second},
		{name: "zero attempt", attempt: 0, limit: time.Minute, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Backoff(2*time.Second, tt.attempt, tt.limit); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}
