package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := New("test", 5)

	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("allowed %d requests within burst, want 5", allowed)
	}

	if l.Allow() {
		t.Fatalf("request beyond burst was allowed")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New("test", 1)
	// Drain the initial burst.
	_ = l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatalf("expected error when context expires before a token is available")
	}
}

func TestLimiter_Name(t *testing.T) {
	if got := New("kintone", 1).Name(); got != "kintone" {
		t.Fatalf("Name() = %q, want kintone", got)
	}
}
