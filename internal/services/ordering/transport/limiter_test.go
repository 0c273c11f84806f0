package transport

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestSenderLimiterIsPerSender(t *testing.T) {
	limiter := newSenderLimiter(rate.Every(time.Hour), 2)
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	limiter.clock = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("expected burst of two for a")
	}
	if limiter.Allow("a") {
		t.Fatal("expected third update from a to be limited")
	}
	if !limiter.Allow("b") {
		t.Fatal("expected b to have its own bucket")
	}
}

func TestSenderLimiterForgetsIdleSenders(t *testing.T) {
	limiter := newSenderLimiter(rate.Every(time.Hour), 1)
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	limiter.clock = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")
	if got := limiter.len(); got != 2 {
		t.Fatalf("senders = %d, want 2", got)
	}

	now = now.Add(senderIdleTTL + time.Minute)
	limiter.Allow("c")
	if got := limiter.len(); got != 1 {
		t.Fatalf("senders after idle = %d, want 1", got)
	}
}

func TestSenderLimiterInfiniteAllowsAll(t *testing.T) {
	limiter := newSenderLimiter(rate.Inf, 0)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("a") {
			t.Fatalf("update %d limited", i)
		}
	}
}
