package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter(MemoryLimiterConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		d, err := lim.Allow(context.Background(), "wallet-1", 3, 15*time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("remaining = %d after request %d", d.Remaining, i)
		}
	}

	d, err := lim.Allow(context.Background(), "wallet-1", 3, 15*time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request in window should be denied")
	}
	if !d.ResetAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("resetAt = %v", d.ResetAt)
	}

	// Other keys are unaffected.
	if d, _ := lim.Allow(context.Background(), "wallet-2", 3, 15*time.Minute); !d.Allowed {
		t.Fatal("separate key should be allowed")
	}

	// Window expiry resets the counter.
	now = now.Add(15*time.Minute + time.Second)
	if d, _ := lim.Allow(context.Background(), "wallet-1", 3, 15*time.Minute); !d.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestMemoryLimiterZeroLimitDisables(t *testing.T) {
	lim := NewMemoryLimiter(MemoryLimiterConfig{})
	d, err := lim.Allow(context.Background(), "wallet-1", 0, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("zero limit disables limiting")
	}
}
