package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	for i := range 5 {
		res := l.Allow("k")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Limit != 5 {
			t.Errorf("Limit = %d, want 5", res.Limit)
		}
		if res.RetryAfter != 0 {
			t.Errorf("RetryAfter = %v, want 0", res.RetryAfter)
		}
	}
	res := l.Allow("k")
	if res.Allowed {
		t.Fatal("6th request should be rate limited")
	}
	if res.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want >= 1s", res.RetryAfter)
	}
	if !res.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt = %v, want in the future", res.ResetAt)
	}
}

func TestLimiter_DifferentKeys(t *testing.T) {
	l := NewLimiter(2, time.Minute, 2)
	defer l.Close()

	l.Allow("a")
	l.Allow("a")
	if l.Allow("a").Allowed {
		t.Error("a should be rate limited")
	}
	if !l.Allow("b").Allowed {
		t.Error("b should not be rate limited")
	}
	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l := NewLimiter(60, time.Minute, 10)
	defer l.Close()

	l.Allow("idle")
	l.evictIdle(time.Now())
	if got := l.Len(); got != 1 {
		t.Fatalf("recent bucket evicted, Len() = %d", got)
	}
	l.evictIdle(time.Now().Add(2 * idleAfter))
	if got := l.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := NewLimiter(1, time.Minute, 1)
	l.Close()
	l.Close()
}
