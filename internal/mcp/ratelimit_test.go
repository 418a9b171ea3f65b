package mcp

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterEnforcesBurst(t *testing.T) {
	l := newIPRateLimiter(1, 3)
	ip := "203.0.113.7"

	for i := 0; i < 3; i++ {
		if !l.allow(ip) {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if l.allow(ip) {
		t.Fatalf("request beyond burst was allowed")
	}
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	l := newIPRateLimiter(1, 1)
	if !l.allow("203.0.113.7") {
		t.Fatalf("first ip denied")
	}
	if !l.allow("203.0.113.8") {
		t.Fatalf("second ip denied after first exhausted its bucket")
	}
	if l.allow("203.0.113.7") {
		t.Fatalf("first ip allowed beyond burst")
	}
}

func TestRateLimiterNeverLimitsLoopback(t *testing.T) {
	l := newIPRateLimiter(1, 1)
	for _, ip := range []string{"127.0.0.1", "::1", "localhost"} {
		for i := 0; i < 10; i++ {
			if !l.allow(ip) {
				t.Fatalf("loopback %q denied", ip)
			}
		}
	}
}

func TestRateLimiterPruneDropsIdleBuckets(t *testing.T) {
	l := newIPRateLimiter(1, 1)
	l.allow("203.0.113.7")

	l.mu.Lock()
	l.buckets["203.0.113.7"].refilled = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	l.prune(10 * time.Minute)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buckets) != 0 {
		t.Fatalf("idle bucket survived prune")
	}
}

func TestRealIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/mcp", nil)
	r.RemoteAddr = "10.0.0.1:4242"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	if got := realIP(r); got != "198.51.100.9" {
		t.Fatalf("realIP = %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := realIP(r); got != "10.0.0.1" {
		t.Fatalf("realIP without header = %q", got)
	}
}
