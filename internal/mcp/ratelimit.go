package mcp

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ipRateLimiter is a per-client token bucket keyed by remote IP. Buckets
// refill continuously at rps tokens per second up to burst. Loopback clients
// are never limited so local tooling keeps working in public mode.
type ipRateLimiter struct {
	mu      sync.Mutex
	rps     float64
	burst   float64
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		rps:     rps,
		burst:   float64(burst),
		buckets: make(map[string]*tokenBucket),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	ip = canonicalIP(ip)
	if ip == "" || isLoopbackIP(ip) {
		return true
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		l.buckets[ip] = &tokenBucket{tokens: l.burst - 1, refilled: now}
		return true
	}

	b.tokens += now.Sub(b.refilled).Seconds() * l.rps
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.refilled = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// prune drops buckets idle for longer than maxAge so the map stays bounded.
func (l *ipRateLimiter) prune(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		if b.refilled.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// realIP picks the client address, trusting the first X-Forwarded-For entry
// when a proxy set one.
func realIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func canonicalIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return strings.Trim(ip, "[]")
}

func isLoopbackIP(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
