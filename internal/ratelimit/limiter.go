// Package ratelimit implements a token bucket rate limiter for per-host
// politeness control on outbound checks.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/linkvet/linkvet/internal/telemetry"
	"golang.org/x/time/rate"
)

// Limiter manages per-host rate limits.
type Limiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	defaultRate rate.Limit
	burst       int
}

// New creates a Limiter allowing perHostRPS requests per second to each host.
// A non-positive rate disables limiting entirely.
func New(perHostRPS float64) *Limiter {
	r := rate.Limit(perHostRPS)
	if perHostRPS <= 0 {
		r = rate.Inf
	}
	return &Limiter{
		limiters:    make(map[string]*rate.Limiter),
		defaultRate: r,
		burst:       1,
	}
}

// Wait blocks until a token is available for the given URL's host, respecting
// the context. Unparseable URLs are not limited; the checker surfaces their
// failure on the request itself.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	l.mu.Lock()
	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		telemetry.ObserveRateLimitDelay(host, delay)
	}
	return nil
}
