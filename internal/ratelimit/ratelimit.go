package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a minimum spacing between requests to the same host.
// All adapters hitting the same site share one instance; the courtesy delay is
// a fixed constant, not adaptive.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewHostLimiter creates a limiter allowing reqPerSec requests per host with
// the given burst.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		limit: rate.Limit(reqPerSec),
		burst: burst,
	}
}

func (l *HostLimiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.hosts[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.hosts[host] = lim
	return lim
}

// Wait blocks until the host's limiter admits a request or ctx is cancelled.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if host == "" {
		host = "_"
	}
	if err := l.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

// WaitURL parses raw and waits on its host's limiter. Unparseable URLs share a
// single fallback bucket.
func (l *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return l.Wait(ctx, "_")
	}
	return l.Wait(ctx, u.Host)
}
