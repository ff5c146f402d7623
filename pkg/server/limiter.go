package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 30 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client identifier and satisfies
// echo's middleware.RateLimiterStore.
type clientLimiters struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.RWMutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func newClientLimiters(perSecond float64, burst int) *clientLimiters {
	return &clientLimiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow takes one token from the identifier's bucket.
func (l *clientLimiters) Allow(identifier string) (bool, error) {
	now := l.now()
	return l.get(identifier, now).AllowN(now, 1), nil
}

func (l *clientLimiters) get(identifier string, now time.Time) *rate.Limiter {
	l.mu.RLock()
	c, ok := l.clients[identifier]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		c.lastSeen = now
		l.mu.Unlock()
		return c.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok = l.clients[identifier]; ok {
		c.lastSeen = now
		return c.limiter
	}

	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweepLocked(now)
	}

	c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.clients[identifier] = c
	return c.limiter
}

func (l *clientLimiters) sweepLocked(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for id, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, id)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiters) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}
