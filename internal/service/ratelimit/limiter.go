package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key. Every key shares one burst and refill rate.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	burst   int
	refill  rate.Limit
	now     func() time.Time
}

// New creates a limiter allowing bursts of capacity requests refilled at refillPerSec.
// A zero refill lets each key spend its burst once until it is pruned.
func New(capacity, refillPerSec float64) *Limiter {
	burst := int(math.Ceil(capacity))
	if burst < 1 {
		burst = 1
	}
	if refillPerSec < 0 {
		refillPerSec = 0
	}
	return &Limiter{
		clients: make(map[string]*client),
		burst:   burst,
		refill:  rate.Limit(refillPerSec),
		now:     time.Now,
	}
}

// Allow reports whether key may make one more request now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.refill, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()
	return c.lim.AllowN(now, 1)
}

// Prune drops clients idle for longer than idle; a pruned key starts full again.
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
