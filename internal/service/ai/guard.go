package ai

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"essaycoach/internal/domain"
	"essaycoach/internal/metrics"
)

// guardSweepSize is the slot count above which idle clients are forgotten
const guardSweepSize = 1024

// Guard admits at most one in-flight AI request per client key and spaces
// consecutive requests from the same client by a minimum interval.
type Guard struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*clientSlot
}

type clientSlot struct {
	inFlight bool
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewGuard creates a guard; interval <= 0 disables spacing
func NewGuard(interval time.Duration) *Guard {
	return &Guard{
		interval: interval,
		now:      time.Now,
		clients:  make(map[string]*clientSlot),
	}
}

// Acquire claims the client's slot. The returned func releases it and must
// be called exactly once. Refusals are domain.RateLimitedError.
func (g *Guard) Acquire(clientKey string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	slot, ok := g.clients[clientKey]
	if !ok {
		if len(g.clients) >= guardSweepSize {
			g.sweep(now)
		}
		slot = &clientSlot{limiter: g.newLimiter()}
		g.clients[clientKey] = slot
	}

	if slot.inFlight {
		metrics.RecordGuardRejection("in_flight")
		return nil, &domain.RateLimitedError{RetryAfter: g.interval}
	}

	r := slot.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		metrics.RecordGuardRejection("interval")
		return nil, &domain.RateLimitedError{RetryAfter: delay}
	}

	slot.inFlight = true
	slot.lastUsed = now

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			slot.inFlight = false
			slot.lastUsed = g.now()
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) newLimiter() *rate.Limiter {
	if g.interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(g.interval), 1)
}

// sweep forgets clients idle for longer than the spacing interval; their
// limiter would admit them immediately anyway. Caller holds g.mu.
func (g *Guard) sweep(now time.Time) {
	for key, slot := range g.clients {
		if !slot.inFlight && now.Sub(slot.lastUsed) > g.interval {
			delete(g.clients, key)
		}
	}
}
