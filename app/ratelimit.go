package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter idle entries older than this are pruned on access.
const limiterIdleTTL = 2 * time.Hour

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks a token bucket per client IP. Limits are per process;
// a multi-node deployment multiplies the effective quota by the node count.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

// RateDecision is the outcome of a rate-limit check, carrying everything the
// HTTP layer needs for the X-RateLimit-* and Retry-After headers.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// NewRateLimiter allows perHour requests per client per hour, with the full
// quota available as burst.
func NewRateLimiter(perHour int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Hour / time.Duration(perHour)),
		burst:   perHour,
	}
}

// Allow consumes one token for the client if available.
func (rl *RateLimiter) Allow(clientIP string) RateDecision {
	now := time.Now()

	rl.mu.Lock()
	rl.pruneLocked(now)
	entry, ok := rl.clients[clientIP]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientIP] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	decision := RateDecision{Limit: rl.burst}
	if entry.limiter.Allow() {
		decision.Allowed = true
		decision.Remaining = int(entry.limiter.Tokens())
		decision.Reset = now.Add(time.Duration(float64(time.Hour) / float64(rl.burst)))
		return decision
	}

	// Peek at the wait for the next token without consuming a reservation.
	reservation := entry.limiter.Reserve()
	retryAfter := reservation.Delay()
	reservation.Cancel()

	decision.Remaining = 0
	decision.RetryAfter = retryAfter
	decision.Reset = now.Add(retryAfter)
	return decision
}

// pruneLocked drops limiters that have been idle long enough to refill.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for ip, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.clients, ip)
		}
	}
}
