package server

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a global and a per-conversation request budget using
// token buckets.
type RateLimiter struct {
	mu       sync.Mutex
	global   *rate.Limiter
	byOwner  map[string]*rate.Limiter
	perOwner rate.Limit
	burst    int
}

// NewRateLimiter builds a limiter from requests-per-minute budgets.
func NewRateLimiter(globalRPM, perOwnerRPM int) *RateLimiter {
	globalBurst := globalRPM
	if globalBurst < 1 {
		globalBurst = 1
	}
	ownerBurst := perOwnerRPM
	if ownerBurst < 1 {
		ownerBurst = 1
	}
	return &RateLimiter{
		global:   rate.NewLimiter(rate.Limit(float64(globalRPM)/60.0), globalBurst),
		byOwner:  make(map[string]*rate.Limiter),
		perOwner: rate.Limit(float64(perOwnerRPM) / 60.0),
		burst:    ownerBurst,
	}
}

// Allow reports whether a request for owner fits both budgets.
func (rl *RateLimiter) Allow(owner string) bool {
	if !rl.global.Allow() {
		return false
	}
	rl.mu.Lock()
	limiter, ok := rl.byOwner[owner]
	if !ok {
		limiter = rate.NewLimiter(rl.perOwner, rl.burst)
		rl.byOwner[owner] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}
