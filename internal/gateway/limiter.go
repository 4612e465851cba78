package gateway

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedCallers = 10000
	limiterTTL        = 10 * time.Minute
)

// callerLimiter keeps one token bucket per caller. Idle callers expire from
// the table so it stays bounded.
type callerLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newCallerLimiter(rps float64, burst int) *callerLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &callerLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedCallers, nil, limiterTTL),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (l *callerLimiter) Allow(key string) bool {
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(key, lim)
	}
	return lim.Allow()
}
