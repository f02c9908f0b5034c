// Package ratelimit budgets requests on the unauthenticated manifest lookup.
// Public codes are unguessable only as long as nobody can probe the code
// space quickly, so each caller gets a fixed window of attempts per route and
// the counter keeps counting past the limit; a prober sees its budget pinned
// at zero until the window rolls over.
package ratelimit

import (
	"time"

	"veritas/internal/domain"
)

// LookupKey names one caller's budget on one route. Keying by client IP and
// route keeps a prober on /manifest/public from draining the budget of any
// other surface.
func LookupKey(clientIP, route string) string {
	return "ip:" + clientIP + ":endpoint:" + route
}

// decide turns a window's raw hit count into the decision both backends
// return. hits counts every attempt including rejected ones.
func decide(limit int, hits int64, resetAt time.Time) domain.RateLimitDecision {
	remaining := limit - int(hits)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// unlimited is the decision for a route with no budget configured.
func unlimited(limit int) domain.RateLimitDecision {
	return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}
}
