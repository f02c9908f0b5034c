package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"veritas/internal/domain"
)

// window mirrors the redis counter: hits keeps counting past the limit so a
// prober cannot learn the limit by watching which attempts are counted.
type window struct {
	hits    int64
	resetAt time.Time
}

// memoryLimiter is the single-process fallback when Redis is not configured.
// maxKeys bounds what a spoofed-IP flood can make the process remember.
type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

func NewMemoryLimiter(now func() time.Time, maxKeys int) domain.RateLimiter {
	if now == nil {
		now = time.Now
	}
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &memoryLimiter{
		now:     now,
		windows: make(map[string]*window),
		maxKeys: maxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, windowSize time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return unlimited(limit), nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[key]
	if w != nil && now.After(w.resetAt) {
		w = nil
	}
	if w == nil {
		if len(m.windows) >= m.maxKeys {
			m.sweep(now)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter key capacity exceeded")
		}
		w = &window{resetAt: now.Add(windowSize)}
		m.windows[key] = w
	}
	w.hits++
	return decide(limit, w.hits, w.resetAt), nil
}

func (m *memoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
