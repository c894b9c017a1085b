package ratelimiter

import (
	"sync"
	"time"
)

// Token bucket per key (e.g. an upstream failure kind)
type TokenBucket struct {
	capacity int
	tokens   float64
	every    time.Duration // one token per interval
	last     time.Time
}

type Limiter struct {
	mu    sync.Mutex
	store map[string]*TokenBucket
	now   func() time.Time
}

func New() *Limiter { return &Limiter{store: map[string]*TokenBucket{}, now: time.Now} }

// Allow takes a token from key's bucket, refilled at one token per every.
// every <= 0 disables limiting.
func (l *Limiter) Allow(key string, every time.Duration, burst int) bool {
	if every <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.store[key]
	if !ok {
		b = &TokenBucket{capacity: max(1, burst), tokens: float64(max(1, burst)), every: every, last: now}
		l.store[key] = b
	}
	// refill
	b.tokens += float64(now.Sub(b.last)) / float64(b.every)
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.last = now
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Reset drops key's bucket so the next Allow starts full.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.store, key)
	l.mu.Unlock()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
