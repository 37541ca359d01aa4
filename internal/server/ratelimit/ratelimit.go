// Package ratelimit provides per-client token bucket rate limiting.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously at rate tokens per second.
type bucket struct {
	capacity float64
	rate     float64
	tokens   float64
	last     time.Time
	seen     time.Time
}

func (b *bucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
}

// take consumes a token if one is available.
func (b *bucket) take(now time.Time) bool {
	b.refill(now)
	b.seen = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// until returns how long until n tokens are available.
func (b *bucket) until(n float64) time.Duration {
	if b.tokens >= n || b.rate <= 0 {
		return 0
	}
	return time.Duration((n - b.tokens) / b.rate * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	config *Config

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks whether a request from clientID to path is allowed and consumes a token.
// Buckets are shared by every path a rule matches.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	rule := MatchRule(path, method, l.config.Rules)
	if rule == nil {
		rule = &Rule{Path: "default", Method: "*", Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := clientID + " " + rule.Method + " " + rule.Path
	b, ok := l.buckets[key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &bucket{
			capacity: float64(capacity),
			rate:     float64(rule.Limit) / rule.Window.Seconds(),
			tokens:   float64(capacity),
			last:     now,
		}
		l.buckets[key] = b
	}

	allowed := b.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: int(b.tokens),
		ResetTime: now.Add(b.until(b.capacity)),
	}
	if !allowed {
		info.RetryAfter = b.until(1)
	}
	return allowed, info
}

// Len returns the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets not used within IdleTTL.
func (l *Limiter) evictIdle() {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-ttl)
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
