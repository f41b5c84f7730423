// Package ratelimit provides per-client request limiting with token buckets
// from golang.org/x/time/rate.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter manages rate limiting for multiple clients. Each client, endpoint
// and method combination gets its own bucket.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = NewConfig(true, 5, 10, nil, nil)
	}

	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
		now:     time.Now,
	}

	// Start cleanup goroutine if enabled
	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	limit, burst, every := l.resolve(endpoint, method)
	if limit <= 0 {
		// Unlimited endpoint (e.g., health check)
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.getBucket(clientID+":"+endpoint+":"+method, burst, every, now)

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	perSecond := float64(b.limiter.Limit())

	info := Info{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetTime: now,
	}
	if missing := float64(b.limiter.Burst()) - tokens; missing > 0 && perSecond > 0 {
		info.ResetTime = now.Add(secondsToDuration(missing / perSecond))
	}
	if !allowed && perSecond > 0 {
		info.RetryAfter = secondsToDuration((1 - tokens) / perSecond)
	}
	return allowed, info
}

// resolve returns the request limit for display, the bucket burst and the
// refill rate for an endpoint.
func (l *Limiter) resolve(endpoint, method string) (int, int, rate.Limit) {
	cfg := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if cfg == nil {
		burst := l.config.DefaultBurst
		if burst <= 0 {
			burst = max(1, int(math.Ceil(l.config.DefaultRPS)))
		}
		return burst, burst, rate.Limit(l.config.DefaultRPS)
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return 0, 0, 0
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit
	}
	return cfg.Limit, burst, rate.Every(cfg.Window / time.Duration(cfg.Limit))
}

// getBucket gets or creates the bucket for key.
func (l *Limiter) getBucket(key string, burst int, every rate.Limit, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(every, burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// cleanup removes old unused buckets to prevent memory leaks.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets idle for longer than IdleTTL.
func (l *Limiter) cleanupBuckets() {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
