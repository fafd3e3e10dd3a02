// Package ratelimit provides a fixed-window in-memory request limiter used
// to guard state-changing endpoints (listing creation, reports, contact
// requests). It deters abuse; it is not precise quota accounting — bursts
// across a window boundary can briefly exceed the configured maximum.
package ratelimit

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config is the per-check window configuration. Each caller picks its own
// window and maximum, so different actions are limited independently.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultConfig applies when a caller passes a zero Config.
var DefaultConfig = Config{
	Window:      time.Minute,
	MaxRequests: 10,
}

// Result reports the outcome of a limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RetryAfterHeader renders RetryAfter as whole seconds for the Retry-After
// response header, rounding up so clients never retry early.
func (r Result) RetryAfterHeader() string {
	secs := int64(math.Ceil(r.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter is a shared in-memory bucket store. Construct one at process
// start and hand it to request handlers; all methods are safe for
// concurrent use.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	lastCleanup  time.Time
	cleanupEvery time.Duration
	now          func() time.Time
}

// NewLimiter creates an empty limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		buckets:      make(map[string]*bucket),
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
}

// Key builds the canonical "action:identity" bucket key. Identities are
// trimmed and lowercased so differently-cased emails share a bucket.
func Key(scope, identity string) string {
	return scope + ":" + strings.ToLower(strings.TrimSpace(identity))
}

// Check records one request against the key's current window and reports
// whether it is allowed. A missing or expired bucket starts a new window.
func (l *Limiter) Check(key string, cfg Config) Result {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig.Window
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultConfig.MaxRequests
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupLocked(now)

	b, ok := l.buckets[key]
	if !ok || !b.resetAt.After(now) {
		resetAt := now.Add(cfg.Window)
		l.buckets[key] = &bucket{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: cfg.MaxRequests - 1, ResetAt: resetAt}
	}

	if b.count >= cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, RetryAfter: b.resetAt.Sub(now), ResetAt: b.resetAt}
	}

	b.count++
	return Result{Allowed: true, Remaining: cfg.MaxRequests - b.count, ResetAt: b.resetAt}
}

// cleanupLocked drops expired buckets at most once per cleanup interval so
// the map does not grow without bound. Caller holds l.mu.
func (l *Limiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) < l.cleanupEvery {
		return
	}
	for key, b := range l.buckets {
		if !b.resetAt.After(now) {
			delete(l.buckets, key)
		}
	}
	l.lastCleanup = now
}
