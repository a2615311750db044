// Package ratelimit provides per-key cooldown enforcement for sensitive
// operations (login attempts, OTP requests, data exports). Each key gets an
// independent token bucket sized for one attempt per cooldown window.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCooldown applies to keys registered without an explicit cooldown.
const DefaultCooldown = time.Second

// Limiter enforces a minimum interval between attempts per key. A fresh key
// is always allowed immediately; subsequent attempts within the key's
// cooldown window are rejected. Safe for concurrent use.
type Limiter struct {
	entries sync.Map // map[string]*limiterEntry
	logger  *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// limiterEntry holds a rate limiter and last access time for cleanup.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	cooldown   time.Duration
	mu         sync.Mutex
}

// NewLimiter creates a Limiter and starts a background goroutine that evicts
// keys idle for at least twice their cooldown. Call Close to stop it.
func NewLimiter(logger *slog.Logger) *Limiter {
	l := &Limiter{
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go l.cleanupStale(30 * time.Second)
	return l
}

// Allow reports whether an attempt for key may proceed under the given
// cooldown. The first attempt for a key always succeeds; the next succeeds
// only after the cooldown has elapsed. A non-positive cooldown falls back to
// DefaultCooldown. Changing the cooldown of a known key takes effect on the
// current window.
func (l *Limiter) Allow(key string, cooldown time.Duration) bool {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	entry := l.getEntry(key, cooldown)
	allowed := entry.limiter.Allow()
	if !allowed {
		l.logger.Debug("rate limit exceeded",
			slog.String("key", key),
			slog.Duration("cooldown", cooldown))
	}
	return allowed
}

// Reset forgets a key so that its next attempt is allowed immediately.
func (l *Limiter) Reset(key string) {
	l.entries.Delete(key)
}

// RetryAfter returns how long the caller must wait before the next attempt
// for key would be allowed. Zero means an attempt would succeed now.
func (l *Limiter) RetryAfter(key string) time.Duration {
	val, ok := l.entries.Load(key)
	if !ok {
		return 0
	}
	entry := val.(*limiterEntry)

	reservation := entry.limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return delay
}

// Close stops the cleanup goroutine and waits for it to exit.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// getEntry retrieves or creates the entry for a key, updating its last
// access time and applying cooldown changes.
func (l *Limiter) getEntry(key string, cooldown time.Duration) *limiterEntry {
	if val, ok := l.entries.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		if entry.cooldown != cooldown {
			entry.cooldown = cooldown
			entry.limiter.SetLimit(rate.Every(cooldown))
		}
		entry.mu.Unlock()
		return entry
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Every(cooldown), 1),
		lastAccess: time.Now(),
		cooldown:   cooldown,
	}
	if val, loaded := l.entries.LoadOrStore(key, entry); loaded {
		return val.(*limiterEntry)
	}
	return entry
}

// cleanupStale removes entries that haven't been accessed for at least twice
// their cooldown. Runs until Close is called.
func (l *Limiter) cleanupStale(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			now := time.Now()
			l.entries.Range(func(key, value interface{}) bool {
				entry := value.(*limiterEntry)
				entry.mu.Lock()
				idle := entry.cooldown * 2
				if idle < interval {
					idle = interval
				}
				shouldDelete := entry.lastAccess.Before(now.Add(-idle))
				entry.mu.Unlock()

				if shouldDelete {
					l.entries.Delete(key)
				}
				return true
			})
		}
	}
}
