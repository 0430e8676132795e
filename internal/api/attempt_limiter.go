package api

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// attemptLimiter counts failed attempts per key inside a sliding window.
type attemptLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

func newAttemptLimiter(limit int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// blocked reports whether key is over the limit and how long until the oldest failure expires.
func (limiter *attemptLimiter) blocked(key string) (time.Duration, bool) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	recent := limiter.recentLocked(key, now)
	if len(recent) < limiter.limit {
		return 0, false
	}
	return recent[0].Add(limiter.window).Sub(now), true
}

func (limiter *attemptLimiter) fail(key string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	limiter.failures[key] = append(limiter.recentLocked(key, now), now)
}

func (limiter *attemptLimiter) clear(key string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	delete(limiter.failures, key)
}

func (limiter *attemptLimiter) recentLocked(key string, now time.Time) []time.Time {
	stamps := limiter.failures[key]
	cutoff := now.Add(-limiter.window)
	kept := stamps[:0]
	for _, stamp := range stamps {
		if stamp.After(cutoff) {
			kept = append(kept, stamp)
		}
	}
	if len(kept) == 0 {
		delete(limiter.failures, key)
		return nil
	}
	limiter.failures[key] = kept
	return kept
}

// attemptKey scopes failures to the client address and the account being targeted.
func attemptKey(c *fiber.Ctx, email string) string {
	address := strings.TrimSpace(c.IP())
	if address == "" {
		address = "unknown"
	}
	return address + "|" + strings.ToLower(strings.TrimSpace(email))
}

func tooManyAttempts(c *fiber.Ctx, retryAfter time.Duration, message string) error {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
	return apiError(c, fiber.StatusTooManyRequests, message)
}
