package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// RateLimiter throttles expensive endpoints per client using in-memory
// token buckets. Generating a report walks every monitored collection,
// so an unthrottled caller can keep the store busy with metadata scans.
type RateLimiter struct {
	logger *logging.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	rps   rate.Limit
	burst int

	cleanupInterval time.Duration
	maxIdle         time.Duration

	requestsAllowed int64
	requestsBlocked int64
}

// clientLimiter pairs a token bucket with its last access time so that
// idle buckets can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst, tracked per client IP.
func NewRateLimiter(rps float64, burst int, logger *logging.Logger) *RateLimiter {
	rl := &RateLimiter{
		logger:          logger.WithComponent("rate-limiter"),
		limiters:        make(map[string]*clientLimiter),
		rps:             rate.Limit(rps),
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		maxIdle:         15 * time.Minute,
	}

	// Evict idle buckets in the background
	go rl.cleanupLimiters()

	return rl
}

// Middleware returns a gin handler enforcing the per-client limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := rl.limiterFor(clientIP)

		allowed := limiter.Allow()

		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

		if !allowed {
			retryAfter := time.Duration(float64(time.Second) / float64(rl.rps))
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))

			rl.mu.Lock()
			rl.requestsBlocked++
			rl.mu.Unlock()

			rl.logger.Warn("Request blocked by rate limit",
				logging.String("client_ip", clientIP),
				logging.String("path", c.Request.URL.Path))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Report generation is throttled, retry later",
				"code":        string(common.ErrCodeRateLimited),
				"retry_after": int(retryAfter.Seconds()),
			})
			c.Abort()
			return
		}

		rl.mu.Lock()
		rl.requestsAllowed++
		rl.mu.Unlock()

		c.Next()
	}
}

// limiterFor returns the bucket for a client, creating it on first use.
func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[clientIP]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[clientIP] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter
}

// cleanupLimiters periodically drops buckets that have been idle longer
// than maxIdle.
func (rl *RateLimiter) cleanupLimiters() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.maxIdle)

		rl.mu.Lock()
		for ip, entry := range rl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.limiters, ip)
			}
		}
		active := len(rl.limiters)
		rl.mu.Unlock()

		rl.logger.Debug("Rate limiter cleanup", logging.Int("active_limiters", active))
	}
}

// Metrics returns rate limiting counters.
func (rl *RateLimiter) Metrics() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"requests_allowed": rl.requestsAllowed,
		"requests_blocked": rl.requestsBlocked,
		"active_limiters":  len(rl.limiters),
	}
}
