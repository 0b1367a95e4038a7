package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/resilience"
)

const pruneEvery = 1024

// RateLimitConfig sets the fixed-window allowance per caller.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Requests int           `yaml:"requests" mapstructure:"requests"`
	Window   time.Duration `yaml:"window" mapstructure:"window"`
}

// ApplyDefaults sets 60 requests per minute.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.Requests == 0 {
		c.Requests = 60
	}
	if c.Window == 0 {
		c.Window = time.Minute
	}
}

// Validate checks the allowance when limiting is on.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Requests <= 0 {
		return fmt.Errorf("rate_limit.requests must be positive (got: %d)", c.Requests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive (got: %s)", c.Window)
	}
	return nil
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(*gin.Context) string

// ClientKey buckets by API key fingerprint, falling back to client IP for
// routes that skip authentication.
func ClientKey(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyClient); ok {
		if s, ok := v.(string); ok && s != "" {
			return "key:" + s
		}
	}
	return "ip:" + c.ClientIP()
}

// RateLimit answers 429 RATE_LIMITED once a caller exhausts its window.
// Every response carries the X-RateLimit-* headers. Stale windows are
// pruned every pruneEvery requests.
func RateLimit(limiter *resilience.FixedWindowLimiter, key KeyFunc) gin.HandlerFunc {
	var seen atomic.Uint64
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		if seen.Add(1)%pruneEvery == 0 {
			limiter.Prune()
		}

		d := limiter.Allow(key(c))
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			wait := math.Ceil(time.Until(d.ResetAt).Seconds())
			c.Header("Retry-After", strconv.Itoa(int(max(wait, 1))))
			abortWithError(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}
