package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/internal/models"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/logger"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// visitorTTL is how long an idle visitor's bucket is kept
	visitorTTL = 10 * time.Minute

	// ErrMsgRateLimited is returned with 429
	ErrMsgRateLimited = "Rate limit exceeded. Please try again later."
)

// RateLimiter implements an in-memory token bucket per client IP address.
// SECURITY: Protects the email provider quota against form flooding
type RateLimiter struct {
	name     string
	visitors *cache.Cache
	r        rate.Limit // requests per second
	b        int        // burst size
}

// NewRateLimiter creates a new rate limiter
// name: label used in metrics and logs
// r: requests per second (e.g., 0.1 means one request every ten seconds)
// b: burst size (e.g., 5 means allow bursts of up to 5 requests)
func NewRateLimiter(name string, r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		name:     name,
		visitors: cache.New(visitorTTL, 0),
		r:        r,
		b:        b,
	}
}

// getVisitor returns the rate limiter for a given IP address. Each hit
// refreshes the entry's expiry, so only idle visitors are evicted.
func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	if v, ok := rl.visitors.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		rl.visitors.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(rl.r, rl.b)
	if err := rl.visitors.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		// lost the race with a concurrent request from the same IP
		if v, ok := rl.visitors.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// RunCleanup evicts idle visitors every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.visitors.DeleteExpired()
		}
	}
}

// Visitors returns the number of tracked client IPs, expired entries included.
func (rl *RateLimiter) Visitors() int {
	return rl.visitors.ItemCount()
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// A zero rate disables the limiter
		if rl.r == 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !rl.getVisitor(ip).Allow() {
			metrics.RateLimitedRequests.WithLabelValues(rl.name).Inc()
			logger.Warn("Rate limit exceeded",
				zap.String("limiter", rl.name),
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ContactResponse{
				Success: false,
				Error:   ErrMsgRateLimited,
			})
			return
		}

		c.Next()
	}
}
