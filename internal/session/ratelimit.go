package session

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// DefaultAuthRate allows one credential attempt per second per client
	// with a small burst; navigation routes are never limited.
	DefaultAuthRate  = rate.Limit(1)
	DefaultAuthBurst = 5
)

// RateLimit returns middleware applying a per-client-IP token bucket.
func RateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(r, burst)
			limiters[key] = l
		}
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts"})
			c.Abort()
			return
		}
		c.Next()
	}
}
