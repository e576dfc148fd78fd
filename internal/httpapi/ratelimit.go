package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"frontdesk-platform/pkg/logger"
	"frontdesk-platform/pkg/utils"
)

// RateLimit applies a fixed-window per-IP limit to a route group. Providers
// burst webhook deliveries, so limits here should be generous; this exists to
// stop abuse, not to shape legitimate traffic.
//
// Fails open when Redis is unavailable: dropping webhooks loses billable
// usage, which costs more than briefly skipping the limiter.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + c.Request.URL.Path + ":" + c.ClientIP()
		allowed, err := utils.AllowRate(c.Request.Context(), rdb, key, limit, window)
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable", "err", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
