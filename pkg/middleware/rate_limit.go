package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mem "storefront/pkg/memcache"
	"storefront/pkg/utils"
)

// RateLimit rejects callers over their budget with 429. Limiter failures let the request through.
func RateLimit(limiter mem.Limiter, scope string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", "60")
			utils.RespondError(c, http.StatusTooManyRequests, "rate_limited", utils.ErrRateLimited.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
