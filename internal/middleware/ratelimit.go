package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration)
}

// RateLimit rejects requests beyond limit per (client ip, route) per window.
func RateLimit(limiter Limiter, metrics *service.MetricsService, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ok, retryAfter := limiter.Allow(c.Request.Context(), c.ClientIP()+"|"+path, limit, window)
		if !ok {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			metrics.RecordRateLimited(path)
			response.Abort(c, appErrors.WithDetails(appErrors.ErrRateLimited, map[string]interface{}{"retryAfterSeconds": seconds}))
			return
		}
		c.Next()
	}
}
