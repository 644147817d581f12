package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
)

// RateLimit 限流中间件
// limiter 为 nil 时直接放行；计数存储故障时同样放行，只记录日志。
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		identifier := ratelimit.ResolveIdentifier(c.Request, GetCaller(c).GuestSessionID)

		res, err := limiter.Check(ctx, identifier)
		if err != nil {
			logger.Warn(ctx, "rate limit store unavailable, allowing request",
				"scope", limiter.Name(),
				"error", err,
			)
			c.Next()
			return
		}

		c.Header(headerLimit, strconv.Itoa(res.Limit))
		c.Header(headerRemaining, strconv.Itoa(res.Remaining))
		c.Header(headerReset, strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			metrics.PolicyRejections.WithLabelValues("rate_limited").Inc()
			retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logger.Info(ctx, "rate limit exceeded",
				"scope", limiter.Name(),
				"identifier", identifier,
				"count", res.Count,
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":        apperrors.CodeTooManyRequests,
				"message":     "rate limit exceeded",
				"rateLimited": true,
				"remaining":   res.Remaining,
				"resetAt":     res.ResetAt,
				"trace_id":    c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
