package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
)

// RateLimitHandler 限流状态处理器
type RateLimitHandler struct {
	limiters ratelimit.Set
}

// NewRateLimitHandler 创建限流状态处理器
func NewRateLimitHandler(limiters ratelimit.Set) *RateLimitHandler {
	return &RateLimitHandler{limiters: limiters}
}

// RateLimitStatusResponse 限流状态
type RateLimitStatusResponse struct {
	Scope string `json:"scope"`
	ratelimit.Status
}

// Status 只读查询当前窗口，不计数
// @Summary 限流状态
// @Tags RateLimit
// @Produce json
// @Param scope query string false "api / ai / upload，默认 api"
// @Success 200 {object} dto.Response[RateLimitStatusResponse]
// @Router /v1/ratelimit/status [get]
func (h *RateLimitHandler) Status(c *gin.Context) {
	var q dto.RateLimitStatusQuery
	_ = c.ShouldBindQuery(&q)
	if q.Scope == "" {
		q.Scope = ratelimit.ScopeAPI
	}

	limiter, ok := h.limiters.Get(q.Scope)
	if !ok {
		dto.BadRequest(c, "unknown scope: "+q.Scope)
		return
	}

	identifier := ratelimit.ResolveIdentifier(c.Request, middleware.GetCaller(c).GuestSessionID)
	st, err := limiter.Status(c.Request.Context(), identifier)
	if err != nil {
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "rate limit store unavailable"), nil)
		return
	}
	dto.Success(c, RateLimitStatusResponse{Scope: q.Scope, Status: st})
}
