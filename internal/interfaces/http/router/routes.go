package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, limiters ratelimit.Set) {
	apiLimit := middleware.RateLimit(limiters[ratelimit.ScopeAPI])
	aiLimit := middleware.RateLimit(limiters[ratelimit.ScopeAI])
	uploadLimit := middleware.RateLimit(limiters[ratelimit.ScopeUpload])

	// 编排
	if h.Workflow != nil {
		v1.POST("/workflows/stream", aiLimit, h.Workflow.Stream)
	}

	// 对话
	if h.Chat != nil {
		v1.POST("/chat", aiLimit, h.Chat.Reply)
	}

	// 额度
	if h.Credit != nil {
		credits := v1.Group("/credits", apiLimit)
		{
			credits.GET("/check", h.Credit.Check)
			credits.GET("/transactions", middleware.RequireUser(), h.Credit.Transactions)
		}
	}

	// 限流状态（只读，不计数）
	if h.RateLimit != nil {
		v1.GET("/ratelimit/status", h.RateLimit.Status)
	}

	// 产物修复
	if h.Repair != nil {
		repair := v1.Group("/repair", uploadLimit)
		{
			repair.POST("/css", h.Repair.CSS)
			repair.POST("/unicode", h.Repair.Unicode)
			repair.POST("/images", h.Repair.Images)
		}
	}

	// 生成记录
	if h.Generation != nil {
		v1.GET("/generations/:sessionId", apiLimit, h.Generation.GetBySessionID)
	}
}
