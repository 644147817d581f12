// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/handler"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
)

// Handlers 路由所需的处理器集合
type Handlers struct {
	Health     *handler.HealthHandler
	Workflow   *handler.WorkflowHandler
	Credit     *handler.CreditHandler
	RateLimit  *handler.RateLimitHandler
	Chat       *handler.ChatHandler
	Repair     *handler.RepairHandler
	Generation *handler.GenerationHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	limiters ratelimit.Set
}

// New 创建新的路由器；limiters 为空时不限流
func New(cfg *config.Config, handlers *Handlers, limiters ratelimit.Set) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiters: limiters,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsPath() string {
	if r.cfg.Observability.Metrics.Path != "" {
		return r.cfg.Observability.Metrics.Path
	}
	return "/metrics"
}

// setupMiddleware 配置全局中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
		GuestHeader:    r.cfg.Security.GuestSessionHeader,
	}))

	skip := []string{"/health", "/health/live", "/health/ready", r.metricsPath()}
	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, skip...))
		r.engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(skip...))
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	if h := r.handlers.Health; h != nil {
		r.engine.GET("/health", h.Health)
		r.engine.GET("/health/live", h.Live)
		r.engine.GET("/health/ready", h.Ready)
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.metricsPath(), gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	v1.Use(middleware.Identity(middleware.IdentityConfig{
		Secret:      r.cfg.Security.JWT.Secret,
		Issuer:      r.cfg.Security.JWT.Issuer,
		GuestHeader: r.cfg.Security.GuestSessionHeader,
		GuestCookie: r.cfg.Security.GuestSessionCookie,
	}))
	RegisterV1Routes(v1, r.handlers, r.limiters)
}
