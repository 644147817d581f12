// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/utils"
)

const callerKey = "caller"

// IdentityConfig 身份解析配置
type IdentityConfig struct {
	Secret      string
	Issuer      string
	GuestHeader string
	GuestCookie string
	// CookieMaxAge 游客 Cookie 有效期（秒）
	CookieMaxAge int
}

// Identity 解析调用方身份
// 携带 Bearer Token 的请求必须通过校验，否则 401；未携带时按游客处理，
// 游客会话 ID 依次取自请求头、Cookie，都没有时生成新的并写回 Cookie。
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 365 * 24 * 3600
	}

	return func(c *gin.Context) {
		var caller credit.Caller

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || token == "" {
				abortUnauthorized(c, "invalid authorization format")
				return
			}
			claims, err := jwtManager.ParseToken(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, utils.ErrExpiredToken) {
					msg = "token expired"
				}
				abortUnauthorized(c, msg)
				return
			}
			caller.UserID = claims.UserID
		}

		caller.GuestSessionID = guestSessionID(c, cfg)

		SetCaller(c, caller)
		ctx := c.Request.Context()
		if caller.UserID != "" {
			ctx = logger.WithContext(ctx, logger.UserIDKey, caller.UserID)
		} else {
			ctx = logger.WithContext(ctx, logger.SessionIDKey, caller.GuestSessionID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func guestSessionID(c *gin.Context, cfg IdentityConfig) string {
	if cfg.GuestHeader != "" {
		if id := strings.TrimSpace(c.GetHeader(cfg.GuestHeader)); validGuestID(id) {
			return id
		}
	}
	if cfg.GuestCookie == "" {
		return ""
	}
	if id, err := c.Cookie(cfg.GuestCookie); err == nil && validGuestID(id) {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.GuestCookie, id, cfg.CookieMaxAge, "/", "", c.Request.TLS != nil, true)
	return id
}

func validGuestID(id string) bool {
	return id != "" && len(id) <= 128
}

// SetCaller 设置当前调用方
func SetCaller(c *gin.Context, caller credit.Caller) {
	c.Set(callerKey, caller)
}

// GetCaller 获取当前调用方
func GetCaller(c *gin.Context) credit.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(credit.Caller); ok {
			return caller
		}
	}
	return credit.Caller{}
}

// RequireUser 只允许已登录用户访问
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetCaller(c).IsGuest() {
			abortUnauthorized(c, "sign in required")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":        http.StatusUnauthorized,
		"message":     msg,
		"requireAuth": true,
		"trace_id":    c.GetString("trace_id"),
	})
}
