// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
// 策略拒绝时携带 rateLimited / requireCredits / requireAuth 标记，前端据此引导登录或充值。
type ErrorResponse struct {
	Code           int          `json:"code"`
	Message        string       `json:"message"`
	Error          *ErrorDetail `json:"error,omitempty"`
	RateLimited    bool         `json:"rateLimited,omitempty"`
	RequireCredits bool         `json:"requireCredits,omitempty"`
	RequireAuth    bool         `json:"requireAuth,omitempty"`
	Credits        any          `json:"credits,omitempty"`
	TraceID        string       `json:"trace_id,omitempty"`
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

// SuccessWithPage 返回带分页的成功响应
func SuccessWithPage[T any](c *gin.Context, data T, meta *PageMeta) {
	c.JSON(http.StatusOK, Response[T]{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
		Meta:    meta,
		TraceID: c.GetString("trace_id"),
	})
}

// Paged 将仓储分页结果作为成功响应返回
func Paged[T any](c *gin.Context, res *repository.PagedResult[T]) {
	SuccessWithPage(c, res.Items, NewPageMeta(res.Page, res.PageSize, int(res.Total)))
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    httpCode,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// ServiceUnavailable 返回 503 错误
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}

// AppError 按 AppError 的状态码与错误码返回；credits 为额度判断结果，可为 nil
func AppError(c *gin.Context, err error, credits any) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{
		Code:    status,
		Message: appErr.Message,
		Error: &ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		},
		TraceID: c.GetString("trace_id"),
	}
	switch appErr.Code {
	case apperrors.CodeTooManyRequests:
		resp.RateLimited = true
	case apperrors.CodeInsufficientCredits:
		resp.RequireCredits = true
	case apperrors.CodeAuthRequired, apperrors.CodeGuestQuotaExhausted:
		resp.RequireAuth = true
	}
	if appErr.IsPolicyRejection() {
		resp.Credits = credits
	}
	if status >= http.StatusInternalServerError {
		resp.Message = "internal server error"
		resp.Error.Details = ""
		if appErr.Code == apperrors.CodeCollaboratorError || appErr.Code == apperrors.CodeServiceUnavailable {
			resp.Message = appErr.Message
		}
	}
	c.JSON(status, resp)
}

// NewPageMeta 创建分页元数据
func NewPageMeta(page, pageSize, total int) *PageMeta {
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := total / pageSize
	if total%pageSize > 0 {
		totalPages++
	}
	return &PageMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
