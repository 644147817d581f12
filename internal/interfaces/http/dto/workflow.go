package dto

import (
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// WorkflowRequest 编排请求
type WorkflowRequest struct {
	Prompt            string                 `json:"prompt" binding:"required"`
	Quality           entity.QualityTier     `json:"quality"`
	ExistingSessionID string                 `json:"existingSessionId"`
	ExistingFiles     []entity.GeneratedFile `json:"existingFiles" binding:"omitempty,max=500,dive"`
	MediaRefs         []entity.MediaRef      `json:"mediaRefs" binding:"omitempty,max=50"`
}

// ToEntity 转换为领域请求，callerID 由身份中间件解析
func (r *WorkflowRequest) ToEntity(callerID string) *entity.WorkflowRequest {
	return &entity.WorkflowRequest{
		Prompt:            r.Prompt,
		CallerID:          callerID,
		Quality:           r.Quality,
		ExistingSessionID: r.ExistingSessionID,
		ExistingFiles:     r.ExistingFiles,
		MediaRefs:         r.MediaRefs,
	}
}

// ChatRequest 对话请求
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=8000"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	Reply   string `json:"reply"`
	Cost    int    `json:"cost"`
	Balance *int   `json:"balance,omitempty"`
}

// GenerationResponse 生成记录
type GenerationResponse struct {
	*entity.GenerationRun
}
