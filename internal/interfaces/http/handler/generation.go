package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
)

// GenerationHandler 生成记录处理器
type GenerationHandler struct {
	runs repository.GenerationRunRepository
}

// NewGenerationHandler 创建生成记录处理器
func NewGenerationHandler(runs repository.GenerationRunRepository) *GenerationHandler {
	return &GenerationHandler{runs: runs}
}

// GetBySessionID 按会话查询生成记录
// 记录由异步消费者写入，刚完成的运行可能短暂返回 404。
// @Summary 生成记录
// @Tags Generations
// @Produce json
// @Param sessionId path string true "会话 ID"
// @Success 200 {object} dto.Response[entity.GenerationRun]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/generations/{sessionId} [get]
func (h *GenerationHandler) GetBySessionID(c *gin.Context) {
	sessionID := c.Param("sessionId")
	run, err := h.runs.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load generation"), nil)
		return
	}
	if run == nil {
		dto.AppError(c, apperrors.ErrGenerationNotFound.WithDetail(sessionID), nil)
		return
	}
	dto.Success(c, run)
}
