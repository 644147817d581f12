package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/stream"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// WorkflowRunner 编排执行
type WorkflowRunner interface {
	Prepare(ctx context.Context, caller credit.Caller, req *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error)
	Stream(ctx context.Context, caller credit.Caller, plan *orchestrator.Plan, sink orchestrator.EventSink) *entity.WorkflowResult
}

// WorkflowHandler 编排处理器
type WorkflowHandler struct {
	runner WorkflowRunner
}

// NewWorkflowHandler 创建编排处理器
func NewWorkflowHandler(runner WorkflowRunner) *WorkflowHandler {
	return &WorkflowHandler{runner: runner}
}

// Stream 运行编排并以 SSE 推送进度
// @Summary 运行编排
// @Description 分类意图、检查额度后执行，事件依次为 thinking / progress / code，最后是 complete 或 error
// @Tags Workflow
// @Accept json
// @Produce text/event-stream
// @Param body body dto.WorkflowRequest true "编排请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/workflows/stream [post]
func (h *WorkflowHandler) Stream(c *gin.Context) {
	var req dto.WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	caller := middleware.GetCaller(c)

	plan, decision, err := h.runner.Prepare(ctx, caller, req.ToEntity(callerID(caller)))
	if err != nil {
		dto.AppError(c, err, decision)
		return
	}

	emitter, err := stream.New(ctx, c.Writer)
	if err != nil {
		logger.Error(ctx, "failed to open event stream", err)
		dto.InternalError(c, "streaming not supported")
		return
	}
	defer emitter.Close()

	h.runner.Stream(ctx, caller, plan, emitter)
}

func callerID(c credit.Caller) string {
	if c.UserID != "" {
		return c.UserID
	}
	return "guest:" + c.GuestSessionID
}
