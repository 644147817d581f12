package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
)

const sourceChat = "chat"

// ChatHandler 对话处理器
type ChatHandler struct {
	chat orchestrator.ChatResponder
	gate CreditGate
}

// NewChatHandler 创建对话处理器
func NewChatHandler(chat orchestrator.ChatResponder, gate CreditGate) *ChatHandler {
	return &ChatHandler{chat: chat, gate: gate}
}

// Reply 单轮对话，回复成功后扣费
// @Summary 对话
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "消息"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 402 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Reply(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	caller := middleware.GetCaller(c)
	cost := h.gate.GetCost(credit.ActionChat, credit.CostContext{})

	decision, err := h.gate.CanProceed(ctx, caller, credit.ActionChat, cost)
	if err != nil {
		dto.AppError(c, err, nil)
		return
	}
	if !decision.Allowed {
		metrics.PolicyRejections.WithLabelValues(decision.Reason).Inc()
		dto.AppError(c, decision.Err(), decision)
		return
	}

	reply, err := h.chat.Reply(ctx, req.Message)
	if err != nil {
		logger.Error(ctx, "chat reply failed", err)
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeCollaboratorError, "chat model unavailable"), nil)
		return
	}

	resp := dto.ChatResponse{Reply: reply, Cost: decision.Cost}
	if decision.Cost > 0 && !caller.IsGuest() {
		txn, err := h.gate.Deduct(ctx, caller.UserID, decision.Cost, "chat", sourceChat)
		if err != nil {
			logger.Error(ctx, "failed to deduct chat credits", err, "user_id", caller.UserID)
		} else {
			resp.Balance = &txn.BalanceAfter
		}
	}
	dto.Success(c, resp)
}
