package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
)

// CreditGate 额度闸门
type CreditGate interface {
	GetCost(action credit.Action, cc credit.CostContext) int
	CanProceed(ctx context.Context, c credit.Caller, action credit.Action, cost int) (credit.Decision, error)
	Check(ctx context.Context, c credit.Caller, action credit.Action, cc credit.CostContext) (credit.Decision, error)
	Deduct(ctx context.Context, userID string, amount int, reason, source string) (*entity.CreditTransaction, error)
	Transactions(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error)
}

var _ CreditGate = (*credit.Gate)(nil)

// CreditHandler 额度处理器
type CreditHandler struct {
	gate CreditGate
}

// NewCreditHandler 创建额度处理器
func NewCreditHandler(gate CreditGate) *CreditHandler {
	return &CreditHandler{gate: gate}
}

// Check 查询调用方能否执行动作
// @Summary 额度检查
// @Tags Credits
// @Produce json
// @Param action query string true "动作"
// @Param modelId query string false "模型"
// @Param quality query string false "质量档位"
// @Param target query string false "部署目标"
// @Success 200 {object} dto.Response[credit.Decision]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/credits/check [get]
func (h *CreditHandler) Check(c *gin.Context) {
	var q dto.CreditCheckQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	action, ok := credit.ParseAction(q.Action)
	if !ok {
		dto.BadRequest(c, "unknown action: "+q.Action)
		return
	}

	decision, err := h.gate.Check(c.Request.Context(), middleware.GetCaller(c), action, credit.CostContext{
		ModelID: q.ModelID,
		Quality: q.Quality,
		Intent:  q.Intent,
		Target:  q.Target,
	})
	if err != nil {
		dto.AppError(c, err, nil)
		return
	}
	dto.Success(c, decision)
}

// Transactions 当前用户的额度流水
// @Summary 额度流水
// @Tags Credits
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]entity.CreditTransaction]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/credits/transactions [get]
func (h *CreditHandler) Transactions(c *gin.Context) {
	page := dto.BindPage(c)
	res, err := h.gate.Transactions(c.Request.Context(), middleware.GetCaller(c).UserID, page.Pagination())
	if err != nil {
		dto.AppError(c, err, nil)
		return
	}
	dto.Paged(c, res)
}
