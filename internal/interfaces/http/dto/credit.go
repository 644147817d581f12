package dto

import (
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// CreditCheckQuery 额度查询参数
type CreditCheckQuery struct {
	Action  string             `form:"action" binding:"required"`
	ModelID string             `form:"modelId"`
	Quality entity.QualityTier `form:"quality"`
	Target  string             `form:"target"`
	Intent  entity.WorkIntent  `form:"intent"`
}

// RateLimitStatusQuery 限流状态查询参数
type RateLimitStatusQuery struct {
	Scope string `form:"scope"`
}
