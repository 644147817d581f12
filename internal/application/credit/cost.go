package credit

import (
	"strings"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// Action 计费动作
type Action string

const (
	ActionGenerate Action = "generate"
	ActionRefine   Action = "refine"
	ActionChat     Action = "chat"
	ActionImage    Action = "image"
	ActionSearch   Action = "search"
	ActionDeploy   Action = "deploy"
	// ActionIntent 按意图档位计价，用于编排流程
	ActionIntent Action = "intent"
)

// ParseAction 解析动作名，未知动作返回 false
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionGenerate, ActionRefine, ActionChat, ActionImage, ActionSearch, ActionDeploy, ActionIntent:
		return a, true
	}
	return "", false
}

// GuestCategory 游客一次性额度类别；非 generate/refine 的付费动作游客不可用
func (a Action) GuestCategory() (string, bool) {
	switch a {
	case ActionGenerate, ActionRefine:
		return string(a), true
	}
	return "", false
}

// CostContext 计价上下文
type CostContext struct {
	ModelID string             `json:"modelId,omitempty"`
	Quality entity.QualityTier `json:"quality,omitempty"`
	Intent  entity.WorkIntent  `json:"intent,omitempty"`
	Target  string             `json:"target,omitempty"`
}

// 意图档位价格
const (
	costFree     = 0
	costCheap    = 1
	costCompound = 2
)

// IntentCost 意图档位：免费（对话/澄清）0，单一动作 1，复合动作 2
func IntentCost(intent entity.WorkIntent) int {
	switch {
	case intent.IsFree():
		return costFree
	case intent.IsCompound():
		return costCompound
	default:
		return costCheap
	}
}

// GetCost 查询价格表
func (g *Gate) GetCost(action Action, cc CostContext) int {
	if action == ActionIntent {
		return IntentCost(cc.Intent)
	}

	base := g.cfg.Costs[string(action)]
	if action != ActionGenerate && action != ActionRefine {
		return base
	}

	quality := cc.Quality
	if quality == "" {
		quality = entity.QualityTier(cc.ModelID)
	}
	if m, ok := g.cfg.QualityMultipliers[string(quality)]; ok && m > 0 {
		return base * m
	}
	return base
}
