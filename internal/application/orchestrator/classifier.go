package orchestrator

import (
	"context"
	"strings"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// 分类器来源
const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// Classification 意图分类结果
type Classification struct {
	Intent          entity.WorkIntent `json:"intent"`
	Reasoning       string            `json:"reasoning,omitempty"`
	ClarifyQuestion string            `json:"clarifyQuestion,omitempty"`
	ChatReply       string            `json:"chatResponse,omitempty"`
	SearchQuery     string            `json:"searchQuery,omitempty"`
	ImagePrompt     string            `json:"imagePrompt,omitempty"`
	CodePrompt      string            `json:"codeInstruction,omitempty"`
	Source          string            `json:"-"`
}

// Classifier 意图分类器
type Classifier interface {
	Classify(ctx context.Context, req *entity.WorkflowRequest) (*Classification, error)
}

const complexRefinementWords = 25

var structuralWords = []string{
	"restructure", "redesign", "rewrite", "refactor", "entire", "whole site",
	"all pages", "new page", "navigation", "bygg om", "hela sidan",
}

// applyRefinementBias 迭代模式下把 code_only 细分为简单修改或需要上下文的修改
func applyRefinementBias(req *entity.WorkflowRequest, c *Classification) {
	if !req.IsRefinement() || c.Intent != entity.IntentCodeOnly {
		return
	}
	lower := strings.ToLower(req.Prompt)
	if len(strings.Fields(lower)) > complexRefinementWords || containsAny(lower, structuralWords) {
		c.Intent = entity.IntentNeedsCodeContext
		return
	}
	c.Intent = entity.IntentSimpleCode
}

// fillDefaults 补全执行所需的字段
func fillDefaults(req *entity.WorkflowRequest, c *Classification) {
	prompt := strings.TrimSpace(req.Prompt)
	if c.CodePrompt == "" && c.Intent.NeedsCodegen() {
		c.CodePrompt = prompt
	}
	if c.SearchQuery == "" && c.Intent.NeedsSearch() {
		c.SearchQuery = prompt
	}
	if c.ImagePrompt == "" && c.Intent.NeedsImage() {
		c.ImagePrompt = prompt
	}
	if c.Intent == entity.IntentClarify && c.ClarifyQuestion == "" {
		c.ClarifyQuestion = defaultClarifyQuestion
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
