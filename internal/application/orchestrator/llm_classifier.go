package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/workflow/prompt"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/utils"
)

const maxListedFiles = 20

// LLMClassifier 使用 ChatModel 分类，输出无法解析时回退到规则分类
type LLMClassifier struct {
	model    model.BaseChatModel
	fallback Classifier
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier 创建 LLM 分类器
func NewLLMClassifier(m model.BaseChatModel, fallback Classifier) *LLMClassifier {
	if fallback == nil {
		fallback = HeuristicClassifier{}
	}
	return &LLMClassifier{model: m, fallback: fallback}
}

// Classify 实现 Classifier
func (c *LLMClassifier) Classify(ctx context.Context, req *entity.WorkflowRequest) (*Classification, error) {
	if c.model == nil {
		return c.fallback.Classify(ctx, req)
	}

	msgs, err := prompt.Default.Render(ctx, prompt.PromptIntentClassifierV1, map[string]any{
		"request": buildClassifierInput(req),
	})
	if err != nil {
		logger.Warn(ctx, "intent prompt unavailable, using heuristic", "error", err)
		return c.fallback.Classify(ctx, req)
	}

	out, err := c.model.Generate(ctx, msgs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(ctx, "intent model failed, using heuristic", "error", err)
		return c.fallback.Classify(ctx, req)
	}

	result, err := parseClassification(out.Content)
	if err != nil {
		logger.Warn(ctx, "intent model output rejected, using heuristic", "error", err)
		return c.fallback.Classify(ctx, req)
	}

	result.Source = SourceLLM
	applyRefinementBias(req, result)
	fillDefaults(req, result)
	return result, nil
}

func parseClassification(content string) (*Classification, error) {
	raw, err := utils.ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var c Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	c.Intent = entity.WorkIntent(strings.TrimSpace(string(c.Intent)))
	if !c.Intent.IsValid() {
		return nil, fmt.Errorf("unknown intent %q", c.Intent)
	}
	return &c, nil
}

func buildClassifierInput(req *entity.WorkflowRequest) string {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(strings.TrimSpace(req.Prompt))
	if !req.IsRefinement() {
		b.WriteString("\nThere is no existing site yet.")
		return b.String()
	}
	b.WriteString("\nThe user is refining an existing site with these files:")
	for i, f := range req.ExistingFiles {
		if i == maxListedFiles {
			fmt.Fprintf(&b, "\n- ... and %d more", len(req.ExistingFiles)-maxListedFiles)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(f.Path)
	}
	return b.String()
}
