package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/eino/callback"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/workflow/prompt"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// FallbackChat 先调用主模型，失败时改用备用模型一次
type FallbackChat struct {
	models ModelProvider
	chain  []string
}

var _ orchestrator.ChatResponder = (*FallbackChat)(nil)

// NewFallbackChat 创建带降级的对话回复；chain 只使用前两个
func NewFallbackChat(models ModelProvider, chain []string) *FallbackChat {
	if len(chain) > 2 {
		chain = chain[:2]
	}
	return &FallbackChat{models: models, chain: chain}
}

// NewFallbackChatFromFactory 使用工厂配置的降级顺序
func NewFallbackChatFromFactory(f *EinoFactory) *FallbackChat {
	return NewFallbackChat(f, f.Chain())
}

// Reply 生成单轮对话回复
func (c *FallbackChat) Reply(ctx context.Context, message string) (string, error) {
	msgs, err := prompt.Default.Render(ctx, prompt.PromptChatReplyV1, map[string]any{"message": message})
	if err != nil {
		return "", err
	}
	out, err := c.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// Generate 依次尝试降级链上的模型
func (c *FallbackChat) Generate(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	if len(c.chain) == 0 {
		return nil, errors.New("no chat model configured")
	}

	var errs []string
	for i, name := range c.chain {
		out, err := c.generateWith(ctx, name, msgs)
		if err == nil {
			if i > 0 {
				logger.Warn(ctx, "chat served by fallback model", "provider", name)
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(ctx, "chat model failed", "provider", name, "error", err)
		errs = append(errs, fmt.Sprintf("%s: %v", name, err))
	}
	return nil, fmt.Errorf("all chat models failed: %s", strings.Join(errs, "; "))
}

func (c *FallbackChat) generateWith(ctx context.Context, name string, msgs []*schema.Message) (*schema.Message, error) {
	m, err := c.models.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	out, err := m.Generate(callback.WithProvider(ctx, name), msgs)
	if err != nil {
		return nil, err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, errors.New("empty response")
	}
	return out, nil
}
