package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// 质量档位对应的生成模型
var qualityModels = map[entity.QualityTier]string{
	entity.QualityLight:    "v0-1.5-sm",
	entity.QualityStandard: "v0-1.5-md",
	entity.QualityPro:      "v0-1.5-lg",
	entity.QualityMax:      "v0-gpt-5",
}

type v0File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Locked  bool   `json:"locked,omitempty"`
}

type v0Version struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	DemoURL string   `json:"demoUrl"`
	Files   []v0File `json:"files"`
}

type v0Chat struct {
	ID            string     `json:"id"`
	WebURL        string     `json:"webUrl"`
	Demo          string     `json:"demo,omitempty"`
	LatestVersion *v0Version `json:"latestVersion"`
	Files         []v0File   `json:"files,omitempty"`
}

type v0Attachment struct {
	URL string `json:"url"`
}

type v0ModelConfig struct {
	ModelID string `json:"modelId"`
}

type v0CreateChatRequest struct {
	Message            string         `json:"message"`
	ChatPrivacy        string         `json:"chatPrivacy,omitempty"`
	ModelConfiguration *v0ModelConfig `json:"modelConfiguration,omitempty"`
	Attachments        []v0Attachment `json:"attachments,omitempty"`
}

type v0SendMessageRequest struct {
	Message            string         `json:"message"`
	ModelConfiguration *v0ModelConfig `json:"modelConfiguration,omitempty"`
	Attachments        []v0Attachment `json:"attachments,omitempty"`
}

// V0Client v0 Platform API 代码生成客户端
type V0Client struct {
	http  *httpClient
	model string
}

var _ orchestrator.CodeGenerator = (*V0Client)(nil)

// NewV0Client 创建代码生成客户端
func NewV0Client(cfg config.CollaboratorConfig) *V0Client {
	return &V0Client{
		http:  newHTTPClient("codegen", cfg, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
		model: cfg.Model,
	}
}

// Generate 新建会话或在已有会话上发送追加消息
func (c *V0Client) Generate(ctx context.Context, req *orchestrator.CodegenRequest) (*orchestrator.CodegenResult, error) {
	message := buildMessage(req)
	attachments := buildAttachments(req)
	modelCfg := c.modelConfig(req.Quality)

	var chat v0Chat
	if req.SessionID != "" {
		body := v0SendMessageRequest{Message: message, ModelConfiguration: modelCfg, Attachments: attachments}
		if err := c.http.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(req.SessionID)+"/messages", body, &chat); err != nil {
			return nil, err
		}
		if chat.ID == "" {
			chat.ID = req.SessionID
		}
	} else {
		body := v0CreateChatRequest{Message: message, ChatPrivacy: "private", ModelConfiguration: modelCfg, Attachments: attachments}
		if err := c.http.do(ctx, http.MethodPost, "/chats", body, &chat); err != nil {
			return nil, err
		}
	}

	result := toCodegenResult(&chat)
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("codegen returned no files for chat %s", chat.ID)
	}
	logger.Info(ctx, "code generated",
		"session_id", result.SessionID,
		"version_id", result.VersionID,
		"files", len(result.Files),
	)
	return result, nil
}

func (c *V0Client) modelConfig(q entity.QualityTier) *v0ModelConfig {
	if m, ok := qualityModels[q]; ok {
		return &v0ModelConfig{ModelID: m}
	}
	if c.model != "" {
		return &v0ModelConfig{ModelID: c.model}
	}
	return nil
}

func toCodegenResult(chat *v0Chat) *orchestrator.CodegenResult {
	res := &orchestrator.CodegenResult{SessionID: chat.ID, PreviewURL: chat.Demo}
	files := chat.Files
	if v := chat.LatestVersion; v != nil {
		res.VersionID = v.ID
		if v.DemoURL != "" {
			res.PreviewURL = v.DemoURL
		}
		if len(v.Files) > 0 {
			files = v.Files
		}
	}
	for _, f := range files {
		res.Files = append(res.Files, entity.GeneratedFile{Path: f.Name, Content: f.Content, Locked: f.Locked})
	}
	return res
}

// buildMessage 将搜索结果、生成图片与已有文件拼入提示词
func buildMessage(req *orchestrator.CodegenRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)

	if len(req.SearchContext) > 0 {
		b.WriteString("\n\nReference material from a web search:\n")
		for i, r := range req.SearchContext {
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, r.Title, r.URL, r.Snippet)
		}
	}
	if len(req.Images) > 0 {
		b.WriteString("\n\nUse these generated images in the design:\n")
		for _, img := range req.Images {
			if strings.HasPrefix(img.URL, "data:") {
				fmt.Fprintf(&b, "- attached image for %q\n", img.Prompt)
				continue
			}
			fmt.Fprintf(&b, "- %s\n", img.URL)
		}
	}
	if len(req.MediaRefs) > 0 {
		b.WriteString("\n\nUse these media library assets:\n")
		for _, m := range req.MediaRefs {
			if m.Alt != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", m.URL, m.Alt)
			} else {
				fmt.Fprintf(&b, "- %s\n", m.URL)
			}
		}
	}
	if len(req.ExistingFiles) > 0 {
		b.WriteString("\n\nThe project already contains these files; keep locked files unchanged:\n")
		for _, f := range req.ExistingFiles {
			if f.Locked {
				fmt.Fprintf(&b, "- %s (locked)\n", f.Path)
			} else {
				fmt.Fprintf(&b, "- %s\n", f.Path)
			}
		}
	}
	return b.String()
}

func buildAttachments(req *orchestrator.CodegenRequest) []v0Attachment {
	var out []v0Attachment
	for _, img := range req.Images {
		if img.URL != "" {
			out = append(out, v0Attachment{URL: img.URL})
		}
	}
	return out
}
