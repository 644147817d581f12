package orchestrator

import (
	"context"
	"errors"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// ErrCollaboratorDisabled 协作服务未配置
var ErrCollaboratorDisabled = errors.New("collaborator not configured")

// CodegenRequest 代码生成请求；SessionID 非空时在已有会话上迭代
type CodegenRequest struct {
	Prompt        string
	SessionID     string
	ExistingFiles []entity.GeneratedFile
	Images        []entity.GeneratedImage
	MediaRefs     []entity.MediaRef
	SearchContext []entity.SearchResult
	Quality       entity.QualityTier
}

// CodegenResult 代码生成结果
type CodegenResult struct {
	Files      []entity.GeneratedFile
	PreviewURL string
	SessionID  string
	VersionID  string
}

// CodeGenerator 外部代码生成服务
type CodeGenerator interface {
	Generate(ctx context.Context, req *CodegenRequest) (*CodegenResult, error)
}

// WebSearcher 外部网页搜索服务，结果按相关度排序
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]entity.SearchResult, error)
}

// ImageGenerator 外部图像生成服务
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*entity.GeneratedImage, error)
}

// ChatResponder 对话回复（带模型降级）
type ChatResponder interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// Repairer 产物修复流水线
type Repairer interface {
	Run(ctx context.Context, files []entity.GeneratedFile, onStep func(string)) ([]entity.GeneratedFile, *entity.RepairReport, error)
}
