package entity

import (
	"errors"
	"strings"
)

// QualityTier 生成质量档位
type QualityTier string

const (
	QualityLight    QualityTier = "light"
	QualityStandard QualityTier = "standard"
	QualityPro      QualityTier = "pro"
	QualityMax      QualityTier = "max"
)

// GeneratedFile 生成的源文件，Locked 的文件不会被修复流程改写
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Locked  bool   `json:"locked,omitempty"`
}

// MediaRef 媒体库引用
type MediaRef struct {
	URL         string `json:"url"`
	Alt         string `json:"alt,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// SearchResult 搜索结果
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// GeneratedImage 生成的图像
type GeneratedImage struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// WorkflowRequest 一次编排运行的输入
type WorkflowRequest struct {
	Prompt            string          `json:"prompt"`
	CallerID          string          `json:"callerId"`
	Quality           QualityTier     `json:"quality,omitempty"`
	ExistingSessionID string          `json:"existingSessionId,omitempty"`
	ExistingFiles     []GeneratedFile `json:"existingFiles,omitempty"`
	MediaRefs         []MediaRef      `json:"mediaRefs,omitempty"`
}

// IsRefinement 同时提供已有会话和已有文件时为迭代模式
func (r *WorkflowRequest) IsRefinement() bool {
	return r.ExistingSessionID != "" && len(r.ExistingFiles) > 0
}

// Validate 校验请求
func (r *WorkflowRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	switch r.Quality {
	case "", QualityLight, QualityStandard, QualityPro, QualityMax:
	default:
		return errors.New("unknown quality tier")
	}
	return nil
}

// RepairReport 修复流程汇总
type RepairReport struct {
	ImagesChecked  int              `json:"imagesChecked"`
	BrokenImages   []BrokenImageRef `json:"brokenImages,omitempty"`
	ImagesReplaced int              `json:"imagesReplaced"`
	StyleIssues    []StyleIssue     `json:"styleIssues,omitempty"`
	UnicodeFixed   int              `json:"unicodeFixed"`
	Failures       []string         `json:"failures,omitempty"`
}

// WorkflowResult 一次编排运行的结果
type WorkflowResult struct {
	Intent          WorkIntent       `json:"intent"`
	Message         string           `json:"message,omitempty"`
	Files           []GeneratedFile  `json:"files,omitempty"`
	PreviewURL      string           `json:"previewUrl,omitempty"`
	SessionID       string           `json:"sessionId,omitempty"`
	VersionID       string           `json:"versionId,omitempty"`
	SearchResults   []SearchResult   `json:"searchResults,omitempty"`
	GeneratedImages []GeneratedImage `json:"generatedImages,omitempty"`
	Steps           []string         `json:"steps"`
	ClarifyQuestion string           `json:"clarifyQuestion,omitempty"`
	Success         bool             `json:"success"`
	Error           string           `json:"error,omitempty"`
	Cost            int              `json:"cost"`
	Repair          *RepairReport    `json:"repair,omitempty"`
}

// ErrEmptySuccess 成功结果必须携带文件、消息或澄清问题之一
var ErrEmptySuccess = errors.New("successful result carries no files, message or clarification")

// Validate 校验结果不变式
func (r *WorkflowResult) Validate() error {
	if !r.Success {
		return nil
	}
	if len(r.Files) == 0 && r.Message == "" && r.ClarifyQuestion == "" {
		return ErrEmptySuccess
	}
	return nil
}

// Fail 将结果标记为失败
func (r *WorkflowResult) Fail(err error) *WorkflowResult {
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
