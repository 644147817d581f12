package dto

import (
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// CSSRepairRequest 样式检查请求
type CSSRepairRequest struct {
	CSS string `json:"css" binding:"required"`
	Fix bool   `json:"fix"`
}

// CSSRepairResponse 样式检查结果，Fixed 仅在 fix=true 时返回
type CSSRepairResponse struct {
	Valid   bool                `json:"valid"`
	Issues  []entity.StyleIssue `json:"issues"`
	Fixed   *string             `json:"fixed,omitempty"`
	Applied []entity.StyleIssue `json:"applied,omitempty"`
}

// UnicodeRequest Unicode 还原请求
type UnicodeRequest struct {
	Content string `json:"content" binding:"required"`
}

// UnicodeResponse Unicode 还原结果
type UnicodeResponse struct {
	Content string `json:"content"`
	Changed bool   `json:"changed"`
	Decoded int    `json:"decoded"`
}

// ImageCheckRequest 图片引用校验请求
type ImageCheckRequest struct {
	Files   []entity.GeneratedFile `json:"files" binding:"required,min=1,max=500"`
	AutoFix bool                   `json:"autoFix"`
}

// ImageCheckResponse 图片引用校验结果，Files 仅在 autoFix 时返回
type ImageCheckResponse struct {
	Checked  int                     `json:"checked"`
	Broken   []entity.BrokenImageRef `json:"broken"`
	Replaced int                     `json:"replaced"`
	CanFix   bool                    `json:"canFix"`
	Failures []string                `json:"failures,omitempty"`
	Files    []entity.GeneratedFile  `json:"files,omitempty"`
}
