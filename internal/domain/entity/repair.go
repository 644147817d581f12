package entity

// ImageFailureReason 图片引用失效原因
type ImageFailureReason string

const (
	ImageReasonHTTPError    ImageFailureReason = "http_error"
	ImageReasonTimeout      ImageFailureReason = "timeout"
	ImageReasonNotImage     ImageFailureReason = "not_image"
	ImageReasonHallucinated ImageFailureReason = "hallucinated"
	ImageReasonNetwork      ImageFailureReason = "network_error"
)

// BrokenImageRef 失效的图片引用
type BrokenImageRef struct {
	URL         string             `json:"url"`
	File        string             `json:"file"`
	Reason      ImageFailureReason `json:"reason"`
	StatusCode  int                `json:"statusCode,omitempty"`
	Replacement string             `json:"replacement,omitempty"`
}

// StyleIssueKind 样式自定义属性缺陷类型
type StyleIssueKind string

const (
	StyleEmptyValue        StyleIssueKind = "empty-value"
	StyleUnclosedReference StyleIssueKind = "unclosed-reference"
	StyleInvalidSyntax     StyleIssueKind = "invalid-syntax"
	StyleMissingTerminator StyleIssueKind = "missing-terminator"
	StyleInvalidAtRule     StyleIssueKind = "invalid-at-rule"
)

// StyleFixAction 修复动作
type StyleFixAction string

const (
	StyleActionReplaceLine StyleFixAction = "replace-line"
	StyleActionRemoveBlock StyleFixAction = "remove-block"
)

// Severity 缺陷严重程度
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// LineRange 闭区间行范围（从 1 开始）
type LineRange struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// StyleIssue 样式缺陷
type StyleIssue struct {
	Kind        StyleIssueKind `json:"kind"`
	Line        int            `json:"line"`
	Column      int            `json:"column"`
	Text        string         `json:"text"`
	Suggestion  string         `json:"suggestion"`
	Severity    Severity       `json:"severity"`
	Action      StyleFixAction `json:"action"`
	RemoveRange *LineRange     `json:"removeRange,omitempty"`
	File        string         `json:"file,omitempty"`
}
