// Package entity 定义领域实体
package entity

// WorkIntent 请求所需的工作类别，每个请求只有一个且选定后不再改变
type WorkIntent string

const (
	IntentChatResponse     WorkIntent = "chat_response"
	IntentClarify          WorkIntent = "clarify"
	IntentImageOnly        WorkIntent = "image_only"
	IntentWebSearchOnly    WorkIntent = "web_search_only"
	IntentCodeOnly         WorkIntent = "code_only"
	IntentSimpleCode       WorkIntent = "simple_code"
	IntentImageAndCode     WorkIntent = "image_and_code"
	IntentWebSearchAndCode WorkIntent = "web_search_and_code"
	IntentNeedsCodeContext WorkIntent = "needs_code_context"
)

// AllIntents 全部意图
var AllIntents = []WorkIntent{
	IntentChatResponse,
	IntentClarify,
	IntentImageOnly,
	IntentWebSearchOnly,
	IntentCodeOnly,
	IntentSimpleCode,
	IntentImageAndCode,
	IntentWebSearchAndCode,
	IntentNeedsCodeContext,
}

// IsValid 是否为已知意图
func (i WorkIntent) IsValid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// IsFree 只需要对话回复或澄清问题的意图不计费
func (i WorkIntent) IsFree() bool {
	return i == IntentChatResponse || i == IntentClarify
}

// IsCompound 需要多个协作服务的意图
func (i WorkIntent) IsCompound() bool {
	switch i {
	case IntentImageAndCode, IntentWebSearchAndCode, IntentNeedsCodeContext:
		return true
	}
	return false
}

// NeedsCodegen 是否调用代码生成服务
func (i WorkIntent) NeedsCodegen() bool {
	switch i {
	case IntentCodeOnly, IntentSimpleCode, IntentImageAndCode, IntentWebSearchAndCode, IntentNeedsCodeContext:
		return true
	}
	return false
}

// NeedsSearch 是否调用搜索服务
func (i WorkIntent) NeedsSearch() bool {
	return i == IntentWebSearchOnly || i == IntentWebSearchAndCode
}

// NeedsImage 是否调用图像生成服务
func (i WorkIntent) NeedsImage() bool {
	return i == IntentImageOnly || i == IntentImageAndCode
}

// TimeoutClass 路由超时类别：conversation / single / compound
func (i WorkIntent) TimeoutClass() string {
	switch {
	case i.IsFree():
		return "conversation"
	case i.IsCompound():
		return "compound"
	default:
		return "single"
	}
}
