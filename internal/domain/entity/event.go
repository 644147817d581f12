package entity

import "encoding/json"

// EventKind 进度事件类型
type EventKind string

const (
	EventThinking EventKind = "thinking"
	EventProgress EventKind = "progress"
	EventCode     EventKind = "code"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// IsTerminal complete 与 error 为终止事件，一个流只有一个
func (k EventKind) IsTerminal() bool {
	return k == EventComplete || k == EventError
}

// ProgressEvent 单个请求内有序、只追加的进度事件
type ProgressEvent struct {
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewProgressEvent 序列化 payload 创建事件
func NewProgressEvent(kind EventKind, payload any) (ProgressEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ProgressEvent{}, err
	}
	return ProgressEvent{Kind: kind, Payload: data}, nil
}
