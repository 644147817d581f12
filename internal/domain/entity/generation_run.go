package entity

import "time"

// GenerationStatus 生成记录状态
type GenerationStatus string

const (
	GenerationStatusCompleted GenerationStatus = "completed"
	GenerationStatusFailed    GenerationStatus = "failed"
	GenerationStatusDeployed  GenerationStatus = "deployed"
)

// GenerationRun 一次生成的持久化记录，由 job-worker 异步写入
type GenerationRun struct {
	ID         string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionID  string           `json:"session_id" gorm:"type:varchar(128);uniqueIndex"`
	VersionID  string           `json:"version_id,omitempty" gorm:"type:varchar(128)"`
	CallerID   string           `json:"caller_id" gorm:"type:varchar(128);index"`
	Intent     WorkIntent       `json:"intent" gorm:"type:varchar(32);not null"`
	Cost       int              `json:"cost" gorm:"not null;default:0"`
	Status     GenerationStatus `json:"status" gorm:"type:varchar(16);not null"`
	PreviewURL string           `json:"preview_url,omitempty" gorm:"type:text"`
	FileCount  int              `json:"file_count" gorm:"not null;default:0"`
	Error      string           `json:"error,omitempty" gorm:"type:text"`
	DurationMs int64            `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt  time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

func (GenerationRun) TableName() string {
	return "generation_runs"
}

// GenerationCompletedEvent 一次运行结束后发布到消息流的事件
type GenerationCompletedEvent struct {
	RunID      string     `json:"run_id"`
	SessionID  string     `json:"session_id"`
	VersionID  string     `json:"version_id,omitempty"`
	CallerID   string     `json:"caller_id"`
	Intent     WorkIntent `json:"intent"`
	Cost       int        `json:"cost"`
	Success    bool       `json:"success"`
	PreviewURL string     `json:"preview_url,omitempty"`
	FileCount  int        `json:"file_count"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	FinishedAt time.Time  `json:"finished_at"`
}

// ToRun 转换为持久化记录
func (e *GenerationCompletedEvent) ToRun() *GenerationRun {
	status := GenerationStatusCompleted
	if !e.Success {
		status = GenerationStatusFailed
	}
	return &GenerationRun{
		ID:         e.RunID,
		SessionID:  e.SessionID,
		VersionID:  e.VersionID,
		CallerID:   e.CallerID,
		Intent:     e.Intent,
		Cost:       e.Cost,
		Status:     status,
		PreviewURL: e.PreviewURL,
		FileCount:  e.FileCount,
		Error:      e.Error,
		DurationMs: e.DurationMs,
	}
}
