package repository

import (
	"context"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// GenerationRunRepository 生成记录仓储接口
//
// 记录由异步消费者写入，按会话查询时可能暂时不存在。
type GenerationRunRepository interface {
	// Upsert 按 SessionID 写入或更新
	Upsert(ctx context.Context, run *entity.GenerationRun) error

	// GetBySessionID 根据会话 ID 获取，不存在时返回 nil, nil
	GetBySessionID(ctx context.Context, sessionID string) (*entity.GenerationRun, error)

	// ListByCaller 获取调用方最近的生成记录
	ListByCaller(ctx context.Context, callerID string, pagination Pagination) (*PagedResult[*entity.GenerationRun], error)
}
