package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
)

// GenerationRunRepository 生成记录仓储实现
type GenerationRunRepository struct {
	client *Client
}

// NewGenerationRunRepository 创建生成记录仓储
func NewGenerationRunRepository(client *Client) *GenerationRunRepository {
	return &GenerationRunRepository{client: client}
}

// Upsert 按 SessionID 写入或更新，重复投递的消息不会产生重复记录
func (r *GenerationRunRepository) Upsert(ctx context.Context, run *entity.GenerationRun) error {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRunRepository.Upsert")
	defer span.End()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	err := getDB(ctx, r.client.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"version_id", "intent", "cost", "status", "preview_url", "file_count", "error", "duration_ms", "updated_at",
		}),
	}).Create(run).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert generation run: %w", err)
	}
	return nil
}

// GetBySessionID 根据会话 ID 获取
func (r *GenerationRunRepository) GetBySessionID(ctx context.Context, sessionID string) (*entity.GenerationRun, error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRunRepository.GetBySessionID")
	defer span.End()

	var run entity.GenerationRun
	if err := getDB(ctx, r.client.db).First(&run, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get generation run: %w", err)
	}
	return &run, nil
}

// ListByCaller 获取调用方最近的生成记录
func (r *GenerationRunRepository) ListByCaller(ctx context.Context, callerID string, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationRun], error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRunRepository.ListByCaller")
	defer span.End()

	db := getDB(ctx, r.client.db).Model(&entity.GenerationRun{}).Where("caller_id = ?", callerID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count generation runs: %w", err)
	}

	var items []*entity.GenerationRun
	if err := db.Order("created_at DESC").Offset(pagination.Offset()).Limit(pagination.Limit()).Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation runs: %w", err)
	}
	return repository.NewPagedResult(items, total, pagination), nil
}
