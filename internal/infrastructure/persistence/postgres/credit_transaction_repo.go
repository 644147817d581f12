package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
)

// CreditTransactionRepository 额度流水仓储实现
type CreditTransactionRepository struct {
	client *Client
}

// NewCreditTransactionRepository 创建额度流水仓储
func NewCreditTransactionRepository(client *Client) *CreditTransactionRepository {
	return &CreditTransactionRepository{client: client}
}

// Create 追加流水
func (r *CreditTransactionRepository) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	ctx, span := tracer.Start(ctx, "postgres.CreditTransactionRepository.Create")
	defer span.End()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := getDB(ctx, r.client.db).Create(tx).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create credit transaction: %w", err)
	}
	return nil
}

// ListByUser 按时间倒序分页获取用户流水
func (r *CreditTransactionRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditTransactionRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db).Model(&entity.CreditTransaction{}).Where("user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count credit transactions: %w", err)
	}

	var items []*entity.CreditTransaction
	if err := db.Order("created_at DESC").Order("id DESC").
		Offset(pagination.Offset()).Limit(pagination.Limit()).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	return repository.NewPagedResult(items, total, pagination), nil
}
