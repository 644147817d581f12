package repository

import (
	"context"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// CreditTransactionRepository 额度流水仓储接口
type CreditTransactionRepository interface {
	// Create 追加流水
	Create(ctx context.Context, tx *entity.CreditTransaction) error

	// ListByUser 按时间倒序分页获取用户流水
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.CreditTransaction], error)
}
