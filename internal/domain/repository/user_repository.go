// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// DeductCredits 扣减余额，余额不足时归零，返回扣减后的余额
	DeductCredits(ctx context.Context, id string, amount int) (int, error)

	// AddCredits 增加余额，返回增加后的余额
	AddCredits(ctx context.Context, id string, amount int) (int, error)
}
