package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	client *Client
}

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(user).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	var user entity.User
	if err := getDB(ctx, r.client.db).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// DeductCredits 扣减余额，余额不足时归零
func (r *UserRepository) DeductCredits(ctx context.Context, id string, amount int) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.DeductCredits")
	defer span.End()

	expr := gorm.Expr("CASE WHEN credits >= ? THEN credits - ? ELSE 0 END", amount, amount)
	return r.updateCredits(ctx, id, expr)
}

// AddCredits 增加余额
func (r *UserRepository) AddCredits(ctx context.Context, id string, amount int) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.AddCredits")
	defer span.End()

	return r.updateCredits(ctx, id, gorm.Expr("credits + ?", amount))
}

func (r *UserRepository) updateCredits(ctx context.Context, id string, expr any) (int, error) {
	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.User{}).Where("id = ?", id).Update("credits", expr)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update credits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, repository.ErrNotFound
	}

	var user entity.User
	if err := db.Select("credits").First(&user, "id = ?", id).Error; err != nil {
		return 0, fmt.Errorf("failed to read credits: %w", err)
	}
	return user.Credits, nil
}
