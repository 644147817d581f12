package entity

import (
	"time"
)

// User 用户实体，Credits 为权威余额
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Credits   int       `json:"credits" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// NewUser 创建新用户
func NewUser(id, email, name string, credits int) *User {
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		Credits:   credits,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
