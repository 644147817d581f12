package entity

import "time"

// CreditTransactionType 流水类型
type CreditTransactionType string

const (
	CreditTypeUsage    CreditTransactionType = "usage"
	CreditTypeGrant    CreditTransactionType = "grant"
	CreditTypeRefund   CreditTransactionType = "refund"
	CreditTypeExempted CreditTransactionType = "exempted"
)

// CreditTransaction 额度流水，只追加；余额以用户记录为准，本行为派生审计数据
type CreditTransaction struct {
	ID           string                `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string                `json:"user_id" gorm:"type:varchar(64);index;not null"`
	Amount       int                   `json:"amount" gorm:"not null"`
	BalanceAfter int                   `json:"balance_after" gorm:"not null"`
	Type         CreditTransactionType `json:"type" gorm:"type:varchar(16);not null"`
	Reason       string                `json:"reason" gorm:"type:varchar(255)"`
	Source       string                `json:"source" gorm:"type:varchar(64)"`
	CreatedAt    time.Time             `json:"created_at" gorm:"autoCreateTime;index"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
