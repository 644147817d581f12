// Package credit 实现额度闸门：价格表、放行判断与扣费
//
// 已登录用户按余额判断；游客按匿名会话每天各一次免费生成与迭代，只有已用/未用两种状态。
// 扣费只在编排成功后进行，与编排本身不在同一事务中：同一用户的两个并发请求可能都通过预检查。
package credit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
)

// GuestUsageStore 游客每日一次性额度存储
type GuestUsageStore interface {
	IsUsed(ctx context.Context, guestID, category string, day time.Time) (bool, error)
	MarkUsed(ctx context.Context, guestID, category string, day time.Time) (bool, error)
}

// Caller 调用方身份；UserID 为空即游客
type Caller struct {
	UserID         string
	GuestSessionID string
}

// IsGuest 是否为游客
func (c Caller) IsGuest() bool {
	return c.UserID == ""
}

// Decision 放行判断结果
type Decision struct {
	Allowed        bool               `json:"canProceed"`
	Reason         string             `json:"reason,omitempty"`
	Balance        *int               `json:"balance,omitempty"`
	Cost           int                `json:"cost"`
	GuestUsage     *entity.GuestUsage `json:"guestUsage,omitempty"`
	RequireAuth    bool               `json:"requireAuth,omitempty"`
	RequireCredits bool               `json:"requireCredits,omitempty"`
	Exempt         bool               `json:"-"`
}

// Err 拒绝时返回对应的策略错误
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonGuestUsed:
		return apperrors.ErrGuestQuotaExhausted.WithDetail(d.Reason)
	case d.RequireAuth:
		return apperrors.ErrAuthRequired.WithDetail(d.Reason)
	default:
		return apperrors.ErrInsufficientCredits.WithDetail(d.Reason)
	}
}

// 拒绝原因
const (
	ReasonOK             = "ok"
	ReasonExempt         = "test identity"
	ReasonFree           = "free action"
	ReasonInsufficient   = "insufficient credits"
	ReasonUserNotFound   = "user not found"
	ReasonGuestUsed      = "free guest usage already used today"
	ReasonGuestAuth      = "sign in required for this action"
	ReasonGuestNoSession = "missing guest session"
)

// Gate 额度闸门
type Gate struct {
	users  repository.UserRepository
	txs    repository.CreditTransactionRepository
	tx     repository.Transactor
	guests GuestUsageStore
	cfg    config.CreditsConfig
	loc    *time.Location
	now    func() time.Time
}

// NewGate 创建额度闸门
func NewGate(
	users repository.UserRepository,
	txs repository.CreditTransactionRepository,
	tx repository.Transactor,
	guests GuestUsageStore,
	cfg config.CreditsConfig,
) *Gate {
	loc := time.UTC
	if cfg.GuestTimezone != "" {
		if l, err := time.LoadLocation(cfg.GuestTimezone); err == nil {
			loc = l
		}
	}
	return &Gate{
		users:  users,
		txs:    txs,
		tx:     tx,
		guests: guests,
		cfg:    cfg,
		loc:    loc,
		now:    time.Now,
	}
}

// isExempt 内部测试身份判断，放行与免计费都只经过这里
func (g *Gate) isExempt(c Caller) bool {
	return c.UserID != "" && slices.Contains(g.cfg.TestUserIDs, c.UserID)
}

// CanProceed 判断调用方能否执行动作，cost 为 GetCost 的结果
func (g *Gate) CanProceed(ctx context.Context, c Caller, action Action, cost int) (Decision, error) {
	if g.isExempt(c) {
		return Decision{Allowed: true, Reason: ReasonExempt, Cost: 0, Exempt: true}, nil
	}
	if c.IsGuest() {
		return g.guestDecision(ctx, c, action, cost)
	}

	user, err := g.users.GetByID(ctx, c.UserID)
	if err != nil {
		return Decision{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load user")
	}
	if user == nil {
		return Decision{Reason: ReasonUserNotFound, Cost: cost, RequireAuth: true}, nil
	}

	balance := user.Credits
	d := Decision{Balance: &balance, Cost: cost}
	switch {
	case cost <= 0:
		d.Allowed, d.Reason = true, ReasonFree
	case balance >= cost:
		d.Allowed, d.Reason = true, ReasonOK
	default:
		d.Reason = ReasonInsufficient
		d.RequireCredits = true
	}
	return d, nil
}

func (g *Gate) guestDecision(ctx context.Context, c Caller, action Action, cost int) (Decision, error) {
	usage, err := g.GuestUsage(ctx, c.GuestSessionID)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Cost: cost, GuestUsage: usage}
	if cost <= 0 {
		d.Allowed, d.Reason = true, ReasonFree
		return d, nil
	}

	category, ok := action.GuestCategory()
	if !ok {
		d.Reason = ReasonGuestAuth
		d.RequireAuth = true
		d.GuestUsage = nil
		return d, nil
	}
	if c.GuestSessionID == "" {
		d.Reason = ReasonGuestNoSession
		d.RequireAuth = true
		return d, nil
	}

	if guestUsed(usage, category) {
		d.Reason = ReasonGuestUsed
		d.RequireAuth = true
		return d, nil
	}
	d.Allowed, d.Reason = true, ReasonOK
	return d, nil
}

// GuestUsage 游客当日额度使用情况
func (g *Gate) GuestUsage(ctx context.Context, guestID string) (*entity.GuestUsage, error) {
	usage := &entity.GuestUsage{}
	if guestID == "" {
		return usage, nil
	}
	day := g.now().In(g.loc)

	var err error
	if usage.GenerateUsed, err = g.guests.IsUsed(ctx, guestID, string(ActionGenerate), day); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to read guest usage")
	}
	if usage.RefineUsed, err = g.guests.IsUsed(ctx, guestID, string(ActionRefine), day); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to read guest usage")
	}
	return usage, nil
}

func guestUsed(u *entity.GuestUsage, category string) bool {
	switch Action(category) {
	case ActionGenerate:
		return u.GenerateUsed
	case ActionRefine:
		return u.RefineUsed
	}
	return false
}

// MarkGuestUsed 游客成功执行后记录当日已使用
func (g *Gate) MarkGuestUsed(ctx context.Context, guestID string, action Action) error {
	category, ok := action.GuestCategory()
	if !ok || guestID == "" {
		return nil
	}
	marked, err := g.guests.MarkUsed(ctx, guestID, category, g.now().In(g.loc))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to record guest usage")
	}
	if !marked {
		logger.Warn(ctx, "guest usage already recorded", "category", category)
	}
	return nil
}

// Deduct 扣费并追加流水，余额不足时归零；测试身份记一条 0 额度的豁免流水
func (g *Gate) Deduct(ctx context.Context, userID string, amount int, reason, source string) (*entity.CreditTransaction, error) {
	if amount < 0 {
		return nil, apperrors.ErrInvalidCreditAmount.WithDetail(fmt.Sprintf("amount=%d", amount))
	}

	txn := &entity.CreditTransaction{
		UserID: userID,
		Type:   entity.CreditTypeUsage,
		Reason: reason,
		Source: source,
	}
	if g.isExempt(Caller{UserID: userID}) {
		return g.recordExempt(ctx, txn)
	}

	err := g.tx.WithTransaction(ctx, func(ctx context.Context) error {
		balance, err := g.users.DeductCredits(ctx, userID, amount)
		if err != nil {
			return err
		}
		txn.Amount = -amount
		txn.BalanceAfter = balance
		return g.txs.Create(ctx, txn)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound.WithDetail(userID)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to deduct credits")
	}

	metrics.CreditsDeducted.WithLabelValues(source).Add(float64(amount))
	logger.Info(ctx, "credits deducted",
		"user_id", userID,
		"amount", amount,
		"balance_after", txn.BalanceAfter,
		"reason", reason,
		"source", source,
	)
	return txn, nil
}

// recordExempt 测试身份不读取用户记录，只追加豁免流水
func (g *Gate) recordExempt(ctx context.Context, txn *entity.CreditTransaction) (*entity.CreditTransaction, error) {
	txn.Type = entity.CreditTypeExempted
	if err := g.txs.Create(ctx, txn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to record exempt usage")
	}
	logger.Debug(ctx, "credit deduction exempted",
		"user_id", txn.UserID,
		"reason", txn.Reason,
		"source", txn.Source,
	)
	return txn, nil
}

// Transactions 用户流水
func (g *Gate) Transactions(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	res, err := g.txs.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list transactions")
	}
	return res, nil
}

// Check 额度查询接口：先计价再判断
func (g *Gate) Check(ctx context.Context, c Caller, action Action, cc CostContext) (Decision, error) {
	return g.CanProceed(ctx, c, action, g.GetCost(action, cc))
}
