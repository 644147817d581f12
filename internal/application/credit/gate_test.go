package credit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) DeductCredits(_ context.Context, id string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.Credits = max(u.Credits-amount, 0)
	return u.Credits, nil
}

func (m *memUsers) AddCredits(_ context.Context, id string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.Credits += amount
	return u.Credits, nil
}

type memTxs struct {
	items []*entity.CreditTransaction
}

func (m *memTxs) Create(_ context.Context, tx *entity.CreditTransaction) error {
	m.items = append(m.items, tx)
	return nil
}

func (m *memTxs) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	var out []*entity.CreditTransaction
	for _, tx := range m.items {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return repository.NewPagedResult(out, int64(len(out)), p), nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memGuests struct {
	used map[string]bool
}

func (m *memGuests) key(guestID, category string, day time.Time) string {
	return day.Format("2006-01-02") + ":" + category + ":" + guestID
}

func (m *memGuests) IsUsed(_ context.Context, guestID, category string, day time.Time) (bool, error) {
	return m.used[m.key(guestID, category, day)], nil
}

func (m *memGuests) MarkUsed(_ context.Context, guestID, category string, day time.Time) (bool, error) {
	k := m.key(guestID, category, day)
	if m.used[k] {
		return false, nil
	}
	m.used[k] = true
	return true, nil
}

type fixture struct {
	gate   *Gate
	users  *memUsers
	txs    *memTxs
	guests *memGuests
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  &memUsers{users: map[string]*entity.User{}},
		txs:    &memTxs{},
		guests: &memGuests{used: map[string]bool{}},
		now:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
	cfg := config.CreditsConfig{
		Costs:              map[string]int{"generate": 1, "refine": 1, "chat": 0, "image": 1, "search": 1, "deploy": 2},
		QualityMultipliers: map[string]int{"light": 1, "standard": 1, "pro": 2, "max": 3},
		TestUserIDs:        []string{"tester"},
	}
	f.gate = NewGate(f.users, f.txs, passthroughTx{}, f.guests, cfg)
	f.gate.now = func() time.Time { return f.now }
	return f
}

func TestGetCost(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		action Action
		cc     CostContext
		want   int
	}{
		{"chat is free", ActionChat, CostContext{}, 0},
		{"generate default quality", ActionGenerate, CostContext{}, 1},
		{"generate pro", ActionGenerate, CostContext{Quality: entity.QualityPro}, 2},
		{"refine max via model id", ActionRefine, CostContext{ModelID: "max"}, 3},
		{"deploy ignores quality", ActionDeploy, CostContext{Quality: entity.QualityMax}, 2},
		{"intent clarify", ActionIntent, CostContext{Intent: entity.IntentClarify}, 0},
		{"intent chat", ActionIntent, CostContext{Intent: entity.IntentChatResponse}, 0},
		{"intent image only", ActionIntent, CostContext{Intent: entity.IntentImageOnly}, 1},
		{"intent code only", ActionIntent, CostContext{Intent: entity.IntentCodeOnly}, 1},
		{"intent simple code", ActionIntent, CostContext{Intent: entity.IntentSimpleCode}, 1},
		{"intent image and code", ActionIntent, CostContext{Intent: entity.IntentImageAndCode}, 2},
		{"intent search and code", ActionIntent, CostContext{Intent: entity.IntentWebSearchAndCode}, 2},
		{"intent needs context", ActionIntent, CostContext{Intent: entity.IntentNeedsCodeContext}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.gate.GetCost(tt.action, tt.cc))
		})
	}
}

func TestCanProceedAuthenticated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, entity.NewUser("u1", "u1@example.com", "", 1)))

	d, err := f.gate.CanProceed(ctx, Caller{UserID: "u1"}, ActionGenerate, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.NotNil(t, d.Balance)
	assert.Equal(t, 1, *d.Balance)

	d, err = f.gate.CanProceed(ctx, Caller{UserID: "u1"}, ActionDeploy, 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.RequireCredits)
	assert.True(t, apperrors.HasCode(d.Err(), apperrors.CodeInsufficientCredits))

	d, err = f.gate.CanProceed(ctx, Caller{UserID: "ghost"}, ActionGenerate, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.RequireAuth)
}

func TestTestIdentityAlwaysPassesAndIsNotBilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, entity.NewUser("tester", "t@example.com", "", 0)))

	d, err := f.gate.CanProceed(ctx, Caller{UserID: "tester"}, ActionDeploy, 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Exempt)
	assert.Equal(t, 0, d.Cost)

	txn, err := f.gate.Deduct(ctx, "tester", 2, "deploy", "api")
	require.NoError(t, err)
	assert.Equal(t, 0, txn.Amount)
	assert.Equal(t, entity.CreditTypeExempted, txn.Type)

	u, _ := f.users.GetByID(ctx, "tester")
	assert.Equal(t, 0, u.Credits)
}

func TestDeductForUnseededTestIdentitySkipsUserLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.gate.Deduct(ctx, "tester", 1, "generate", "api")
	require.NoError(t, err)
	assert.Equal(t, entity.CreditTypeExempted, txn.Type)
	assert.Equal(t, 0, txn.Amount)
	assert.Equal(t, 0, txn.BalanceAfter)

	require.Len(t, f.txs.items, 1)
	assert.Equal(t, "tester", f.txs.items[0].UserID)
	_, ok := f.users.users["tester"]
	assert.False(t, ok)
}

func TestGuestOneFreeGenerationAndRefinementPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Caller{GuestSessionID: "g-1"}

	for _, action := range []Action{ActionGenerate, ActionRefine} {
		d, err := f.gate.CanProceed(ctx, guest, action, 1)
		require.NoError(t, err)
		assert.True(t, d.Allowed, action)
		require.NoError(t, f.gate.MarkGuestUsed(ctx, guest.GuestSessionID, action))

		d, err = f.gate.CanProceed(ctx, guest, action, 1)
		require.NoError(t, err)
		assert.False(t, d.Allowed, action)
		assert.Equal(t, ReasonGuestUsed, d.Reason)
		assert.True(t, apperrors.HasCode(d.Err(), apperrors.CodeGuestQuotaExhausted))
	}
	assert.Empty(t, f.txs.items)

	usage, err := f.gate.GuestUsage(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, &entity.GuestUsage{GenerateUsed: true, RefineUsed: true}, usage)

	f.now = f.now.Add(24 * time.Hour)
	d, err := f.gate.CanProceed(ctx, guest, ActionGenerate, 1)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestGuestPaidActionsRequireAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.gate.CanProceed(ctx, Caller{GuestSessionID: "g-2"}, ActionDeploy, 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.RequireAuth)
	assert.True(t, apperrors.HasCode(d.Err(), apperrors.CodeAuthRequired))

	d, err = f.gate.CanProceed(ctx, Caller{GuestSessionID: "g-2"}, ActionChat, 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = f.gate.CanProceed(ctx, Caller{}, ActionGenerate, 1)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonGuestNoSession, d.Reason)
}

func TestDeductFloorsAtZeroAndRecordsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, entity.NewUser("u2", "u2@example.com", "", 1)))

	txn, err := f.gate.Deduct(ctx, "u2", 2, "image_and_code", "workflow")
	require.NoError(t, err)
	assert.Equal(t, -2, txn.Amount)
	assert.Equal(t, 0, txn.BalanceAfter)
	assert.Equal(t, entity.CreditTypeUsage, txn.Type)

	page, err := f.gate.Transactions(ctx, "u2", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = f.gate.Deduct(ctx, "missing", 1, "x", "workflow")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))

	_, err = f.gate.Deduct(ctx, "u2", -1, "x", "workflow")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCreditAmount))
}
