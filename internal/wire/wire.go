//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/llm"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/persistence/postgres"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/persistence/redis"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/handler"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/router"
)

// InitializeDataLayer 初始化数据层（job-worker 使用）
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		RepoSet,
		ProvideRedisClient,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化数据库（bootstrap 使用）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		RepoSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		CreditSet,
		LLMSet,
		RepairSet,
		WorkflowSet,
		RouterSet,
	)
	return nil, nil, nil
}

// RepoSet 数据库客户端、仓储与接口绑定
var RepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewCreditTransactionRepository,
	postgres.NewGenerationRunRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.CreditTransactionRepository), new(*postgres.CreditTransactionRepository)),
	wire.Bind(new(repository.GenerationRunRepository), new(*postgres.GenerationRunRepository)),
)

// RedisSet Redis 客户端、缓存、游客额度与限流
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideCache,
	redis.NewGuestUsageStore,
	wire.Bind(new(credit.GuestUsageStore), new(*redis.GuestUsageStore)),
	ProvideLimiters,
	ProvideCompletionPublisher,
)

// CreditSet 额度闸门
var CreditSet = wire.NewSet(
	ProvideCreditGate,
	wire.Bind(new(orchestrator.CreditGate), new(*credit.Gate)),
	wire.Bind(new(handler.CreditGate), new(*credit.Gate)),
)

// LLMSet 模型工厂、对话降级与意图分类
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	llm.NewFallbackChatFromFactory,
	wire.Bind(new(orchestrator.ChatResponder), new(*llm.FallbackChat)),
	ProvideClassifier,
)

// RepairSet 产物修复
var RepairSet = wire.NewSet(
	ProvideImageChecker,
	wire.Bind(new(handler.ImageChecker), new(*imagecheck.Checker)),
	ProvideRepairPipeline,
	wire.Bind(new(orchestrator.Repairer), new(*repair.Pipeline)),
)

// WorkflowSet 编排器与执行器
var WorkflowSet = wire.NewSet(
	ProvideCollaborators,
	orchestrator.New,
	ProvideRunner,
	wire.Bind(new(handler.WorkflowRunner), new(*orchestrator.Runner)),
)

// RouterSet 处理器与路由器
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewWorkflowHandler,
	handler.NewCreditHandler,
	handler.NewRateLimitHandler,
	handler.NewChatHandler,
	handler.NewRepairHandler,
	handler.NewGenerationHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
