package wire

import (
	"context"
	"net/http"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/ratelimit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/collaborator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/llm"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/messaging"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/persistence/postgres"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/persistence/redis"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/handler"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	PgClient          *postgres.Client
	TxManager         *postgres.TxManager
	UserRepo          *postgres.UserRepository
	CreditTxRepo      *postgres.CreditTransactionRepository
	GenerationRunRepo *postgres.GenerationRunRepository
	RedisClient       *redis.Client
}

// PostgresOnlyDataLayer 仅包含数据库的数据层
type PostgresOnlyDataLayer struct {
	PgClient          *postgres.Client
	TxManager         *postgres.TxManager
	UserRepo          *postgres.UserRepository
	CreditTxRepo      *postgres.CreditTransactionRepository
	GenerationRunRepo *postgres.GenerationRunRepository
}

const stockCachePrefix = "sajtmaskin"

// ProvidePostgresClient 提供数据库客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideCache 提供带前缀的缓存
func ProvideCache(client *redis.Client) *redis.Cache {
	return redis.NewCache(client, stockCachePrefix)
}

// ProvideLimiters 按配置创建各用途限流器；未启用时返回空集合
func ProvideLimiters(ctx context.Context, cfg *config.Config, client *redis.Client) (ratelimit.Set, func(), error) {
	rl := cfg.Security.RateLimit
	if !rl.Enabled {
		return ratelimit.Set{}, func() {}, nil
	}

	var store ratelimit.Store
	cleanup := func() {}
	switch rl.Store {
	case "redis":
		store = redis.NewRateLimitStore(client)
	default:
		mem := ratelimit.NewMemoryStore(rl.SweepInterval)
		store = mem
		cleanup = func() { _ = mem.Close() }
	}

	set := make(ratelimit.Set, len(rl.Limits))
	for scope, lc := range rl.Limits {
		if lc.Limit <= 0 || lc.Window <= 0 {
			logger.Warn(ctx, "skipping invalid rate limit", "scope", scope)
			continue
		}
		set[scope] = ratelimit.New(scope, store, lc.Limit, lc.Window)
	}
	return set, cleanup, nil
}

// ProvideCompletionPublisher 提供生成完成事件发布者；未启用时返回 nil
func ProvideCompletionPublisher(cfg *config.Config, client *redis.Client) orchestrator.CompletionPublisher {
	rs := cfg.Messaging.RedisStream
	if !rs.Enabled {
		return nil
	}
	return messaging.NewProducer(client.Redis(), messaging.Stream(cfg.Workflow.CompletedStream), int64(rs.MaxLen))
}

// ProvideCreditGate 提供额度闸门
func ProvideCreditGate(
	users repository.UserRepository,
	txs repository.CreditTransactionRepository,
	tx repository.Transactor,
	guests credit.GuestUsageStore,
	cfg *config.Config,
) *credit.Gate {
	return credit.NewGate(users, txs, tx, guests, cfg.Credits)
}

// ProvideClassifier 默认模型不可用时只使用规则分类
func ProvideClassifier(ctx context.Context, factory *llm.EinoFactory) orchestrator.Classifier {
	m, err := factory.Default(ctx)
	if err != nil {
		logger.Warn(ctx, "llm classifier disabled, using heuristics", "error", err)
		return orchestrator.HeuristicClassifier{}
	}
	return orchestrator.NewLLMClassifier(m, nil)
}

// ProvideCollaborators 只装配配置了凭据的协作服务
func ProvideCollaborators(cfg *config.Config, chat orchestrator.ChatResponder) orchestrator.Collaborators {
	cc := cfg.Collaborators
	collab := orchestrator.Collaborators{Chat: chat}
	if cc.Codegen.APIKey != "" {
		collab.Codegen = collaborator.NewV0Client(cc.Codegen)
	}
	if cc.Search.APIKey != "" {
		collab.Search = collaborator.NewSearchClient(cc.Search)
	}
	if cc.Image.APIKey != "" {
		collab.Images = collaborator.NewImageClient(cc.Image)
	}
	return collab
}

// ProvideImageChecker 提供图片引用校验器；未配置图库时只报告不替换
func ProvideImageChecker(cfg *config.Config, cache *redis.Cache) *imagecheck.Checker {
	var stock imagecheck.StockPhotoFinder
	if cfg.Collaborators.StockPhoto.APIKey != "" {
		stock = collaborator.NewStockPhotoClient(cfg.Collaborators.StockPhoto, cache, cfg.Repair.StockCacheTTL)
	}
	return imagecheck.New(&http.Client{}, stock, imagecheck.Config{
		Timeout:     cfg.Repair.CheckTimeout,
		Concurrency: cfg.Repair.CheckConcurrency,
	})
}

// ProvideRepairPipeline 提供修复流水线
func ProvideRepairPipeline(checker *imagecheck.Checker, cfg *config.Config) *repair.Pipeline {
	return repair.NewPipeline(checker, cfg.Repair.AutoFix)
}

// ProvideRunner 提供编排执行器
func ProvideRunner(
	orch *orchestrator.Orchestrator,
	gate orchestrator.CreditGate,
	publisher orchestrator.CompletionPublisher,
	cfg *config.Config,
) *orchestrator.Runner {
	return orchestrator.NewRunner(orch, gate, publisher, cfg.Workflow)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(pg *postgres.Client, rc *redis.Client, cfg *config.Config) *handler.HealthHandler {
	return handler.NewHealthHandler(pg, rc, cfg.App.Version)
}
