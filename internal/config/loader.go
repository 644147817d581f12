// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// envPattern 匹配 ${VAR} 或 ${VAR:default}
// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 从默认目录 configs/ 加载配置
func Load() (*Config, error) {
	return LoadFrom(configDir())
}

// LoadFrom 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置（缺省时完全依赖默认值）
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), true); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configDir 配置目录，可通过 CONFIG_DIR 覆盖
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "configs"
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		v.SetConfigFile(path)
		return nil
	}
	if err := v.MergeConfig(reader); err != nil {
		return fmt.Errorf("failed to merge processed config %s: %w", path, err)
	}
	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的保留原样
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		if submatch[2] != "" {
			return submatch[3]
		}
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 校验关键配置
func (c *Config) Validate() error {
	for name, l := range c.Security.RateLimit.Limits {
		if l.Limit <= 0 || l.Window <= 0 {
			return fmt.Errorf("rate limit %q: limit and window must be positive", name)
		}
	}
	switch c.Security.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rate limit store %q", c.Security.RateLimit.Store)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	for action, cost := range c.Credits.Costs {
		if cost < 0 {
			return fmt.Errorf("credit cost for %q must not be negative", action)
		}
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sajtmaskin")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值，写超时需覆盖最长的流式请求
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "330s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 数据库默认值
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "sajtmaskin")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.sqlite.path", "data/sajtmaskin.db")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 50)
	v.SetDefault("cache.redis.min_idle_conns", 5)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	// LLM 默认值
	v.SetDefault("llm.default_provider", "openai")

	// 消息默认值
	v.SetDefault("messaging.redis_stream.enabled", true)
	v.SetDefault("messaging.redis_stream.max_len", 10000)
	v.SetDefault("messaging.redis_stream.consumer_group", "generation-recorder")
	v.SetDefault("messaging.redis_stream.block_timeout", "5s")
	v.SetDefault("messaging.redis_stream.retry_limit", 3)
	v.SetDefault("messaging.redis_stream.retry_backoff.initial", "1s")
	v.SetDefault("messaging.redis_stream.retry_backoff.max", "30s")
	v.SetDefault("messaging.redis_stream.retry_backoff.multiplier", 2.0)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.jwt.issuer", "sajtmaskin")
	v.SetDefault("security.jwt.expiration", "24h")
	v.SetDefault("security.guest_session_header", "X-Guest-Session")
	v.SetDefault("security.guest_session_cookie", "sajtmaskin_guest")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.store", "memory")
	v.SetDefault("security.rate_limit.sweep_interval", "1m")
	v.SetDefault("security.rate_limit.limits.api.limit", 100)
	v.SetDefault("security.rate_limit.limits.api.window", "1m")
	v.SetDefault("security.rate_limit.limits.ai.limit", 10)
	v.SetDefault("security.rate_limit.limits.ai.window", "1m")
	v.SetDefault("security.rate_limit.limits.upload.limit", 20)
	v.SetDefault("security.rate_limit.limits.upload.window", "1m")
	v.SetDefault("security.cors.allowed_origins", []string{"*"})

	// 额度默认值
	v.SetDefault("credits.costs", map[string]int{
		"generate": 1,
		"refine":   1,
		"chat":     0,
		"image":    1,
		"search":   1,
		"deploy":   2,
	})
	v.SetDefault("credits.quality_multipliers", map[string]int{
		"light":    1,
		"standard": 1,
		"pro":      2,
		"max":      3,
	})
	v.SetDefault("credits.initial_balance", 5)
	v.SetDefault("credits.guest_timezone", "UTC")

	// 协作服务默认值
	v.SetDefault("collaborators.codegen.base_url", "https://api.v0.dev/v1")
	v.SetDefault("collaborators.codegen.timeout", "240s")
	v.SetDefault("collaborators.search.timeout", "20s")
	v.SetDefault("collaborators.image.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("collaborators.image.model", "google/gemini-2.5-flash-image")
	v.SetDefault("collaborators.image.timeout", "120s")
	v.SetDefault("collaborators.stock_photo.base_url", "https://api.unsplash.com")
	v.SetDefault("collaborators.stock_photo.timeout", "10s")

	// 修复默认值
	v.SetDefault("repair.auto_fix", true)
	v.SetDefault("repair.check_timeout", "5s")
	v.SetDefault("repair.check_concurrency", 8)
	v.SetDefault("repair.stock_cache_ttl", "24h")

	// 工作流默认值
	v.SetDefault("workflow.timeouts.conversation", "60s")
	v.SetDefault("workflow.timeouts.single", "180s")
	v.SetDefault("workflow.timeouts.compound", "300s")
	v.SetDefault("workflow.completed_stream", "stream:generation:completed")
}
