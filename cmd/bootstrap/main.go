package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅数据库）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 建表
	if err := dataLayer.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 测试身份
	for _, id := range cfg.Credits.TestUserIDs {
		ensureUser(ctx, dataLayer, id, "", "Test User", cfg.Credits.InitialBalance)
	}

	// 5. 可选的首个用户
	if id := os.Getenv("BOOTSTRAP_USER_ID"); id != "" {
		balance := cfg.Credits.InitialBalance
		if v := os.Getenv("BOOTSTRAP_USER_CREDITS"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				log.Fatalf("invalid BOOTSTRAP_USER_CREDITS: %q", v)
			}
			balance = n
		}
		ensureUser(ctx, dataLayer, id, os.Getenv("BOOTSTRAP_USER_EMAIL"), "Owner", balance)
	}

	fmt.Println("Bootstrap completed successfully.")
}

func ensureUser(ctx context.Context, dl *wire.PostgresOnlyDataLayer, id, email, name string, balance int) {
	existing, err := dl.UserRepo.GetByID(ctx, id)
	if err != nil {
		log.Fatalf("failed to check user %s: %v", id, err)
	}
	if existing != nil {
		fmt.Printf("User %s already exists (credits=%d).\n", id, existing.Credits)
		return
	}

	if email == "" {
		email = id + "@sajtmaskin.local"
	}
	user := entity.NewUser(id, email, name, balance)
	if err := dl.UserRepo.Create(ctx, user); err != nil {
		log.Fatalf("failed to create user %s: %v", id, err)
	}
	fmt.Printf("User %s created with %d credits.\n", id, balance)
}
