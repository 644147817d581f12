// Package main 生成记录消费者入口（job-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/infrastructure/messaging"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/wire"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

const dlqAlertThreshold = 100

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	data, cleanup, err := wire.InitializeDataLayer(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize data layer", err)
	}
	defer cleanup()

	rs := cfg.Messaging.RedisStream
	stream := messaging.Stream(cfg.Workflow.CompletedStream)
	consumer := messaging.NewConsumer(data.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:       stream,
		Group:        messaging.ConsumerGroup(rs.ConsumerGroup),
		ConsumerName: hostnameConsumerName(),
		BlockTimeout: rs.BlockTimeout,
		RetryLimit:   rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler(messaging.TypeGenerationCompleted, recordRun(data.GenerationRunRepo))

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	go consumer.MonitorDLQ(monitorCtx, dlqAlertThreshold)

	log := logger.FromContext(ctx)
	log.Info("job-worker started", "stream", stream)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("job-worker shutting down")
	stopMonitor()
	consumer.Stop()
}

// recordRun 将完成事件写入生成记录，同一会话重复投递时覆盖
func recordRun(runs repository.GenerationRunRepository) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var evt entity.GenerationCompletedEvent
		if err := msg.UnmarshalPayload(&evt); err != nil {
			return err
		}
		if evt.SessionID == "" {
			logger.Warn(ctx, "generation event without session, skipping", "run_id", evt.RunID)
			return nil
		}
		return runs.Upsert(ctx, evt.ToRun())
	}
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
