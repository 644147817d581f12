package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

var _ orchestrator.CompletionPublisher = (*Producer)(nil)

// NewProducer 创建消息生产者，stream 为空时使用默认流
func NewProducer(client *redis.Client, stream Stream, maxLen int64) *Producer {
	if stream == "" {
		stream = StreamGenerationCompleted
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Producer{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.StartWith(ctx, "producer.Publish",
		attribute.String("stream", string(stream)),
		attribute.String("message.id", msg.ID),
		attribute.String("message.type", msg.Type),
	)
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		tracer.Fail(span, err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"data": string(data)},
	}).Result()
	if err != nil {
		tracer.Fail(span, err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", id))
	return id, nil
}

// PublishGenerationCompleted 发布生成完成事件
func (p *Producer) PublishGenerationCompleted(ctx context.Context, evt *entity.GenerationCompletedEvent) error {
	msg, err := NewMessage(evt.RunID, TypeGenerationCompleted, evt)
	if err != nil {
		return err
	}
	msg.CallerID = evt.CallerID
	msg.SessionID = evt.SessionID
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata("request_id", reqID)
	}
	if traceID := tracer.TraceID(ctx); traceID != "" {
		msg.SetMetadata("trace_id", traceID)
	}

	_, err = p.Publish(ctx, p.stream, msg)
	return err
}
