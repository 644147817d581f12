package redis

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// GuestUsageStore 游客每日一次性额度，键为 guest:usage:<day>:<category>:<guestID>
type GuestUsageStore struct {
	client *Client
}

// NewGuestUsageStore 创建游客额度存储
func NewGuestUsageStore(client *Client) *GuestUsageStore {
	return &GuestUsageStore{client: client}
}

// IsUsed 当日该类别是否已使用
func (s *GuestUsageStore) IsUsed(ctx context.Context, guestID, category string, day time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "guest.IsUsed")
	span.SetAttributes(attribute.String("guest.category", category))
	defer span.End()

	n, err := s.client.rdb.Exists(ctx, guestKey(guestID, category, day)).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to read guest usage: %w", err)
	}
	return n > 0, nil
}

// MarkUsed 标记当日已使用，键在当日结束时过期；已标记过时返回 false
func (s *GuestUsageStore) MarkUsed(ctx context.Context, guestID, category string, day time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "guest.MarkUsed")
	span.SetAttributes(attribute.String("guest.category", category))
	defer span.End()

	ttl := endOfDay(day).Sub(day)
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := s.client.rdb.SetNX(ctx, guestKey(guestID, category, day), time.Now().Unix(), ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to mark guest usage: %w", err)
	}
	return ok, nil
}

func guestKey(guestID, category string, day time.Time) string {
	return fmt.Sprintf("guest:usage:%s:%s:%s", day.Format("2006-01-02"), category, guestID)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
