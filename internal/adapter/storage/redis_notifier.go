package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nk2109/pantry/internal/core/domain"
)

const (
	changeChannel = "pantry:changes"
	auditStream   = "pantry:audit"

	// Replay is a future feature; keep the stream from growing unbounded.
	auditStreamMaxLen = 10000
)

// RedisNotifier fans store-change events out over pub/sub and appends buy
// audit records to a capped stream.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (r *RedisNotifier) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return r.client.Publish(ctx, changeChannel, payload).Err()
}

func (r *RedisNotifier) AppendAudit(ctx context.Context, rec domain.AuditRecord) error {
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: auditStream,
		MaxLen: auditStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"action":             rec.Action,
			"ingredient_id":      rec.IngredientID,
			"previous_stock_qty": rec.PreviousStockQty,
			"new_stock_qty":      rec.NewStockQty,
			"at":                 rec.At.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
}
