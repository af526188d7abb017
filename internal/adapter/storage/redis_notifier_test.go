package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nk2109/pantry/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestPublishChange(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	notifier := NewRedisNotifier(client)

	sub := client.Subscribe(ctx, changeChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	event := domain.ChangeEvent{
		Op:           domain.ChangeBought,
		IngredientID: "test-ing",
		At:           time.Now().UTC(),
	}
	if err := notifier.PublishChange(ctx, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	msgCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	var got domain.ChangeEvent
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Op != domain.ChangeBought || got.IngredientID != "test-ing" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestAppendAudit(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	notifier := NewRedisNotifier(client)

	// Setup
	client.Del(ctx, auditStream)

	rec := domain.AuditRecord{
		Action:           "buy",
		IngredientID:     "test-ing",
		PreviousStockQty: 2,
		NewStockQty:      7,
		At:               time.Now().UTC(),
	}
	if err := notifier.AppendAudit(ctx, rec); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entries, err := client.XRange(ctx, auditStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	values := entries[0].Values
	if values["action"] != "buy" || values["ingredient_id"] != "test-ing" {
		t.Errorf("unexpected entry: %+v", values)
	}

	// Cleanup
	client.Del(ctx, auditStream)
}
