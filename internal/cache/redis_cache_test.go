package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, NewRedisCache(rdb, ttl)
}

func TestRedisCache_StoreReceipt(t *testing.T) {
	t.Parallel()

	mr, c := newTestCache(t, 10*time.Second)

	sentAt := time.Date(2024, 1, 28, 9, 0, 0, 0, time.UTC)
	if err := c.StoreReceipt(context.Background(), "rem-1", "email-log-42", sentAt); err != nil {
		t.Fatalf("StoreReceipt() error: %v", err)
	}

	key := "reminder:receipt:rem-1"
	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttl)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("failed to get key %q: %v", key, err)
	}

	var got Receipt
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}
	if got.RemoteID != "email-log-42" {
		t.Fatalf("expected remote id email-log-42, got %q", got.RemoteID)
	}
	if !got.SentAt.Equal(sentAt) {
		t.Fatalf("expected sentAt %v, got %v", sentAt, got.SentAt)
	}
}

func TestRedisCache_GetReceipt_RoundTrip(t *testing.T) {
	t.Parallel()

	_, c := newTestCache(t, time.Minute)
	ctx := context.Background()

	sentAt := time.Date(2024, 1, 28, 9, 0, 0, 0, time.UTC)
	if err := c.StoreReceipt(ctx, "rem-1", "remote-1", sentAt); err != nil {
		t.Fatalf("StoreReceipt() error: %v", err)
	}

	got, ok, err := c.GetReceipt(ctx, "rem-1")
	if err != nil {
		t.Fatalf("GetReceipt() error: %v", err)
	}
	if !ok {
		t.Fatalf("expected receipt to exist")
	}
	if got.RemoteID != "remote-1" || !got.SentAt.Equal(sentAt) {
		t.Fatalf("unexpected receipt: %+v", got)
	}
}

func TestRedisCache_GetReceipt_Missing(t *testing.T) {
	t.Parallel()

	_, c := newTestCache(t, time.Minute)

	_, ok, err := c.GetReceipt(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetReceipt() error: %v", err)
	}
	if ok {
		t.Fatalf("expected no receipt for unknown reminder")
	}
}

func TestRedisCache_StoreReceipt_Overwrites(t *testing.T) {
	t.Parallel()

	_, c := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := c.StoreReceipt(ctx, "rem-1", "first", time.Now()); err != nil {
		t.Fatalf("first StoreReceipt() error: %v", err)
	}
	if err := c.StoreReceipt(ctx, "rem-1", "second", time.Now()); err != nil {
		t.Fatalf("second StoreReceipt() error: %v", err)
	}

	got, ok, err := c.GetReceipt(ctx, "rem-1")
	if err != nil || !ok {
		t.Fatalf("GetReceipt() ok=%v error: %v", ok, err)
	}
	if got.RemoteID != "second" {
		t.Fatalf("expected overwritten remote id, got %q", got.RemoteID)
	}
}

func TestRedisCache_StoreReceipt_ContextCanceled(t *testing.T) {
	t.Parallel()

	_, c := newTestCache(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.StoreReceipt(ctx, "rem-1", "x", time.Now()); err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}
