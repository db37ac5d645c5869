package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func receiptKey(reminderID string) string {
	return "reminder:receipt:" + reminderID
}

func (c *RedisCache) StoreReceipt(ctx context.Context, reminderID, remoteID string, sentAt time.Time) error {
	val := Receipt{
		RemoteID: remoteID,
		SentAt:   sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, receiptKey(reminderID), b, c.ttl).Err()
}

func (c *RedisCache) GetReceipt(ctx context.Context, reminderID string) (Receipt, bool, error) {
	raw, err := c.rdb.Get(ctx, receiptKey(reminderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, err
	}

	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return Receipt{}, false, err
	}
	return r, true, nil
}
