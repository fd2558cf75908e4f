package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisBackend はセッションを Redis に保存します。期限切れは Redis の TTL に任せます。
type RedisBackend struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewRedisBackend は RedisBackend を作成します。
func NewRedisBackend(rdb redis.Cmdable) *RedisBackend {
	return &RedisBackend{
		rdb: rdb,
		now: time.Now,
	}
}

func (b *RedisBackend) Load(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := b.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if record.Expired(b.now()) {
		return nil, ErrNotFound
	}
	record.ID = id
	return &record, nil
}

func (b *RedisBackend) Save(ctx context.Context, record *Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id is required")
	}
	ttl := record.ExpiresAt.Sub(b.now())
	if ttl <= 0 {
		return b.Delete(ctx, record.ID)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return b.rdb.Set(ctx, sessionKey(record.ID), payload, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.rdb.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
