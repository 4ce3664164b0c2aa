package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis without expiry; SETNX gives put-if-absent.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

type redisEntry struct {
	Value     []byte `json:"v"`
	CreatedAt int64  `json:"ts"`
}

// ConnectRedis creates a Redis-backed store and verifies connectivity.
func ConnectRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = "papertrans:cache:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisStore) redisKey(key Key) string { return r.prefix + key.String() }

func (r *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	if err := checkKey(key); err != nil {
		return Entry{}, false, err
	}
	raw, err := r.rdb.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return Entry{}, false, fmt.Errorf("decode redis entry %s: %w", key, err)
	}
	return Entry{Key: key, Value: re.Value, CreatedAt: time.Unix(0, re.CreatedAt).UTC()}, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key Key, value []byte) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	raw, err := json.Marshal(redisEntry{Value: value, CreatedAt: time.Now().UnixNano()})
	if err != nil {
		return false, err
	}
	stored, err := r.rdb.SetNX(ctx, r.redisKey(key), raw, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return stored, nil
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *RedisStore) Close() error { return r.rdb.Close() }
