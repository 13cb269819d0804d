package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "console:credentials:"

	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

var _ Backend = (*RedisBackend)(nil)

// RedisBackend keeps the credential set of one browser in a Redis hash
type RedisBackend struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisBackend creates a Redis-backed credential backend for browserID
func NewRedisBackend(client *redis.Client, browserID string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		key:    redisKeyPrefix + browserID,
		ttl:    ttl,
	}
}

func (b *RedisBackend) Load(ctx context.Context) (map[string]string, error) {
	values, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, fmt.Errorf("[RedisBackend Load] %w", err)
	}
	return values, nil
}

// Save replaces the hash inside MULTI/EXEC so the set is swapped as a unit
func (b *RedisBackend) Save(ctx context.Context, values map[string]string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.key)
		if len(values) == 0 {
			return nil
		}
		fields := make([]interface{}, 0, len(values)*2)
		for k, v := range values {
			fields = append(fields, k, v)
		}
		pipe.HSet(ctx, b.key, fields...)
		if b.ttl > 0 {
			pipe.Expire(ctx, b.key, b.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[RedisBackend Save] %w", err)
	}
	return nil
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return fmt.Errorf("[RedisBackend Clear] %w", err)
	}
	return nil
}

// NewRedisClient parses a Redis URL and returns a client that has answered a ping
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return client, nil
}
