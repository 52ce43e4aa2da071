package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"bisnisflow/internal/domain"
)

type RedisAdviceCache struct {
	client *redis.Client
}

func NewRedisAdviceCache(addr string, password string, db int) *RedisAdviceCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAdviceCache{client: client}
}

func (c *RedisAdviceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAdviceCache) Close() error {
	return c.client.Close()
}

func (c *RedisAdviceCache) Get(ctx context.Context, key string) (*domain.AdviceResponse, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.AdviceResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisAdviceCache) Set(ctx context.Context, key string, value *domain.AdviceResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
