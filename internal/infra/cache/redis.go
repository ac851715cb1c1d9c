package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set задаёт значение.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Get возвращает значение. Отсутствующий ключ — пустое значение без ошибки.
func (c *RedisCache) Get(key string) ([]byte, error) {
	raw, err := c.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

// Del удаляет ключ.
func (c *RedisCache) Del(key string) error {
	return c.client.Del(context.Background(), key).Err()
}
