package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "summary:"

// Redis shares cached summaries between instances.
type Redis struct {
	client *redis.Client
}

// NewRedis connects using a redis:// URL and checks the connection.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis (%s): %w", opts.Addr, err)
	}

	return &Redis{client: client}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}

	summary, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached summary: %w", err)
	}

	return summary, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, summary string, ttl time.Duration) error {
	if key == "" || summary == "" || ttl <= 0 {
		return nil
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key, summary, ttl).Err(); err != nil {
		return fmt.Errorf("set cached summary: %w", err)
	}

	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
