package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/userhub/apiserver/config"
)

const redisPingTimeout = 5 * time.Second

// RedisClient publishes messages onto Redis streams.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient constructs a Redis streams client from config.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// Publish appends the message to the stream named by channel. Attributes are
// stored as additional stream fields next to "data".
func (r *RedisClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("redis channel is required")
	}

	values := make(map[string]any, len(attrs)+1)
	for key, value := range attrs {
		values[key] = value
	}
	values["data"] = data

	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: channel,
		Values: values,
	}).Result()
}

// Close closes the underlying Redis client.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
