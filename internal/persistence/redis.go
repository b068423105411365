package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/worklane/ticket-tracker/internal/config"
)

const unreadKeyPrefix = "notifications:unread:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis using the provided configuration. An unreachable server is logged,
// not fatal: the unread counter falls back to the record store.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, ttl: cfg.UnreadTTL()}
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{Client: client, ttl: ttl}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// GetUnread returns the cached unread count of an actor. ok is false on a cache miss.
func (r *Redis) GetUnread(ctx context.Context, actorID string) (count int, ok bool, err error) {
	val, err := r.Client.Get(ctx, unreadKeyPrefix+actorID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	count, err = strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("decode unread count: %w", err)
	}
	return count, true, nil
}

// SetUnread caches an actor's unread count.
func (r *Redis) SetUnread(ctx context.Context, actorID string, count int) error {
	if err := r.Client.Set(ctx, unreadKeyPrefix+actorID, count, r.ttl).Err(); err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}
	return nil
}

// InvalidateUnread drops an actor's cached count.
func (r *Redis) InvalidateUnread(ctx context.Context, actorID string) error {
	if err := r.Client.Del(ctx, unreadKeyPrefix+actorID).Err(); err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}
