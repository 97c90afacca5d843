package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jwoo/shopflow-backend/config"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes the Redis connection. The cache is optional: when
// disabled the helpers below degrade to misses.
func Init(cfg *config.RedisConfig) error {
	if !cfg.Enabled {
		logger.Info("Redis cache disabled, catalog caching is off", nil)
		return nil
	}

	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance (nil when disabled)
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// GetCached returns the cached value for key. The second return reports a
// hit; misses and a disabled cache both return ("", false, nil).
func GetCached(ctx context.Context, key string) (string, bool, error) {
	if client == nil {
		return "", false, nil
	}

	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logger.Warn("Redis read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", false, err
	}
	return val, true, nil
}

// SetCached stores a value under key with a TTL. A disabled cache is a no-op.
func SetCached(ctx context.Context, key, value string, ttl time.Duration) error {
	if client == nil {
		return nil
	}

	if err := client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn("Redis write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// InvalidateCached removes keys matching the given exact keys.
func InvalidateCached(ctx context.Context, keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}

	if err := client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Redis delete failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
		return err
	}
	return nil
}
