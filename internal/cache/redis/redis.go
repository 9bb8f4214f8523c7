package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/quotegrid/quotegrid/internal/config"
	"go.uber.org/zap"
)

var ErrNotFoundInCache = errors.New("not found in cache")

type Cache struct {
	cli *redis.Client
}

func New(conf config.RedisConfig) *Cache {
	cli := redis.NewClient(
		&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Pass,
		},
	)

	if err := cli.Ping(context.Background()).Err(); err != nil {
		zap.L().Fatal("failed to connect to redis", zap.Error(err))
	}

	return &Cache{cli: cli}
}

func (c *Cache) Close() error {
	return c.cli.Close()
}

func (c *Cache) GetToStruct(ctx context.Context, key string, dest any) error {
	val, err := c.cli.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFoundInCache
		}
		return err
	}

	return json.Unmarshal(val, dest)
}

func (c *Cache) Set(ctx context.Context, t time.Duration, key string, val any) {
	if t < config.MinCacheTime {
		t = config.MinCacheTime
	}

	if err := c.cli.Set(ctx, key, val, t).Err(); err != nil {
		zap.L().Debug("failed to set cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.cli.Del(ctx, key).Err(); err != nil {
		zap.L().Debug("failed to delete from cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) InvalidateKeysByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.cli.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			zap.L().Debug(
				"failed to scan cache keys",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
			return
		}

		if len(keys) > 0 {
			if err := c.cli.Del(ctx, keys...).Err(); err != nil {
				zap.L().Debug("failed to delete cache keys", zap.Error(err))
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}
