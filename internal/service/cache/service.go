package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/constants"
	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

const channelKeyPrefix = "youtube:channel:"

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(ctx context.Context, cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

// Get decodes the JSON value at key into dest. found is false on a miss.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (found bool, err error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func channelKey(channelID string) string {
	return channelKeyPrefix + channelID
}

// GetChannelDetails returns cached channel details. Cache failures count as a miss.
func (c *CacheService) GetChannelDetails(ctx context.Context, channelID string) (*domain.ChannelDetails, bool) {
	var details domain.ChannelDetails
	found, err := c.Get(ctx, channelKey(channelID), &details)
	if err != nil || !found {
		return nil, false
	}
	return &details, true
}

// SetChannelDetails caches channel details for CacheTTL.ChannelInfo. Failures are logged only.
func (c *CacheService) SetChannelDetails(ctx context.Context, details *domain.ChannelDetails) {
	if details == nil || details.ID == "" {
		return
	}
	if err := c.Set(ctx, channelKey(details.ID), details, constants.CacheTTL.ChannelInfo); err != nil {
		c.logger.Warn("Channel details not cached",
			zap.String("channel", details.ID),
			zap.Error(err))
	}
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
