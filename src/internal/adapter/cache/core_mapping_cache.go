package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/redis/go-redis/v9"
)

// notConnected is cached for entities without a core so the store is not asked again.
const notConnected = "null"

// CoreMappingCache is a read-through redis cache in front of a CoreMappingProvider.
// Redis failures fall back to the provider.
type CoreMappingCache struct {
	client *redis.Client
	next   domain.CoreMappingProvider
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		PoolSize:        20,
		MinIdleConns:    2,
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      2,
	})
}

func NewCoreMappingCache(client *redis.Client, next domain.CoreMappingProvider, ttl time.Duration) *CoreMappingCache {
	return &CoreMappingCache{client: client, next: next, ttl: ttl}
}

func mappingKey(entityID int64) string {
	return fmt.Sprintf("core-mapping:v1:%d", entityID)
}

func (c *CoreMappingCache) ByEntityID(ctx context.Context, entityID int64) (*domain.CoreMapping, error) {
	key := mappingKey(entityID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var mapping *domain.CoreMapping
		if err := json.Unmarshal(raw, &mapping); err == nil {
			return mapping, nil
		}
		logger.Warn("core mapping cache entry unreadable", logger.Fields{"entityId": entityID})
	case errors.Is(err, redis.Nil):
	default:
		logger.Error("core mapping cache get failed", err, logger.Fields{"entityId": entityID})
	}

	mapping, err := c.next.ByEntityID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	payload := []byte(notConnected)
	if mapping != nil {
		if payload, err = json.Marshal(mapping); err != nil {
			return mapping, nil
		}
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Error("core mapping cache set failed", err, logger.Fields{"entityId": entityID})
	}
	return mapping, nil
}

// Invalidate drops the cached mapping of an entity.
func (c *CoreMappingCache) Invalidate(ctx context.Context, entityID int64) error {
	return c.client.Del(ctx, mappingKey(entityID)).Err()
}
