// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/internal/platform/constants"
)

// purgeScanCount is the SCAN batch hint used when purging a whole chain.
const purgeScanCount = 100

// # Version Cache

// Cache holds immutable version records keyed by (class, id, version).
//
// A cache failure is never an error for the caller: misses fall through to
// the repository and failed writes are simply not cached.
type Cache interface {
	Get(context context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, bool)
	Set(context context.Context, record entity.Entity)

	// Purge drops one version, or every version of id when version is nil.
	Purge(context context.Context, class entity.Class, id uuid.UUID, version *int)
}

// NopCache disables caching.
type NopCache struct{}

func (NopCache) Get(context.Context, entity.Class, uuid.UUID, int) (entity.Entity, bool) {
	return nil, false
}
func (NopCache) Set(context.Context, entity.Entity)                   {}
func (NopCache) Purge(context.Context, entity.Class, uuid.UUID, *int) {}

// RedisCache stores JSON encoded version records in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed [Cache].
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func versionKey(class entity.Class, id uuid.UUID, version int) string {
	return fmt.Sprintf("%s%s:%s:%d", constants.RedisPrefixVersion, class, id, version)
}

func chainPattern(class entity.Class, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s:*", constants.RedisPrefixVersion, class, id)
}

// Get returns a cached record. Decoding and connectivity failures count as misses.
func (cache *RedisCache) Get(context context.Context, class entity.Class, id uuid.UUID, version int) (entity.Entity, bool) {
	payload, err := cache.client.Get(context, versionKey(class, id, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cache.logger.WarnContext(context, "version_cache_get_failed", slog.Any("error", err))
		}
		return nil, false
	}

	record, err := entity.New(class)
	if err != nil {
		return nil, false
	}

	if err := json.Unmarshal(payload, record); err != nil {
		cache.logger.WarnContext(context, "version_cache_decode_failed",
			slog.String("key", versionKey(class, id, version)),
			slog.Any("error", err),
		)
		return nil, false
	}

	return record, true
}

// Set caches record under its (class, id, version) key.
func (cache *RedisCache) Set(context context.Context, record entity.Entity) {
	payload, err := json.Marshal(record)
	if err != nil {
		cache.logger.WarnContext(context, "version_cache_encode_failed", slog.Any("error", err))
		return
	}

	head := record.Head()
	if err := cache.client.Set(context, versionKey(record.Class(), head.ID, head.Version), payload, cache.ttl).Err(); err != nil {
		cache.logger.WarnContext(context, "version_cache_set_failed", slog.Any("error", err))
	}
}

// Purge removes the cached versions matched by a delete.
func (cache *RedisCache) Purge(context context.Context, class entity.Class, id uuid.UUID, version *int) {
	if version != nil {
		if err := cache.client.Del(context, versionKey(class, id, *version)).Err(); err != nil {
			cache.logger.WarnContext(context, "version_cache_purge_failed", slog.Any("error", err))
		}
		return
	}

	iterator := cache.client.Scan(context, 0, chainPattern(class, id), purgeScanCount).Iterator()

	var keys []string
	for iterator.Next(context) {
		keys = append(keys, iterator.Val())
	}
	if err := iterator.Err(); err != nil {
		cache.logger.WarnContext(context, "version_cache_purge_failed", slog.Any("error", err))
		return
	}

	if len(keys) == 0 {
		return
	}
	if err := cache.client.Del(context, keys...).Err(); err != nil {
		cache.logger.WarnContext(context, "version_cache_purge_failed", slog.Any("error", err))
	}
}
