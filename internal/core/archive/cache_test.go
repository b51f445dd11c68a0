// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package archive_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/archivum/internal/core/archive"
	"github.com/taibuivan/archivum/internal/core/entity"
	"github.com/taibuivan/archivum/pkg/pointer"
)

func newRedisCache(t *testing.T) (*archive.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return archive.NewRedisCache(client, time.Minute, logger), server
}

/*
TestRedisCache_RoundTrip verifies that a cached record decodes into the typed
record of its class.
*/
func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newRedisCache(t)

	record := &entity.Series{
		Header: entity.Header{ID: uuid.New(), Version: 2, ParentVersion: pointer.To(1), Language: "de", Title: "Reihe"},
		Media:  []uuid.UUID{uuid.New()},
	}
	cache.Set(ctx, record)

	cached, ok := cache.Get(ctx, entity.ClassSeries, record.ID, 2)
	require.True(t, ok)
	series, isSeries := cached.(*entity.Series)
	require.True(t, isSeries)
	assert.Equal(t, record.Title, series.Title)
	assert.Equal(t, record.Media, series.Media)
	assert.Equal(t, 1, *series.ParentVersion)

	_, ok = cache.Get(ctx, entity.ClassSeries, record.ID, 1)
	assert.False(t, ok)
}

/*
TestRedisCache_Purge verifies single-version and whole-chain invalidation.
*/
func TestRedisCache_Purge(t *testing.T) {
	ctx := context.Background()
	cache, _ := newRedisCache(t)

	id := uuid.New()
	other := uuid.New()
	for version := 0; version < 3; version++ {
		cache.Set(ctx, &entity.MediaObject{Header: entity.Header{ID: id, Version: version}})
	}
	cache.Set(ctx, &entity.MediaObject{Header: entity.Header{ID: other}})

	cache.Purge(ctx, entity.ClassMedia, id, pointer.To(1))
	_, ok := cache.Get(ctx, entity.ClassMedia, id, 1)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, entity.ClassMedia, id, 2)
	assert.True(t, ok)

	cache.Purge(ctx, entity.ClassMedia, id, nil)
	for version := 0; version < 3; version++ {
		_, ok := cache.Get(ctx, entity.ClassMedia, id, version)
		assert.False(t, ok)
	}

	_, ok = cache.Get(ctx, entity.ClassMedia, other, 0)
	assert.True(t, ok, "other chains are untouched")
}

/*
TestRedisCache_Unavailable verifies that a dead cache degrades to misses.
*/
func TestRedisCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	cache, server := newRedisCache(t)
	server.Close()

	cache.Set(ctx, &entity.MediaObject{Header: entity.Header{ID: uuid.New()}})
	_, ok := cache.Get(ctx, entity.ClassMedia, uuid.New(), 0)
	assert.False(t, ok)
}

/*
TestVersionStore_CacheThrough verifies that repeated reads of one version are
served from the cache and that deletes purge it.
*/
func TestVersionStore_CacheThrough(t *testing.T) {
	ctx := context.Background()
	cache, _ := newRedisCache(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := newMemoryRepository(&memoryRules{})
	store := archive.NewVersionStore(repo, cache, 5, logger)

	header, err := store.CreateVersion(ctx, media(uuid.Nil, uuid.New(), "cached", true), nil, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		record, err := store.Get(ctx, entity.ClassMedia, header.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "cached", record.Head().Title)
	}
	assert.Equal(t, 1, repo.gets)

	_, err = store.DeleteVersion(ctx, entity.ClassMedia, header.ID, nil)
	require.NoError(t, err)

	_, err = store.Get(ctx, entity.ClassMedia, header.ID, 0)
	require.Error(t, err)
	assert.Equal(t, 2, repo.gets)
}

/*
TestVersionStore_DeleteDuringCacheFill verifies that a read racing a delete
and the re-allocation of the same version number never leaves the deleted
body in the cache.
*/
func TestVersionStore_DeleteDuringCacheFill(t *testing.T) {
	ctx := context.Background()
	cache, _ := newRedisCache(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := newMemoryRepository(&memoryRules{})
	store := archive.NewVersionStore(repo, cache, 5, logger)
	owner := uuid.New()

	header, err := store.CreateVersion(ctx, media(uuid.Nil, owner, "old", true), nil, nil)
	require.NoError(t, err)

	// Delete the chain and start it again under the same id after the load
	replaced := false
	repo.afterGet = func() {
		if replaced {
			return
		}
		replaced = true

		_, err := store.DeleteVersion(ctx, entity.ClassMedia, header.ID, nil)
		require.NoError(t, err)

		time.Sleep(time.Millisecond)
		_, err = store.CreateVersion(ctx, media(header.ID, owner, "new", true), nil, nil)
		require.NoError(t, err)
	}

	loaded, err := store.Get(ctx, entity.ClassMedia, header.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Head().Title, "the load happened before the delete")
	repo.afterGet = nil

	_, cached := cache.Get(ctx, entity.ClassMedia, header.ID, 0)
	assert.False(t, cached, "the stale fill was discarded")

	fresh, err := store.Get(ctx, entity.ClassMedia, header.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "new", fresh.Head().Title)

	_, cached = cache.Get(ctx, entity.ClassMedia, header.ID, 0)
	assert.True(t, cached)
}
