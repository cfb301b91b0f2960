package providerdirectory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
)

func newCache(t *testing.T, hits *atomic.Int32) (*CachedDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := directoryServer(t, hits)
	client := NewClient(srv.URL, time.Second, logger.NewNop())
	return NewCachedDirectory(client, rdb, time.Minute, logger.NewNop()), mr
}

func TestCachedDirectory_HitsDirectoryOnce(t *testing.T) {
	var hits atomic.Int32
	cache, mr := newCache(t, &hits)
	ctx := context.Background()

	first, err := cache.GetProvider(ctx, 10)
	require.NoError(t, err)
	second, err := cache.GetProvider(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, *first.OpenTime, *second.OpenTime)
	assert.True(t, mr.Exists(cacheKey(10)))
}

func TestCachedDirectory_CachesNotFound(t *testing.T) {
	var hits atomic.Int32
	cache, mr := newCache(t, &hits)
	ctx := context.Background()

	_, err := cache.GetProvider(ctx, 99)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	_, err = cache.GetProvider(ctx, 99)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Equal(t, int32(1), hits.Load())

	mr.FastForward(notFoundTTL + time.Second)
	_, _ = cache.GetProvider(ctx, 99)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedDirectory_FallsBackWhenRedisDown(t *testing.T) {
	var hits atomic.Int32
	cache, mr := newCache(t, &hits)
	mr.Close()

	p, err := cache.GetProvider(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Anna", p.Name)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCachedDirectory_Invalidate(t *testing.T) {
	var hits atomic.Int32
	cache, _ := newCache(t, &hits)
	ctx := context.Background()

	_, err := cache.GetProvider(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, 10))
	_, err = cache.GetProvider(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}
