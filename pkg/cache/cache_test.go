package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type item struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := New(context.Background(), WithAddress(mr.Addr()), WithKeyPrefix("test:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", item{Name: "Rosemont", Score: 82}, time.Minute))
	assert.True(t, mr.Exists("test:a"))
	assert.Equal(t, time.Minute, mr.TTL("test:a"))

	var got item
	require.NoError(t, c.Get(ctx, "a", &got))
	assert.Equal(t, item{Name: "Rosemont", Score: 82}, got)

	remaining, err := c.TTL(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, remaining)

	require.NoError(t, c.Delete(ctx, "a"))
	assert.ErrorIs(t, c.Get(ctx, "a", &got), redis.Nil)
	assert.NoError(t, c.Delete(ctx))
	assert.NoError(t, c.Ping(ctx))
}

func TestNew_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = New(ctx, WithAddress(addr))
	assert.Error(t, err)
}

func TestFindAndCache_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	var sf singleflight.Group
	var calls atomic.Int32

	fetch := func(context.Context) ([]item, error) {
		calls.Add(1)
		return []item{{Name: "Villeray", Score: 75}}, nil
	}

	got, err := FindAndCache(context.Background(), c, &sf, "boroughs", time.Hour, zap.NewNop(), fetch)
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "Villeray", Score: 75}}, got)
	assert.True(t, mr.Exists("test:boroughs"))
	assert.Equal(t, int32(1), calls.Load())

	got, err = FindAndCache(context.Background(), c, &sf, "boroughs", time.Hour, zap.NewNop(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "Villeray", got[0].Name)
}

func TestFindAndCache_FreshHitStaysLocal(t *testing.T) {
	c, _ := newTestCache(t)
	var sf singleflight.Group
	var calls atomic.Int32

	fetch := func(context.Context) (item, error) {
		calls.Add(1)
		return item{Name: "Outremont", Score: 90}, nil
	}

	for range 3 {
		_, err := FindAndCache(context.Background(), c, &sf, "fresh", time.Hour, zap.NewNop(), fetch)
		require.NoError(t, err)
	}

	assert.Never(t, func() bool { return calls.Load() > 1 }, maxRefreshDelay+300*time.Millisecond, 50*time.Millisecond,
		"hits on a fresh key must not reach the fetch func")
}

func TestFindAndCache_RefreshesNearExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	var sf singleflight.Group
	var calls atomic.Int32

	fetch := func(context.Context) (item, error) {
		n := calls.Add(1)
		return item{Name: "Verdun", Score: int(n)}, nil
	}

	_, err := FindAndCache(context.Background(), c, &sf, "stale", time.Hour, zap.NewNop(), fetch)
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)

	got, err := FindAndCache(context.Background(), c, &sf, "stale", time.Hour, zap.NewNop(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Score, "the cached value is served while the refresh runs")

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return mr.TTL("test:stale") > 30*time.Minute }, 3*time.Second, 20*time.Millisecond)
}

func TestFindAndCache_FetchError(t *testing.T) {
	c, mr := newTestCache(t)
	var sf singleflight.Group
	boom := errors.New("boom")

	_, err := FindAndCache(context.Background(), c, &sf, "k", time.Hour, nil, func(context.Context) (int, error) {
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("test:k"), "failures must not be cached")
}

func TestFindAndCache_CacheDownFallsThrough(t *testing.T) {
	c, mr := newTestCache(t)
	mr.SetError("LOADING")
	var sf singleflight.Group

	got, err := FindAndCache(context.Background(), c, &sf, "k", time.Hour, zap.NewNop(), func(context.Context) (string, error) {
		return "fresh", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestFindAndCache_NilCache(t *testing.T) {
	var sf singleflight.Group

	got, err := FindAndCache[int](context.Background(), nil, &sf, "k", time.Hour, nil, func(context.Context) (int, error) {
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestFindAndCache_SingleflightOnMiss(t *testing.T) {
	c, _ := newTestCache(t)
	var sf singleflight.Group
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := FindAndCache(context.Background(), c, &sf, "shared", time.Hour, nil, fetch)
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestAddTTLJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), addTTLJitter(0))

	for i := 0; i < 100; i++ {
		got := addTTLJitter(10 * time.Second)
		assert.GreaterOrEqual(t, got, 5*time.Second)
		assert.Less(t, got, 15*time.Second)

		got = addTTLJitter(10 * time.Minute)
		assert.GreaterOrEqual(t, got, 10*time.Minute-maxJitter)
		assert.Less(t, got, 10*time.Minute+maxJitter)
	}
}
