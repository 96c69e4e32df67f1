package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	refreshTimeout  = 15 * time.Second
	storeTimeout    = 5 * time.Second
	maxRefreshDelay = time.Second
	maxJitter       = 15 * time.Second

	// A hit is refreshed once less than ttl/refreshAheadDivisor remains.
	refreshAheadDivisor = 5
)

// addTTLJitter spreads expirations by up to ±15s, never below half the TTL.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	span := min(maxJitter, ttl/2)
	if span <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(int64(2*span))) - span
}

// readThrough is one FindAndCache lookup.
type readThrough[T any] struct {
	cache  Cacher
	key    string
	ttl    time.Duration
	logger *zap.Logger
	fetch  FetchFunc[T]
}

// load fetches a fresh value and stores it. A failed store is logged, not returned.
func (r readThrough[T]) load(ctx context.Context) (T, error) {
	value, err := r.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	ttl := addTTLJitter(r.ttl)
	if err := r.cache.Set(storeCtx, r.key, value, ttl); err != nil {
		r.logger.Warn("cache store failed", zap.String("key", r.key), zap.Error(err))
	} else {
		r.logger.Debug("cache stored", zap.String("key", r.key), zap.Duration("ttl", ttl))
	}
	return value, nil
}

// dueForRefresh reports whether the cached key is close enough to expiry to
// be reloaded ahead of time. Keys without an expiry are left alone.
func (r readThrough[T]) dueForRefresh(ctx context.Context) bool {
	remaining, err := r.cache.TTL(ctx, r.key)
	if err != nil {
		r.logger.Debug("cache ttl lookup failed", zap.String("key", r.key), zap.Error(err))
		return false
	}
	if remaining < 0 {
		return false
	}
	return remaining <= r.ttl/refreshAheadDivisor
}

// refreshLater reloads the key in the background after a short random delay.
// Concurrent refreshes of the same key collapse into one.
func (r readThrough[T]) refreshLater(sf *singleflight.Group) {
	delay := time.Duration(rand.Int63n(int64(maxRefreshDelay)))
	go func() {
		time.Sleep(delay)
		_, _, _ = sf.Do(r.key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			v, err := r.load(ctx)
			if err != nil {
				r.logger.Warn("background refresh failed", zap.String("key", r.key), zap.Error(err))
			}
			return v, err
		})
	}()
}

// FindAndCache is a read-through cache: hits are served from c and refreshed in the
// background when close to expiry, concurrent misses for the same key share one call to fn. Cache errors
// are treated as misses. A nil c disables caching.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	if c == nil {
		return fn(ctx)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := readThrough[T]{cache: c, key: key, ttl: ttl, logger: logger, fetch: fn}

	var cached T
	switch err := c.Get(ctx, key, &cached); {
	case err == nil:
		logger.Debug("cache hit", zap.String("key", key))
		if r.dueForRefresh(ctx) {
			r.refreshLater(sf)
		}
		return cached, nil
	case errors.Is(err, redis.Nil):
		logger.Debug("cache miss", zap.String("key", key))
	default:
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		return r.load(ctx)
	})
	if err != nil {
		logger.Warn("fetch failed", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, err
	}
	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}

	value, ok := v.(T)
	if !ok {
		return value, fmt.Errorf("cache: type mismatch for key %q", key)
	}
	return value, nil
}
