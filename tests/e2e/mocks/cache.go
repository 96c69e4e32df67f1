package mocks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/godilite/urbanscore/pkg/cache"
)

// TrackingCache counts calls made through to an underlying cache.
type TrackingCache struct {
	next     cache.Cacher
	getCalls atomic.Int64
	setCalls atomic.Int64
}

func NewTrackingCache(next cache.Cacher) *TrackingCache {
	return &TrackingCache{next: next}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.getCalls.Add(1)
	return c.next.Get(ctx, key, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	c.setCalls.Add(1)
	return c.next.Set(ctx, key, value, exp)
}

func (c *TrackingCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.next.TTL(ctx, key)
}

func (c *TrackingCache) GetCalls() int { return int(c.getCalls.Load()) }

func (c *TrackingCache) SetCalls() int { return int(c.setCalls.Load()) }
