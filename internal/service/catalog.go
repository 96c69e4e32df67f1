package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/pkg/cache"
)

const (
	catalogCacheKey        = "boroughs"
	DefaultCatalogCacheTTL = 10 * time.Minute
)

// CatalogService lists boroughs through a read-through cache.
type CatalogService struct {
	source DataSource
	cache  cache.Cacher
	sf     singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService builds the service; a nil c disables caching.
func NewCatalogService(source DataSource, c cache.Cacher, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if source == nil {
		panic("data source must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCatalogCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("catalog"),
	}
}

func (s *CatalogService) Boroughs(ctx context.Context) ([]datasource.Borough, error) {
	return cache.FindAndCache(ctx, s.cache, &s.sf, catalogCacheKey, s.ttl, s.logger, func(fetchCtx context.Context) ([]datasource.Borough, error) {
		return s.source.Boroughs(fetchCtx)
	})
}
