package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
)

const DefaultRankingLimit = 20

// RankingService fetches rankings from the data source and runs them through the
// ranking pipeline. Results are never cached.
type RankingService struct {
	source DataSource
	limit  int
	logger *zap.Logger
}

func NewRankingService(source DataSource, limit int, logger *zap.Logger) *RankingService {
	if source == nil {
		panic("data source must not be nil")
	}
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{
		source: source,
		limit:  limit,
		logger: logger.Named("ranking"),
	}
}

// Fetch performs one data-source request. Failures keep their data-source error
// kind and match datasource.ErrDataSourceUnavailable.
func (s *RankingService) Fetch(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error) {
	records, err := s.source.Rankings(ctx, datasource.RankingsParams{
		Profile: profile,
		Order:   order,
		SortBy:  datasource.DefaultSortBy,
		Limit:   s.limit,
	})
	if err != nil {
		return ranking.Ranking{}, fmt.Errorf("fetch %s ranking: %w", profile, err)
	}

	r := ranking.Compute(records, profile, order)

	s.logger.Info("fetched ranking",
		zap.String("profile", profile.String()),
		zap.String("order", order.String()),
		zap.Int("count", len(r.Entries)))

	return r, nil
}
