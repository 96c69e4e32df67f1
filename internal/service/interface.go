package service

import (
	"context"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/repository/models"
)

// DataSource is the remote ranking data source.
type DataSource interface {
	Rankings(ctx context.Context, p datasource.RankingsParams) ([]ranking.NeighborhoodRecord, error)
	Boroughs(ctx context.Context) ([]datasource.Borough, error)
	Borough(ctx context.Context, id string) (datasource.Borough, error)
}

// ContentRepository provides editorial content for detail pages.
type ContentRepository interface {
	GetByName(ctx context.Context, name string) (models.NeighborhoodContent, error)
}

// RankingFetcher produces a ranking for one profile and sort order.
type RankingFetcher interface {
	Fetch(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error)
}

// StaleCounter counts responses discarded because a newer request superseded them.
type StaleCounter interface {
	IncStaleResponses()
}

// SessionGauge tracks the number of open sessions.
type SessionGauge interface {
	SetActiveSessions(n int)
}
