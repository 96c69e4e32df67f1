package grpc

import (
	"context"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/service"
	"github.com/godilite/urbanscore/internal/state"
)

type RankingService interface {
	Fetch(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error)
}

type NeighborhoodService interface {
	Detail(ctx context.Context, id string, profile ranking.Profile) (service.Detail, error)
}

type CatalogService interface {
	Boroughs(ctx context.Context) ([]datasource.Borough, error)
}

// SessionStore hands out one ranking controller per client session.
type SessionStore interface {
	Open(initial state.Selection) (string, *service.Controller)
	Get(id string) (*service.Controller, error)
	Close(id string) error
}
