package mocks

import (
	"context"
	"errors"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/service"
)

// MockRankingService is a mock implementation of the RankingService interface
// for testing the handler layer.
type MockRankingService struct {
	FetchFunc func(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error)
}

func (m *MockRankingService) Fetch(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, profile, order)
	}
	return ranking.Ranking{}, errors.New("FetchFunc not implemented")
}

// MockNeighborhoodService is a mock implementation of the NeighborhoodService interface.
type MockNeighborhoodService struct {
	DetailFunc func(ctx context.Context, id string, profile ranking.Profile) (service.Detail, error)
}

func (m *MockNeighborhoodService) Detail(ctx context.Context, id string, profile ranking.Profile) (service.Detail, error) {
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, id, profile)
	}
	return service.Detail{}, errors.New("DetailFunc not implemented")
}

// MockCatalogService is a mock implementation of the CatalogService interface.
type MockCatalogService struct {
	BoroughsFunc func(ctx context.Context) ([]datasource.Borough, error)
}

func (m *MockCatalogService) Boroughs(ctx context.Context) ([]datasource.Borough, error) {
	if m.BoroughsFunc != nil {
		return m.BoroughsFunc(ctx)
	}
	return nil, errors.New("BoroughsFunc not implemented")
}
