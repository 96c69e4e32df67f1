package mocks

import (
	"context"
	"errors"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/repository/models"
)

// MockDataSource is a function-based mock of service.DataSource.
type MockDataSource struct {
	RankingsFunc func(ctx context.Context, p datasource.RankingsParams) ([]ranking.NeighborhoodRecord, error)
	BoroughsFunc func(ctx context.Context) ([]datasource.Borough, error)
	BoroughFunc  func(ctx context.Context, id string) (datasource.Borough, error)
}

func (m *MockDataSource) Rankings(ctx context.Context, p datasource.RankingsParams) ([]ranking.NeighborhoodRecord, error) {
	if m.RankingsFunc != nil {
		return m.RankingsFunc(ctx, p)
	}
	return nil, errors.New("RankingsFunc not implemented")
}

func (m *MockDataSource) Boroughs(ctx context.Context) ([]datasource.Borough, error) {
	if m.BoroughsFunc != nil {
		return m.BoroughsFunc(ctx)
	}
	return nil, errors.New("BoroughsFunc not implemented")
}

func (m *MockDataSource) Borough(ctx context.Context, id string) (datasource.Borough, error) {
	if m.BoroughFunc != nil {
		return m.BoroughFunc(ctx, id)
	}
	return datasource.Borough{}, errors.New("BoroughFunc not implemented")
}

// MockRankingFetcher is a function-based mock of service.RankingFetcher.
type MockRankingFetcher struct {
	FetchFunc func(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error)
}

func (m *MockRankingFetcher) Fetch(ctx context.Context, profile ranking.Profile, order ranking.SortOrder) (ranking.Ranking, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, profile, order)
	}
	return ranking.Ranking{}, errors.New("FetchFunc not implemented")
}

// MockContentRepository is a function-based mock of service.ContentRepository.
type MockContentRepository struct {
	GetByNameFunc func(ctx context.Context, name string) (models.NeighborhoodContent, error)
}

func (m *MockContentRepository) GetByName(ctx context.Context, name string) (models.NeighborhoodContent, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	return models.NeighborhoodContent{}, errors.New("GetByNameFunc not implemented")
}
