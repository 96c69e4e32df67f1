package service

import (
	"context"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/repository"
	"github.com/godilite/urbanscore/internal/service/mocks"
	dbbuilder "github.com/godilite/urbanscore/pkg/database"
)

func setupContentDB(tb testing.TB) *repository.ContentRepository {
	tb.Helper()
	ctx := context.Background()

	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMaxOpenConns(1),
	)
	if err != nil {
		tb.Fatalf("failed to create db pool via builder: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := repository.NewContentRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}
	if _, err := repo.Seed(ctx); err != nil {
		tb.Fatalf("failed to seed: %v", err)
	}
	return repo
}

func BenchmarkNeighborhoodDetail(b *testing.B) {
	records := make([]ranking.NeighborhoodRecord, 19)
	for i := range records {
		records[i] = ranking.NeighborhoodRecord{ID: fmt.Sprint(i), Name: fmt.Sprintf("Borough %d", i), GlobalScore: float64(i * 5)}
	}
	records[7].Name = "Villeray"

	source := &mocks.MockDataSource{
		RankingsFunc: func(context.Context, datasource.RankingsParams) ([]ranking.NeighborhoodRecord, error) {
			return records, nil
		},
		BoroughFunc: func(_ context.Context, id string) (datasource.Borough, error) {
			return datasource.Borough{ID: id, Name: "Villeray"}, nil
		},
	}
	logger := zap.NewNop()
	rankings := NewRankingService(source, 0, logger)
	svc := NewNeighborhoodService(source, rankings, setupContentDB(b), logger)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = svc.Detail(context.Background(), "7", ranking.ProfileFamily)
	}
}
