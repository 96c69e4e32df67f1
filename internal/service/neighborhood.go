package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/repository"
)

var ErrNeighborhoodNotFound = errors.New("neighborhood not found")

// Detail is everything shown on a neighborhood page.
type Detail struct {
	ID          string
	Name        string
	Profile     ranking.Profile
	Ranked      bool
	Entry       ranking.ViewRecord
	Statistics  datasource.Statistics
	Attractions datasource.Attractions
	Description string
	Strengths   []string
	Weaknesses  []string
}

type NeighborhoodService struct {
	source   DataSource
	rankings RankingFetcher
	content  ContentRepository
	logger   *zap.Logger
}

func NewNeighborhoodService(source DataSource, rankings RankingFetcher, content ContentRepository, logger *zap.Logger) *NeighborhoodService {
	if source == nil {
		panic("data source must not be nil")
	}
	if rankings == nil {
		panic("ranking fetcher must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NeighborhoodService{
		source:   source,
		rankings: rankings,
		content:  content,
		logger:   logger.Named("neighborhood"),
	}
}

// Detail loads borough id together with its position in the profile ranking.
// Editorial content is optional.
func (s *NeighborhoodService) Detail(ctx context.Context, id string, profile ranking.Profile) (Detail, error) {
	if strings.TrimSpace(id) == "" {
		return Detail{}, ErrNeighborhoodNotFound
	}

	var (
		borough    datasource.Borough
		boroughErr error
		ranked     ranking.Ranking
	)

	// Both calls run to completion so an unknown id is reported as such even
	// when the ranking call fails first.
	var g errgroup.Group
	g.Go(func() error {
		borough, boroughErr = s.source.Borough(ctx, id)
		return boroughErr
	})
	g.Go(func() error {
		r, err := s.rankings.Fetch(ctx, profile, ranking.Descending)
		if err != nil {
			return err
		}
		ranked = r
		return nil
	})

	err := g.Wait()
	if isNotFound(boroughErr) {
		return Detail{}, fmt.Errorf("%w: %s", ErrNeighborhoodNotFound, id)
	}
	if err != nil {
		return Detail{}, fmt.Errorf("load neighborhood %s: %w", id, err)
	}

	d := Detail{
		ID:          borough.ID,
		Name:        borough.Name,
		Profile:     profile,
		Statistics:  borough.Statistics,
		Attractions: borough.Attractions,
	}

	for _, e := range ranked.Entries {
		if strings.EqualFold(e.Name, borough.Name) {
			d.Entry = e
			d.Ranked = true
			break
		}
	}
	if !d.Ranked && borough.Scored() {
		// Scores without a rank position, e.g. outside the requested limit.
		d.Entry = ranking.Compute([]ranking.NeighborhoodRecord{borough.Record()}, profile, ranking.Descending).Entries[0]
		d.Entry.Rank = 0
	}

	s.addContent(ctx, &d)

	return d, nil
}

func (s *NeighborhoodService) addContent(ctx context.Context, d *Detail) {
	if s.content == nil {
		return
	}

	c, err := s.content.GetByName(ctx, d.Name)
	switch {
	case err == nil:
		d.Description = c.Description
		d.Strengths = c.Strengths
		d.Weaknesses = c.Weaknesses
	case errors.Is(err, repository.ErrContentNotFound):
		s.logger.Debug("no editorial content", zap.String("name", d.Name))
	default:
		s.logger.Warn("failed to load editorial content", zap.String("name", d.Name), zap.Error(err))
	}
}

// isNotFound reports whether the data source rejected the id. The data source
// answers 400 for malformed ids and 404 for unknown ones.
func isNotFound(err error) bool {
	var status *datasource.HTTPStatusFailure
	if !errors.As(err, &status) || status.Op != "borough" {
		return false
	}
	return status.StatusCode == http.StatusNotFound || status.StatusCode == http.StatusBadRequest
}
