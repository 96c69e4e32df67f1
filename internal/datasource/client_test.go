package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/godilite/urbanscore/internal/ranking"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	body   []byte
}

type recorderStub struct {
	calls []string
}

func (r *recorderStub) ObserveRequest(endpoint, outcome string, _ time.Duration) {
	r.calls = append(r.calls, endpoint+":"+outcome)
}

func newTestClient(t *testing.T, status int, body string) (*Client, *recordedRequest, *recorderStub) {
	t.Helper()

	got := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = map[string]string{}
		for k := range r.URL.Query() {
			got.query[k] = r.URL.Query().Get(k)
		}
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	rec := &recorderStub{}
	c, err := New(
		WithBaseURL(srv.URL+"/api"),
		WithHTTPClient(srv.Client()),
		WithLogger(zaptest.NewLogger(t)),
		WithRecorder(rec),
	)
	require.NoError(t, err)
	return c, got, rec
}

const rankingsPayload = `[
  {"id": "r1", "name": "Rosemont", "scores": {"global_score": 82, "security": 70, "transport": 95, "services": 80, "budget": 60, "leisure": 85}},
  {"name": "Villeray", "scores": {"global_score": 75, "budget": 88}, "unexpected": {"nested": true}},
  {"name": "Anjou"}
]`

func TestClient_Rankings(t *testing.T) {
	c, req, rec := newTestClient(t, http.StatusOK, rankingsPayload)

	records, err := c.Rankings(context.Background(), RankingsParams{
		Profile: ranking.ProfileFamily,
		Order:   ranking.Ascending,
		Limit:   20,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/rankings", req.path)
	assert.Equal(t, map[string]string{
		"sort_by": "global_score",
		"order":   "asc",
		"limit":   "20",
		"profile": "famille",
	}, req.query)

	require.Len(t, records, 3)
	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, 82.0, records[0].GlobalScore)
	assert.Equal(t, 95.0, records[0].Scores[ranking.CategoryTransport])

	assert.Equal(t, "1", records[1].ID, "missing id falls back to arrival index")
	assert.Equal(t, 88.0, records[1].Scores[ranking.CategoryBudget])
	assert.Equal(t, 0.0, records[1].Scores[ranking.CategorySecurity])

	assert.Equal(t, "2", records[2].ID)
	assert.Equal(t, 0.0, records[2].GlobalScore)
	assert.Len(t, records[2].Scores, len(ranking.Categories))

	assert.Equal(t, []string{"rankings:success"}, rec.calls)
}

func TestClient_RankingsOptionalFilters(t *testing.T) {
	c, req, _ := newTestClient(t, http.StatusOK, `[]`)

	records, err := c.Rankings(context.Background(), RankingsParams{
		Profile:       ranking.ProfileAll,
		Order:         ranking.Descending,
		Limit:         5,
		Offset:        10,
		MinPopulation: 50000,
		MaxPopulation: 200000,
		MinIncome:     40000,
	})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	assert.Equal(t, "general", req.query["profile"])
	assert.Equal(t, "desc", req.query["order"])
	assert.Equal(t, "10", req.query["offset"])
	assert.Equal(t, "50000", req.query["min_population"])
	assert.Equal(t, "200000", req.query["max_population"])
	assert.Equal(t, "40000", req.query["min_income"])
}

func TestClient_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
		outcome string
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"detail": "boom"}`,
			check: func(t *testing.T, err error) {
				var statusErr *HTTPStatusFailure
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
			},
			outcome: "rankings:http_status_failure",
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				var malformed *MalformedPayload
				assert.True(t, errors.As(err, &malformed))
			},
			outcome: "rankings:malformed_payload",
		},
		{
			name:   "object instead of list",
			status: http.StatusOK,
			body:   `{"items": []}`,
			check: func(t *testing.T, err error) {
				var malformed *MalformedPayload
				assert.True(t, errors.As(err, &malformed))
			},
			outcome: "rankings:malformed_payload",
		},
		{
			name:   "score of wrong type",
			status: http.StatusOK,
			body:   `[{"name": "Anjou", "scores": {"global_score": "high"}}]`,
			check: func(t *testing.T, err error) {
				var malformed *MalformedPayload
				require.True(t, errors.As(err, &malformed))
				assert.Contains(t, malformed.Reason, "global_score")
			},
			outcome: "rankings:malformed_payload",
		},
		{
			name:   "record without name",
			status: http.StatusOK,
			body:   `[{"scores": {"global_score": 10}}]`,
			check: func(t *testing.T, err error) {
				var malformed *MalformedPayload
				assert.True(t, errors.As(err, &malformed))
			},
			outcome: "rankings:malformed_payload",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, rec := newTestClient(t, tc.status, tc.body)

			records, err := c.Rankings(context.Background(), RankingsParams{Profile: ranking.ProfileAll})

			require.Error(t, err)
			assert.Nil(t, records)
			assert.ErrorIs(t, err, ErrDataSourceUnavailable)
			tc.check(t, err)
			assert.Equal(t, []string{tc.outcome}, rec.calls)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(WithBaseURL(base), WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.Rankings(context.Background(), RankingsParams{Profile: ranking.ProfileAll})

	var network *NetworkFailure
	require.True(t, errors.As(err, &network))
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
	assert.Equal(t, "rankings", network.Op)
}

func TestClient_CanceledContext(t *testing.T) {
	c, _, _ := newTestClient(t, http.StatusOK, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Boroughs(ctx)

	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Boroughs(t *testing.T) {
	c, req, _ := newTestClient(t, http.StatusOK, `[
	  {"_id": "64f0", "name": "Outremont",
	   "statistics": {"area_km2": 3.9, "population": 24000, "median_household_income": 98000},
	   "attractions": {"parks": 12, "metro_stations": 2},
	   "created_at": "2025-03-01T10:00:00.123456",
	   "source": "Ville de Montréal"}
	]`)

	boroughs, err := c.Boroughs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/boroughs", req.path)
	require.Len(t, boroughs, 1)
	b := boroughs[0]
	assert.Equal(t, "64f0", b.ID)
	assert.Equal(t, "Outremont", b.Name)
	assert.Equal(t, 24000.0, b.Statistics.Population)
	assert.Equal(t, 98000.0, b.Statistics.MedianHouseholdIncome)
	assert.Equal(t, 0.0, b.Statistics.DensityPerKm2)
	assert.Equal(t, 12, b.Attractions.Parks)
	assert.Equal(t, 2, b.Attractions.MetroStations)
	assert.False(t, b.Scored())
	assert.Equal(t, 2025, b.CreatedAt.Year())
	assert.True(t, b.UpdatedAt.IsZero())
	assert.Equal(t, "Ville de Montréal", b.Source)
}

func TestClient_Borough(t *testing.T) {
	c, req, _ := newTestClient(t, http.StatusOK, `{"name": "Villeray", "scores": {"global_score": 71, "leisure": 50}}`)

	b, err := c.Borough(context.Background(), "abc 1")
	require.NoError(t, err)

	assert.Equal(t, "/api/boroughs/abc 1", req.path)
	assert.Equal(t, "abc 1", b.ID)
	assert.True(t, b.Scored())
	assert.Equal(t, 71.0, b.GlobalScore)
	assert.Equal(t, 50.0, b.Scores[ranking.CategoryLeisure])

	_, err = c.Borough(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestClient_CreateBorough(t *testing.T) {
	c, req, _ := newTestClient(t, http.StatusOK, `{"id": "new-id", "message": "Arrondissement créé avec succès"}`)

	id, err := c.CreateBorough(context.Background(), BoroughInput{
		Name:       "Verdun",
		Statistics: Statistics{Population: 69000},
	})
	require.NoError(t, err)

	assert.Equal(t, "new-id", id)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/boroughs", req.path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, "Verdun", sent["name"])
	assert.Equal(t, 69000.0, sent["statistics"].(map[string]any)["population"])
}

func TestClient_UpdateAndDeleteBorough(t *testing.T) {
	c, req, _ := newTestClient(t, http.StatusOK, `{"message": "ok"}`)

	name := "Verdun-Sud"
	require.NoError(t, c.UpdateBorough(context.Background(), "b1", BoroughPatch{Name: &name}))
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/api/boroughs/b1", req.path)
	assert.JSONEq(t, `{"name": "Verdun-Sud"}`, string(req.body))

	require.NoError(t, c.DeleteBorough(context.Background(), "b1"))
	assert.Equal(t, http.MethodDelete, req.method)

	assert.ErrorIs(t, c.DeleteBorough(context.Background(), ""), ErrInvalidID)
}

func TestClient_NotFound(t *testing.T) {
	c, _, _ := newTestClient(t, http.StatusNotFound, `{"detail": "Arrondissement non trouvé"}`)

	err := c.DeleteBorough(context.Background(), "missing")

	var statusErr *HTTPStatusFailure
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_NoRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Rankings(context.Background(), RankingsParams{})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	assert.Error(t, err)

	_, err = New(WithBaseURL("ftp://example.com"))
	assert.Error(t, err)

	c, err := New(WithBaseURL("http://localhost:8000/api"), WithRateLimit(5, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, c.limiter.Burst())
}
