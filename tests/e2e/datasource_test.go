//go:build e2e

package e2e

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const boroughsJSON = `[
  {"id": "r1", "name": "Rosemont",
   "statistics": {"population": 142000, "median_household_income": 61000},
   "attractions": {"parks": 40, "metro_stations": 3},
   "scores": {"global_score": 82, "security": 70, "transport": 95, "services": 80, "budget": 60, "leisure": 85}},
  {"id": "p1", "name": "Plateau-Mont-Royal",
   "statistics": {"population": 104000},
   "scores": {"global_score": 82, "security": 65, "transport": 98, "services": 90, "budget": 40, "leisure": 95}},
  {"id": "v1", "name": "Villeray", "scores": {"global_score": 75, "budget": 88}}
]`

// fakeDataSource serves the ranking API from fixed payloads and counts hits per path.
type fakeDataSource struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
	down bool
}

func newFakeDataSource(t *testing.T) *fakeDataSource {
	t.Helper()
	f := &fakeDataSource{hits: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeDataSource) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	down := f.down
	f.mu.Unlock()

	if down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/rankings", r.URL.Path == "/api/boroughs":
		_, _ = w.Write([]byte(boroughsJSON))
	case r.URL.Path == "/api/boroughs/r1":
		_, _ = w.Write([]byte(`{"id": "r1", "name": "Rosemont",
			"statistics": {"population": 142000, "median_household_income": 61000},
			"attractions": {"parks": 40, "metro_stations": 3},
			"scores": {"global_score": 82}}`))
	case strings.HasPrefix(r.URL.Path, "/api/boroughs/"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Borough not found"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeDataSource) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeDataSource) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}
