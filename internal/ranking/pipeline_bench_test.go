package ranking

import (
	"fmt"
	"math/rand"
	"testing"
)

func BenchmarkCompute(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	records := make([]NeighborhoodRecord, 500)
	for i := range records {
		records[i] = NeighborhoodRecord{
			ID:          fmt.Sprint(i),
			Name:        fmt.Sprintf("n%d", i),
			GlobalScore: float64(rng.Intn(100)),
			Scores:      map[Category]float64{CategoryBudget: float64(rng.Intn(100))},
		}
	}

	b.ReportAllocs()

	for b.Loop() {
		_ = Compute(records, ProfileGeneral, Descending)
	}
}
