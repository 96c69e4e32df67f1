package ranking

import (
	"cmp"
	"math"
	"slices"
)

const maxStars = 5

// Compute turns data-source records into an ordered ranking. Records are sorted by
// global score in the requested order; records with equal scores keep their arrival
// order. Scores are passed through unchanged. The input slice is not modified.
func Compute(records []NeighborhoodRecord, profile Profile, order SortOrder) Ranking {
	entries := make([]ViewRecord, len(records))
	for i, r := range records {
		entries[i] = toView(r)
	}

	slices.SortStableFunc(entries, func(a, b ViewRecord) int {
		c := cmp.Compare(a.GlobalScore, b.GlobalScore)
		if order == Descending {
			return -c
		}
		return c
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return Ranking{Profile: profile, Order: order, Entries: entries}
}

func toView(r NeighborhoodRecord) ViewRecord {
	v := ViewRecord{
		ID:          r.ID,
		Name:        r.Name,
		GlobalScore: r.GlobalScore,
		Stars:       Stars(r.GlobalScore),
	}
	for i, c := range Categories {
		v.Scores[i] = CategoryScore{Category: c, Value: r.Scores[c]}
	}
	return v
}

// Stars converts a 0-100 score into a 0-5 star hint.
func Stars(score float64) int {
	if math.IsNaN(score) || score <= 0 {
		return 0
	}
	s := math.Round(score / 20)
	if s >= maxStars {
		return maxStars
	}
	return int(s)
}
