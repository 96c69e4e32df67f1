package models

import "time"

// NeighborhoodContent is the editorial text shown on a neighborhood detail page.
type NeighborhoodContent struct {
	Name        string
	Description string
	Strengths   []string
	Weaknesses  []string
	UpdatedAt   time.Time
}
