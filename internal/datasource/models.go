package datasource

import (
	"strconv"
	"time"

	"github.com/godilite/urbanscore/internal/ranking"
)

type Statistics struct {
	AreaKm2               float64 `json:"area_km2"`
	Population            float64 `json:"population"`
	DensityPerKm2         float64 `json:"density_per_km2"`
	MedianPropertyValue   float64 `json:"median_property_value"`
	MedianHouseholdIncome float64 `json:"median_household_income"`
}

type Attractions struct {
	GreenSpaces     int `json:"green_spaces"`
	Parks           int `json:"parks"`
	Libraries       int `json:"libraries"`
	Pools           int `json:"pools"`
	MetroStations   int `json:"metro_stations"`
	SportsComplexes int `json:"sports_complexes"`
}

// Borough is a neighborhood as stored by the data source. Scores is nil when the
// payload carried none.
type Borough struct {
	ID               string                       `json:"id"`
	Name             string                       `json:"name"`
	Statistics       Statistics                   `json:"statistics"`
	Attractions      Attractions                  `json:"attractions"`
	GlobalScore      float64                      `json:"global_score"`
	Scores           map[ranking.Category]float64 `json:"scores,omitempty"`
	Source           string                       `json:"source,omitempty"`
	Author           string                       `json:"author,omitempty"`
	DateConsultation string                       `json:"date_consultation,omitempty"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (b Borough) Scored() bool { return b.Scores != nil }

func (b Borough) Record() ranking.NeighborhoodRecord {
	return ranking.NeighborhoodRecord{
		ID:          b.ID,
		Name:        b.Name,
		GlobalScore: b.GlobalScore,
		Scores:      b.Scores,
	}
}

// BoroughInput is the body of a create request.
type BoroughInput struct {
	Name             string      `json:"name"`
	Statistics       Statistics  `json:"statistics"`
	Attractions      Attractions `json:"attractions"`
	Source           string      `json:"source,omitempty"`
	Author           string      `json:"author,omitempty"`
	DateConsultation string      `json:"date_consultation,omitempty"`
}

// BoroughPatch is the body of an update request. Nil fields are left untouched.
type BoroughPatch struct {
	Name             *string      `json:"name,omitempty"`
	Statistics       *Statistics  `json:"statistics,omitempty"`
	Attractions      *Attractions `json:"attractions,omitempty"`
	Source           *string      `json:"source,omitempty"`
	Author           *string      `json:"author,omitempty"`
	DateConsultation *string      `json:"date_consultation,omitempty"`
}

// RankingsParams are the query parameters of a rankings request. Zero-valued
// optional filters are not sent.
type RankingsParams struct {
	Profile       ranking.Profile
	Order         ranking.SortOrder
	SortBy        string
	Limit         int
	Offset        int
	MinPopulation int
	MaxPopulation int
	MinIncome     int
}

// wire types mirror the JSON payload; pointers distinguish absent from zero.

type wireStatistics struct {
	AreaKm2               *float64 `json:"area_km2"`
	Population            *float64 `json:"population"`
	DensityPerKm2         *float64 `json:"density_per_km2"`
	MedianPropertyValue   *float64 `json:"median_property_value"`
	MedianHouseholdIncome *float64 `json:"median_household_income"`
}

type wireAttractions struct {
	GreenSpaces     *float64 `json:"green_spaces"`
	Parks           *float64 `json:"parks"`
	Libraries       *float64 `json:"libraries"`
	Pools           *float64 `json:"pools"`
	MetroStations   *float64 `json:"metro_stations"`
	SportsComplexes *float64 `json:"sports_complexes"`
}

type wireScores struct {
	GlobalScore *float64 `json:"global_score"`
	Security    *float64 `json:"security"`
	Transport   *float64 `json:"transport"`
	Services    *float64 `json:"services"`
	Budget      *float64 `json:"budget"`
	Leisure     *float64 `json:"leisure"`
}

type wireBorough struct {
	MongoID          *string          `json:"_id"`
	ID               *string          `json:"id"`
	Name             string           `json:"name"`
	Statistics       *wireStatistics  `json:"statistics"`
	Attractions      *wireAttractions `json:"attractions"`
	Scores           *wireScores      `json:"scores"`
	Source           *string          `json:"source"`
	Author           *string          `json:"author"`
	DateConsultation *string          `json:"date_consultation"`
	CreatedAt        *string          `json:"created_at"`
	UpdatedAt        *string          `json:"updated_at"`
}

type wireCreated struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

func parseTime(p *string) time.Time {
	if p == nil {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, *p); err == nil {
			return t
		}
	}
	return time.Time{}
}

// toBorough converts a decoded payload, using index as the id when none was sent.
func (w wireBorough) toBorough(index int) Borough {
	b := Borough{
		ID:               str(w.ID),
		Name:             w.Name,
		Source:           str(w.Source),
		Author:           str(w.Author),
		DateConsultation: str(w.DateConsultation),
		CreatedAt:        parseTime(w.CreatedAt),
		UpdatedAt:        parseTime(w.UpdatedAt),
	}
	if b.ID == "" {
		b.ID = str(w.MongoID)
	}
	if b.ID == "" {
		b.ID = strconv.Itoa(index)
	}

	if s := w.Statistics; s != nil {
		b.Statistics = Statistics{
			AreaKm2:               num(s.AreaKm2),
			Population:            num(s.Population),
			DensityPerKm2:         num(s.DensityPerKm2),
			MedianPropertyValue:   num(s.MedianPropertyValue),
			MedianHouseholdIncome: num(s.MedianHouseholdIncome),
		}
	}
	if a := w.Attractions; a != nil {
		b.Attractions = Attractions{
			GreenSpaces:     int(num(a.GreenSpaces)),
			Parks:           int(num(a.Parks)),
			Libraries:       int(num(a.Libraries)),
			Pools:           int(num(a.Pools)),
			MetroStations:   int(num(a.MetroStations)),
			SportsComplexes: int(num(a.SportsComplexes)),
		}
	}
	if s := w.Scores; s != nil {
		b.GlobalScore = num(s.GlobalScore)
		b.Scores = map[ranking.Category]float64{
			ranking.CategorySecurity:  num(s.Security),
			ranking.CategoryTransport: num(s.Transport),
			ranking.CategoryServices:  num(s.Services),
			ranking.CategoryBudget:    num(s.Budget),
			ranking.CategoryLeisure:   num(s.Leisure),
		}
	}
	return b
}

// toRecord is used for ranking payloads, where scores are always expected and
// default to zero when missing.
func (w wireBorough) toRecord(index int) ranking.NeighborhoodRecord {
	b := w.toBorough(index)
	r := b.Record()
	if r.Scores == nil {
		r.Scores = make(map[ranking.Category]float64, len(ranking.Categories))
		for _, c := range ranking.Categories {
			r.Scores[c] = 0
		}
	}
	return r
}
