package ranking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownProfile   = errors.New("unknown profile")
	ErrUnknownSortOrder = errors.New("unknown sort order")
)

// Category is one of the five scored dimensions of a neighborhood.
type Category string

const (
	CategorySecurity  Category = "security"
	CategoryTransport Category = "transport"
	CategoryServices  Category = "services"
	CategoryBudget    Category = "budget"
	CategoryLeisure   Category = "leisure"
)

// Categories is the display order of per-category scores.
var Categories = [5]Category{
	CategorySecurity,
	CategoryTransport,
	CategoryServices,
	CategoryBudget,
	CategoryLeisure,
}

// Profile is a resident persona. The data source weights category scores per profile.
type Profile string

const (
	ProfileAll       Profile = "all"
	ProfileGeneral   Profile = "general"
	ProfileFamily    Profile = "family"
	ProfileStudent   Profile = "student"
	ProfileSenior    Profile = "senior"
	ProfileLowBudget Profile = "low_budget"
)

var profileDataSourceValues = map[Profile]string{
	ProfileAll:       "general",
	ProfileGeneral:   "general",
	ProfileFamily:    "famille",
	ProfileStudent:   "etudiant",
	ProfileSenior:    "personne_agee",
	ProfileLowBudget: "petit_budget",
}

// ParseProfile accepts canonical profile names as well as the names used by the data source.
// The empty string selects ProfileAll.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ProfileAll, nil
	case "general":
		return ProfileGeneral, nil
	case "family", "famille":
		return ProfileFamily, nil
	case "student", "etudiant":
		return ProfileStudent, nil
	case "senior", "personne_agee":
		return ProfileSenior, nil
	case "low_budget", "petit_budget":
		return ProfileLowBudget, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// DataSourceValue is the profile name the remote API expects. "all" has no remote
// counterpart and is sent as "general".
func (p Profile) DataSourceValue() string {
	if v, ok := profileDataSourceValues[p]; ok {
		return v
	}
	return profileDataSourceValues[ProfileAll]
}

func (p Profile) String() string { return string(p) }

// SortOrder selects best-first (Descending) or worst-first (Ascending) ordering.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "best":
		return Descending, nil
	case "asc", "ascending", "worst":
		return Ascending, nil
	}
	return Descending, fmt.Errorf("%w: %q", ErrUnknownSortOrder, s)
}

func (o SortOrder) DataSourceValue() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

func (o SortOrder) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// NeighborhoodRecord is one neighborhood as delivered by the data source for a profile.
type NeighborhoodRecord struct {
	ID          string
	Name        string
	GlobalScore float64
	Scores      map[Category]float64
}

type CategoryScore struct {
	Category Category
	Value    float64
}

// ViewRecord is the display-ready form of a NeighborhoodRecord.
type ViewRecord struct {
	Rank        int
	ID          string
	Name        string
	GlobalScore float64
	Stars       int
	Scores      [5]CategoryScore
}

// Score returns the value for c, or 0 when c is not a known category.
func (v ViewRecord) Score(c Category) float64 {
	for _, s := range v.Scores {
		if s.Category == c {
			return s.Value
		}
	}
	return 0
}

// Ranking is an ordered list of view records for one profile and sort order.
// Entries must be treated as read-only once computed.
type Ranking struct {
	Profile Profile
	Order   SortOrder
	Entries []ViewRecord
}
