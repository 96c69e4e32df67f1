package grpc

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/urbanscore/internal/datasource"
	"github.com/godilite/urbanscore/internal/ranking"
	"github.com/godilite/urbanscore/internal/service"
	"github.com/godilite/urbanscore/internal/state"
)

var errInvalidField = errors.New("invalid field")

// stringField returns the string stored under key. ok is false when the key is
// absent, null or empty.
func stringField(req *structpb.Struct, key string) (value string, ok bool, err error) {
	v, found := req.GetFields()[key]
	if !found {
		return "", false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", false, nil
	case *structpb.Value_StringValue:
		return k.StringValue, k.StringValue != "", nil
	}
	return "", false, fmt.Errorf("%w: %s must be a string", errInvalidField, key)
}

func boolField(req *structpb.Struct, key string) (bool, error) {
	v, found := req.GetFields()[key]
	if !found {
		return false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return false, nil
	case *structpb.Value_BoolValue:
		return k.BoolValue, nil
	}
	return false, fmt.Errorf("%w: %s must be a boolean", errInvalidField, key)
}

// selectionFields reads the optional profile and order fields. Nil means absent.
func selectionFields(req *structpb.Struct) (*ranking.Profile, *ranking.SortOrder, error) {
	var (
		profile *ranking.Profile
		order   *ranking.SortOrder
	)

	if s, ok, err := stringField(req, "profile"); err != nil {
		return nil, nil, err
	} else if ok {
		p, err := ranking.ParseProfile(s)
		if err != nil {
			return nil, nil, err
		}
		profile = &p
	}

	if s, ok, err := stringField(req, "order"); err != nil {
		return nil, nil, err
	} else if ok {
		o, err := ranking.ParseSortOrder(s)
		if err != nil {
			return nil, nil, err
		}
		order = &o
	}

	return profile, order, nil
}

// selection applies the optional request fields over base.
func selection(req *structpb.Struct, base state.Selection) (state.Selection, error) {
	profile, order, err := selectionFields(req)
	if err != nil {
		return state.Selection{}, err
	}
	if profile != nil {
		base.Profile = *profile
	}
	if order != nil {
		base.Order = *order
	}
	return base, nil
}

func stringList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func scoreList(scores [5]ranking.CategoryScore) []any {
	out := make([]any, len(scores))
	for i, s := range scores {
		out[i] = map[string]any{
			"category": string(s.Category),
			"value":    s.Value,
		}
	}
	return out
}

func viewRecordMap(v ranking.ViewRecord) map[string]any {
	return map[string]any{
		"rank":         v.Rank,
		"id":           v.ID,
		"name":         v.Name,
		"global_score": v.GlobalScore,
		"stars":        v.Stars,
		"scores":       scoreList(v.Scores),
	}
}

func entriesList(entries []ranking.ViewRecord) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = viewRecordMap(e)
	}
	return out
}

func rankingStruct(r ranking.Ranking) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"profile":       r.Profile.String(),
		"order":         r.Order.String(),
		"neighborhoods": entriesList(r.Entries),
	})
}

func snapshotMap(s state.Snapshot) map[string]any {
	m := map[string]any{
		"seq":           s.Seq,
		"profile":       s.Selection.Profile.String(),
		"order":         s.Selection.Order.String(),
		"status":        s.Status.String(),
		"neighborhoods": entriesList(s.Entries),
	}
	if s.Message != "" {
		m["message"] = s.Message
	}
	if !s.UpdatedAt.IsZero() {
		m["updated_at"] = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func sessionStruct(id string, s state.Snapshot) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"session_id": id,
		"state":      snapshotMap(s),
	})
}

func statisticsMap(s datasource.Statistics) map[string]any {
	return map[string]any{
		"area_km2":                s.AreaKm2,
		"population":              s.Population,
		"density_per_km2":         s.DensityPerKm2,
		"median_property_value":   s.MedianPropertyValue,
		"median_household_income": s.MedianHouseholdIncome,
	}
}

func attractionsMap(a datasource.Attractions) map[string]any {
	return map[string]any{
		"green_spaces":     a.GreenSpaces,
		"parks":            a.Parks,
		"libraries":        a.Libraries,
		"pools":            a.Pools,
		"metro_stations":   a.MetroStations,
		"sports_complexes": a.SportsComplexes,
	}
}

func detailStruct(d service.Detail) (*structpb.Struct, error) {
	m := viewRecordMap(d.Entry)
	m["id"] = d.ID
	m["name"] = d.Name
	m["profile"] = d.Profile.String()
	m["ranked"] = d.Ranked
	m["statistics"] = statisticsMap(d.Statistics)
	m["attractions"] = attractionsMap(d.Attractions)
	m["description"] = d.Description
	m["strengths"] = stringList(d.Strengths)
	m["weaknesses"] = stringList(d.Weaknesses)
	return structpb.NewStruct(m)
}

func boroughsStruct(boroughs []datasource.Borough) (*structpb.Struct, error) {
	list := make([]any, len(boroughs))
	for i, b := range boroughs {
		m := map[string]any{
			"id":          b.ID,
			"name":        b.Name,
			"statistics":  statisticsMap(b.Statistics),
			"attractions": attractionsMap(b.Attractions),
		}
		if b.Scored() {
			m["global_score"] = b.GlobalScore
		}
		list[i] = m
	}
	return structpb.NewStruct(map[string]any{"boroughs": list})
}
