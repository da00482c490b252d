package tuning

import (
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

// FieldBoost scales by a numeric field value: boost = 1 + value*weight.
// A non-numeric, non-empty value contributes the bare weight instead.
type FieldBoost struct {
	Field  string
	Weight float64
}

// Name implements Factor.
func (f FieldBoost) Name() string { return "field_boost" }

// Boost implements Factor.
func (f FieldBoost) Boost(_ string, h *hit.Hit) float64 {
	v, ok := h.Field(f.Field)
	if !ok || v == nil {
		return 1
	}
	if n, isNum := numericValue(v); isNum {
		return 1 + n*f.Weight
	}
	if stringValue(v) == "" {
		return 1
	}
	return f.Weight
}

// Default time decay parameters.
const (
	DefaultDecayFloor = 0.1
)

// TimeDecay discounts old documents: boost = exp(-decayRate * ageDays/30),
// clamped below by Floor. Documents older than MaxAgeDays get exactly Floor.
// A missing or unparsable date field is a neutral boost, not an error.
type TimeDecay struct {
	Field      string
	DecayRate  float64
	MaxAgeDays float64
	Floor      float64
	// Clock overrides time.Now for deterministic ages. Nil means time.Now.
	Clock func() time.Time
}

// Name implements Factor.
func (f TimeDecay) Name() string { return "time_decay" }

// Boost implements Factor.
func (f TimeDecay) Boost(_ string, h *hit.Hit) float64 {
	floor := f.Floor
	if floor <= 0 {
		floor = DefaultDecayFloor
	}
	v, ok := h.Field(f.Field)
	if !ok {
		return 1
	}
	t, ok := timeValue(v)
	if !ok {
		return 1
	}

	now := time.Now
	if f.Clock != nil {
		now = f.Clock
	}
	ageDays := now().Sub(t).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	if f.MaxAgeDays > 0 && ageDays > f.MaxAgeDays {
		return floor
	}
	return math.Max(floor, math.Exp(-f.DecayRate*ageDays/30))
}

// PopularityField configures one popularity signal.
type PopularityField struct {
	Name   string
	Weight float64
	// Max is the normalization ceiling for the field's values.
	Max float64
	// Linear switches from log-scale normalization to a linear clamp.
	Linear bool
}

// Popularity sums normalized popularity signals:
// boost = 1 + sum(weight * norm(value)). Normalization is log-scale
// log(v+1)/log(max+1) by default, or a linear clamp of v/max to [0, 1].
type Popularity struct {
	Fields []PopularityField
}

// Name implements Factor.
func (f Popularity) Name() string { return "popularity" }

// Boost implements Factor.
func (f Popularity) Boost(_ string, h *hit.Hit) float64 {
	sum := 0.0
	for _, pf := range f.Fields {
		raw, ok := h.Field(pf.Name)
		if !ok {
			continue
		}
		v, isNum := numericValue(raw)
		if !isNum || v < 0 || pf.Max <= 0 {
			continue
		}
		var norm float64
		if pf.Linear {
			norm = v / pf.Max
			if norm > 1 {
				norm = 1
			}
		} else {
			norm = math.Log(v+1) / math.Log(pf.Max+1)
		}
		sum += pf.Weight * norm
	}
	return 1 + sum
}

// Category multiplies by an exact-match lookup on a category field.
// An absent category or an unmapped value leaves the score unchanged.
type Category struct {
	Field       string
	Multipliers map[string]float64
}

// Name implements Factor.
func (f Category) Name() string { return "category" }

// Boost implements Factor.
func (f Category) Boost(_ string, h *hit.Hit) float64 {
	v, ok := h.Field(f.Field)
	if !ok {
		return 1
	}
	if m, found := f.Multipliers[stringValue(v)]; found {
		return m
	}
	return 1
}

// Default user preference multipliers.
const (
	DefaultCategoryBoost = 1.5
	DefaultAuthorBoost   = 1.3
	DefaultLanguageBoost = 1.2
)

// Preferences is a caller-supplied profile of preferred document attributes.
type Preferences struct {
	Categories []string
	Authors    []string
	Languages  []string
}

// UserPreference applies independent multipliers when a hit's category,
// author, or language exactly matches the caller's preference profile.
type UserPreference struct {
	Profile       Preferences
	CategoryField string
	AuthorField   string
	LanguageField string
	CategoryBoost float64
	AuthorBoost   float64
	LanguageBoost float64
}

// Name implements Factor.
func (f UserPreference) Name() string { return "user_preference" }

// Boost implements Factor.
func (f UserPreference) Boost(_ string, h *hit.Hit) float64 {
	boost := 1.0
	if matchesField(h, orDefault(f.CategoryField, "category"), f.Profile.Categories) {
		boost *= orDefaultF(f.CategoryBoost, DefaultCategoryBoost)
	}
	if matchesField(h, orDefault(f.AuthorField, "author"), f.Profile.Authors) {
		boost *= orDefaultF(f.AuthorBoost, DefaultAuthorBoost)
	}
	if matchesField(h, orDefault(f.LanguageField, "language"), f.Profile.Languages) {
		boost *= orDefaultF(f.LanguageBoost, DefaultLanguageBoost)
	}
	return boost
}

func matchesField(h *hit.Hit, field string, preferred []string) bool {
	v, ok := h.Field(field)
	if !ok {
		return false
	}
	s := stringValue(v)
	if s == "" {
		return false
	}
	for _, p := range preferred {
		if p == s {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultF(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Geographic parameters.
const (
	EarthRadiusKm      = 6371
	DefaultGeoFloor    = 0.5
	DefaultGeoStrength = 0.5
)

// Geographic boosts hits near the caller: within MaxDistanceKm the boost is
// 1 + strength*(1 - distance/maxDistance); beyond it, a fixed floor.
// Hits without coordinates are left alone.
type Geographic struct {
	Latitude      float64
	Longitude     float64
	LatField      string
	LonField      string
	MaxDistanceKm float64
	Strength      float64
	Floor         float64
}

// Name implements Factor.
func (f Geographic) Name() string { return "geographic" }

// Boost implements Factor.
func (f Geographic) Boost(_ string, h *hit.Hit) float64 {
	latRaw, latOK := h.Field(orDefault(f.LatField, "latitude"))
	lonRaw, lonOK := h.Field(orDefault(f.LonField, "longitude"))
	if !latOK || !lonOK {
		return 1
	}
	lat, latNum := numericValue(latRaw)
	lon, lonNum := numericValue(lonRaw)
	if !latNum || !lonNum || f.MaxDistanceKm <= 0 {
		return 1
	}

	d := haversineKm(f.Latitude, f.Longitude, lat, lon)
	if d >= f.MaxDistanceKm {
		return orDefaultF(f.Floor, DefaultGeoFloor)
	}
	strength := f.Strength
	if strength <= 0 {
		strength = DefaultGeoStrength
	}
	return 1 + strength*(1-d/f.MaxDistanceKm)
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// QueryFieldOverlap boosts hits whose configured fields contain query terms:
// boost = 1 + sum(fieldBoost * matchedTerms/totalTerms) over fields.
type QueryFieldOverlap struct {
	// Fields maps field name to its boost contribution.
	Fields map[string]float64
}

// Name implements Factor.
func (f QueryFieldOverlap) Name() string { return "query_field_overlap" }

// Boost implements Factor.
func (f QueryFieldOverlap) Boost(queryText string, h *hit.Hit) float64 {
	terms := strings.Fields(strings.ToLower(queryText))
	if len(terms) == 0 {
		return 1
	}

	boost := 1.0
	for field, fieldBoost := range f.Fields {
		v, ok := h.Field(field)
		if !ok {
			continue
		}
		text := strings.ToLower(stringValue(v))
		if text == "" {
			continue
		}
		fieldTerms := make(map[string]bool)
		for _, t := range strings.Fields(text) {
			fieldTerms[t] = true
		}
		matched := 0
		for _, t := range terms {
			if fieldTerms[t] {
				matched++
			}
		}
		boost += fieldBoost * float64(matched) / float64(len(terms))
	}
	return boost
}
