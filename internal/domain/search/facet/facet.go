package facet

// Entry is one aggregated facet value.
// Level is 0 for flat facets; hierarchical facets nest children with
// increasing levels.
type Entry struct {
	Value    string
	Count    int
	Score    float64
	Level    int
	Children []Entry
}

// Range is a caller-defined numeric bucket. Min is inclusive, Max exclusive.
// A nil bound leaves that side open. Ranges may overlap.
type Range struct {
	Name string
	Min  *float64
	Max  *float64
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v >= *r.Max {
		return false
	}
	return true
}

// Granularity is a calendar truncation unit for date facets.
type Granularity string

// Date facet granularities.
const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// IsValid checks if the granularity is one of the supported values.
func (g Granularity) IsValid() bool {
	switch g {
	case Day, Week, Month, Quarter, Year:
		return true
	}
	return false
}
