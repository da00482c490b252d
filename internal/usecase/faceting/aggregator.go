package faceting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

// Defaults for facet aggregation.
const (
	DefaultMaxValuesPerFacet = 10
	DefaultHierarchySep      = "/"
)

// Config holds facet aggregation settings.
type Config struct {
	MaxValuesPerFacet  int
	HierarchySeparator string
}

func (c *Config) applyDefaults() {
	if c.MaxValuesPerFacet <= 0 {
		c.MaxValuesPerFacet = DefaultMaxValuesPerFacet
	}
	if c.HierarchySeparator == "" {
		c.HierarchySeparator = DefaultHierarchySep
	}
}

// Aggregator derives facet summaries from a hit list.
type Aggregator struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an aggregator.
func New(cfg Config, logger *zap.Logger) *Aggregator {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, logger: logger}
}

// Aggregate computes flat facets for every requested field.
func (a *Aggregator) Aggregate(hits []hit.Hit, fields []string) map[string][]facet.Entry {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string][]facet.Entry, len(fields))
	for _, f := range fields {
		out[f] = a.Flat(hits, f)
	}
	return out
}

// Flat groups hits by a field's value, accumulating occurrence count and
// cumulative score per distinct value. Entries are sorted descending by
// count and truncated to the configured maximum.
func (a *Aggregator) Flat(hits []hit.Hit, field string) []facet.Entry {
	counts := make(map[string]int)
	scores := make(map[string]float64)
	for i := range hits {
		v, ok := hits[i].Field(field)
		if !ok {
			continue
		}
		for _, value := range facetValues(v) {
			counts[value]++
			scores[value] += hits[i].Score()
		}
	}

	entries := make([]facet.Entry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, facet.Entry{Value: value, Count: count, Score: scores[value]})
	}
	sortByCount(entries)

	if len(entries) > a.cfg.MaxValuesPerFacet {
		entries = entries[:a.cfg.MaxValuesPerFacet]
	}
	return entries
}

// Ranges counts hits whose numeric field value falls in each named range.
// Ranges may overlap; zero-count ranges are dropped.
func (a *Aggregator) Ranges(hits []hit.Hit, field string, ranges []facet.Range) []facet.Entry {
	entries := make([]facet.Entry, 0, len(ranges))
	for _, r := range ranges {
		count := 0
		score := 0.0
		for i := range hits {
			raw, ok := hits[i].Field(field)
			if !ok {
				continue
			}
			v, isNum := numericValue(raw)
			if !isNum || !r.Contains(v) {
				continue
			}
			count++
			score += hits[i].Score()
		}
		if count == 0 {
			continue
		}
		entries = append(entries, facet.Entry{Value: r.Name, Count: count, Score: score})
	}
	return entries
}

// Hierarchy splits a field's value into path segments and builds a prefix
// tree, incrementing a count at every level. Children nest under parents
// with an increasing level index.
func (a *Aggregator) Hierarchy(hits []hit.Hit, field string) []facet.Entry {
	root := &hierarchyNode{children: map[string]*hierarchyNode{}}

	for i := range hits {
		v, ok := hits[i].Field(field)
		if !ok {
			continue
		}
		for _, value := range facetValues(v) {
			node := root
			for _, seg := range splitPath(value, a.cfg.HierarchySeparator) {
				child, ok := node.children[seg]
				if !ok {
					child = &hierarchyNode{children: map[string]*hierarchyNode{}}
					node.children[seg] = child
				}
				child.count++
				child.score += hits[i].Score()
				node = child
			}
		}
	}
	return root.entries(0)
}

type hierarchyNode struct {
	count    int
	score    float64
	children map[string]*hierarchyNode
}

func (n *hierarchyNode) entries(level int) []facet.Entry {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]facet.Entry, 0, len(n.children))
	for seg, child := range n.children {
		out = append(out, facet.Entry{
			Value:    seg,
			Count:    child.count,
			Score:    child.score,
			Level:    level,
			Children: child.entries(level + 1),
		})
	}
	sortByCount(out)
	return out
}

func splitPath(value, sep string) []string {
	parts := strings.Split(value, sep)
	segs := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Dates buckets hits by calendar truncation at the given granularity.
// Unparsable dates are silently skipped. Buckets sort ascending by key.
func (a *Aggregator) Dates(hits []hit.Hit, field string, g facet.Granularity) []facet.Entry {
	if !g.IsValid() {
		g = facet.Month
	}
	counts := make(map[string]int)
	scores := make(map[string]float64)
	for i := range hits {
		raw, ok := hits[i].Field(field)
		if !ok {
			continue
		}
		t, ok := timeValue(raw)
		if !ok {
			continue
		}
		key := bucketKey(t, g)
		counts[key]++
		scores[key] += hits[i].Score()
	}

	entries := make([]facet.Entry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, facet.Entry{Value: key, Count: count, Score: scores[key]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Value < entries[j].Value })
	return entries
}

// bucketKey renders the calendar bucket a timestamp falls in.
func bucketKey(t time.Time, g facet.Granularity) string {
	switch g {
	case facet.Day:
		return t.Format("2006-01-02")
	case facet.Week:
		// Bucket by the Monday starting the week.
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset).Format("2006-01-02")
	case facet.Quarter:
		q := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), q)
	case facet.Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

func sortByCount(entries []facet.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
}
