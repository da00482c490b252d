package faceting

import (
	"testing"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

func doc(id string, score float64, fields map[string]any) hit.Hit {
	return hit.New(id, fields, score, nil, hit.Hybrid)
}

func ptr(f float64) *float64 { return &f }

func TestFlat(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 0.9, map[string]any{"brand": "acme"}),
		doc("2", 0.7, map[string]any{"brand": "acme"}),
		doc("3", 0.5, map[string]any{"brand": "zenith"}),
		doc("4", 0.3, map[string]any{"color": "red"}), // no brand field
	}

	entries := a.Flat(hits, "brand")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Value != "acme" || entries[0].Count != 2 {
		t.Errorf("top entry = %+v, want acme count 2", entries[0])
	}
	if entries[0].Score != 1.6 {
		t.Errorf("acme cumulative score = %g, want 1.6", entries[0].Score)
	}
	if entries[1].Value != "zenith" || entries[1].Count != 1 {
		t.Errorf("second entry = %+v, want zenith count 1", entries[1])
	}
}

func TestFlat_ArrayValuedField(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 1.0, map[string]any{"tags": []string{"sale", "new"}}),
		doc("2", 1.0, map[string]any{"tags": []any{"sale", ""}}),
	}

	entries := a.Flat(hits, "tags")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Value != "sale" || entries[0].Count != 2 {
		t.Errorf("top entry = %+v, want sale count 2", entries[0])
	}
}

func TestFlat_TruncatesToMaxValues(t *testing.T) {
	a := New(Config{MaxValuesPerFacet: 2}, nil)
	hits := []hit.Hit{
		doc("1", 1, map[string]any{"brand": "a"}),
		doc("2", 1, map[string]any{"brand": "b"}),
		doc("3", 1, map[string]any{"brand": "c"}),
	}
	if entries := a.Flat(hits, "brand"); len(entries) != 2 {
		t.Errorf("expected truncation to 2 entries, got %d", len(entries))
	}
}

func TestFlat_TieBreaksByValue(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 1, map[string]any{"brand": "zenith"}),
		doc("2", 1, map[string]any{"brand": "acme"}),
	}
	entries := a.Flat(hits, "brand")
	if entries[0].Value != "acme" {
		t.Errorf("equal counts should sort by value, got %s first", entries[0].Value)
	}
}

func TestAggregate(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{doc("1", 1, map[string]any{"brand": "acme", "color": "red"})}

	out := a.Aggregate(hits, []string{"brand", "color"})
	if len(out) != 2 {
		t.Fatalf("expected 2 facets, got %d", len(out))
	}
	if len(out["brand"]) != 1 || out["brand"][0].Value != "acme" {
		t.Errorf("brand facet = %+v", out["brand"])
	}

	if out := a.Aggregate(hits, nil); out != nil {
		t.Errorf("expected nil for no fields, got %v", out)
	}
}

func TestRanges(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 0.9, map[string]any{"price": 5.0}),
		doc("2", 0.7, map[string]any{"price": 25.0}),
		doc("3", 0.5, map[string]any{"price": 150.0}),
	}

	ranges := []facet.Range{
		{Name: "under-10", Max: ptr(10)},
		{Name: "10-100", Min: ptr(10), Max: ptr(100)},
		{Name: "under-100", Max: ptr(100)}, // overlaps the first two
		{Name: "luxury", Min: ptr(1000)},   // zero count, dropped
	}

	entries := a.Ranges(hits, "price", ranges)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (zero-count dropped), got %d", len(entries))
	}
	if entries[0].Value != "under-10" || entries[0].Count != 1 {
		t.Errorf("under-10 = %+v", entries[0])
	}
	if entries[2].Value != "under-100" || entries[2].Count != 2 {
		t.Errorf("overlapping range = %+v, want count 2", entries[2])
	}
}

func TestRanges_BoundsAreMinInclusiveMaxExclusive(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{doc("1", 1, map[string]any{"price": 10.0})}

	if entries := a.Ranges(hits, "price", []facet.Range{{Name: "r", Min: ptr(10), Max: ptr(20)}}); len(entries) != 1 {
		t.Error("min bound should be inclusive")
	}
	if entries := a.Ranges(hits, "price", []facet.Range{{Name: "r", Max: ptr(10)}}); len(entries) != 0 {
		t.Error("max bound should be exclusive")
	}
}

func TestHierarchy(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 0.9, map[string]any{"category": "electronics/phones"}),
		doc("2", 0.7, map[string]any{"category": "electronics/laptops"}),
		doc("3", 0.5, map[string]any{"category": "books"}),
	}

	entries := a.Hierarchy(hits, "category")
	if len(entries) != 2 {
		t.Fatalf("expected 2 root entries, got %d", len(entries))
	}

	root := entries[0]
	if root.Value != "electronics" || root.Count != 2 || root.Level != 0 {
		t.Fatalf("root entry = %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	for _, c := range root.Children {
		if c.Level != 1 || c.Count != 1 {
			t.Errorf("child entry = %+v, want level 1 count 1", c)
		}
	}
	if entries[1].Value != "books" || entries[1].Children != nil {
		t.Errorf("leaf entry = %+v", entries[1])
	}
}

func TestHierarchy_SkipsEmptySegments(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{doc("1", 1, map[string]any{"category": "/electronics//phones/"})}

	entries := a.Hierarchy(hits, "category")
	if len(entries) != 1 || entries[0].Value != "electronics" {
		t.Fatalf("unexpected roots: %+v", entries)
	}
	if len(entries[0].Children) != 1 || entries[0].Children[0].Value != "phones" {
		t.Errorf("unexpected children: %+v", entries[0].Children)
	}
}

func TestDates(t *testing.T) {
	a := New(Config{}, nil)
	hits := []hit.Hit{
		doc("1", 0.9, map[string]any{"published": "2025-03-10"}),
		doc("2", 0.7, map[string]any{"published": "2025-03-28"}),
		doc("3", 0.5, map[string]any{"published": "2025-04-02"}),
		doc("4", 0.3, map[string]any{"published": "garbage"}),
	}

	entries := a.Dates(hits, "published", facet.Month)
	if len(entries) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(entries))
	}
	if entries[0].Value != "2025-03" || entries[0].Count != 2 {
		t.Errorf("march bucket = %+v", entries[0])
	}
	if entries[1].Value != "2025-04" || entries[1].Count != 1 {
		t.Errorf("april bucket = %+v", entries[1])
	}
}

func TestDates_Granularities(t *testing.T) {
	a := New(Config{}, nil)
	// 2025-03-12 is a Wednesday; its week starts Monday 2025-03-10.
	hits := []hit.Hit{doc("1", 1, map[string]any{"published": "2025-03-12"})}

	tests := []struct {
		g    facet.Granularity
		want string
	}{
		{facet.Day, "2025-03-12"},
		{facet.Week, "2025-03-10"},
		{facet.Month, "2025-03"},
		{facet.Quarter, "2025-Q1"},
		{facet.Year, "2025"},
		{"bogus", "2025-03"}, // invalid granularity falls back to month
	}
	for _, tc := range tests {
		entries := a.Dates(hits, "published", tc.g)
		if len(entries) != 1 || entries[0].Value != tc.want {
			t.Errorf("%s: got %+v, want bucket %q", tc.g, entries, tc.want)
		}
	}
}

func TestFacetValues(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"single", 1},
		{"", 0},
		{[]string{"a", "b"}, 2},
		{[]any{"a", 2.5, true}, 3},
		{42, 1},
		{nil, 0},
		{map[string]any{}, 0},
	}
	for _, tc := range tests {
		if got := facetValues(tc.in); len(got) != tc.want {
			t.Errorf("facetValues(%v) = %v, want %d values", tc.in, got, tc.want)
		}
	}
}
