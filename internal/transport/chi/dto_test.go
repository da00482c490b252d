package chi

import (
	"net/url"
	"testing"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

func TestBindSearchParams(t *testing.T) {
	values := url.Values{
		"q":              {"red shoes"},
		"mode":           {"keyword"},
		"limit":          {"5"},
		"offset":         {"10"},
		"facets":         {"brand", "color"},
		"typo_tolerance": {"true"},
		"min_score":      {"0.4"},
	}

	p, err := bindSearchParams(values)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if p.Query != "red shoes" {
		t.Errorf("q = %q", p.Query)
	}
	if p.Mode == nil || *p.Mode != "keyword" {
		t.Errorf("mode = %v", p.Mode)
	}
	if p.Limit == nil || *p.Limit != 5 || p.Offset == nil || *p.Offset != 10 {
		t.Errorf("pagination: %v %v", p.Limit, p.Offset)
	}
	if p.Facets == nil || len(*p.Facets) != 2 {
		t.Errorf("facets = %v", p.Facets)
	}
	if p.TypoTolerance == nil || !*p.TypoTolerance {
		t.Errorf("typo_tolerance = %v", p.TypoTolerance)
	}
	if p.MinScore == nil || *p.MinScore != 0.4 {
		t.Errorf("min_score = %v", p.MinScore)
	}
}

func TestBindSearchParams_QRequired(t *testing.T) {
	if _, err := bindSearchParams(url.Values{}); err == nil {
		t.Error("expected error for missing q")
	}
}

func TestBindSearchParams_OptionalDefaults(t *testing.T) {
	p, err := bindSearchParams(url.Values{"q": {"hello"}})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	req := p.toRequest()
	if req.Query != "hello" || req.Mode != nil || req.Limit != nil || req.Facets != nil {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestBuildQuery_Modes(t *testing.T) {
	mode := func(s string) *string { return &s }

	q, err := buildQuery("products", searchRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("default mode failed: %v", err)
	}
	if !q.IncludeKeyword() || !q.IncludeSemantic() {
		t.Error("default should be hybrid")
	}

	q, err = buildQuery("products", searchRequest{Query: "hello", Mode: mode("keyword")})
	if err != nil {
		t.Fatalf("keyword mode failed: %v", err)
	}
	if !q.IncludeKeyword() || q.IncludeSemantic() {
		t.Error("keyword mode branches wrong")
	}

	q, err = buildQuery("products", searchRequest{Query: "hello", Mode: mode("semantic")})
	if err != nil {
		t.Fatalf("semantic mode failed: %v", err)
	}
	if q.IncludeKeyword() || !q.IncludeSemantic() {
		t.Error("semantic mode branches wrong")
	}

	if _, err = buildQuery("products", searchRequest{Query: "hello", Mode: mode("fuzzy")}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestBuildQuery_PartialWeightOverride(t *testing.T) {
	kw := 0.5
	q, err := buildQuery("products", searchRequest{Query: "hello", KeywordWeight: &kw})
	if err != nil {
		t.Fatalf("buildQuery failed: %v", err)
	}
	if q.KeywordWeight() != 0.5 {
		t.Errorf("keyword weight = %g", q.KeywordWeight())
	}
	if q.SemanticWeight() != query.DefaultSemanticWeight {
		t.Errorf("semantic weight = %g, want default kept", q.SemanticWeight())
	}
}

func TestBuildQuery_AllParameters(t *testing.T) {
	limit, offset := 5, 10
	typo := true
	min := 0.4

	q, err := buildQuery("products", searchRequest{
		Query:           "hello",
		Limit:           &limit,
		Offset:          &offset,
		Filters:         map[string]any{"brand": "acme"},
		Facets:          []string{"brand"},
		TypoTolerance:   &typo,
		HighlightFields: []string{"title"},
		MinScore:        &min,
	})
	if err != nil {
		t.Fatalf("buildQuery failed: %v", err)
	}

	if q.Index() != "products" || q.Limit() != 5 || q.Offset() != 10 {
		t.Errorf("basics: index=%q limit=%d offset=%d", q.Index(), q.Limit(), q.Offset())
	}
	if q.Filters()["brand"] != "acme" || len(q.FacetFields()) != 1 {
		t.Errorf("filters=%v facets=%v", q.Filters(), q.FacetFields())
	}
	if !q.TypoTolerance() || q.MinScore() != 0.4 || len(q.HighlightFields()) != 1 {
		t.Errorf("typo=%t min=%g highlights=%v", q.TypoTolerance(), q.MinScore(), q.HighlightFields())
	}
}

func TestResultToResponse(t *testing.T) {
	h := hit.New("doc-1", map[string]any{"title": "red shoes"}, 0.81,
		[]string{"<em>red</em>"}, hit.Hybrid)
	facets := map[string][]facet.Entry{
		"category": {{
			Value: "electronics", Count: 2, Score: 1.5,
			Children: []facet.Entry{{Value: "phones", Count: 1, Level: 1}},
		}},
	}
	q := query.New("red shoes", "products").OnlyKeyword()
	res := result.New([]hit.Hit{h}, 42, 0, 10, 35*time.Millisecond, facets, q)

	resp := resultToResponse(&res)

	if resp.Total != 42 || resp.TookMS != 35 {
		t.Errorf("total=%d took=%d", resp.Total, resp.TookMS)
	}
	if len(resp.Hits) != 1 {
		t.Fatalf("hits = %d", len(resp.Hits))
	}
	rh := resp.Hits[0]
	if rh.ID != "doc-1" || rh.Score != 0.81 || rh.Source != "hybrid" || len(rh.Highlights) != 1 {
		t.Errorf("hit = %+v", rh)
	}

	cat := resp.Facets["category"]
	if len(cat) != 1 || cat[0].Count != 2 || len(cat[0].Children) != 1 {
		t.Errorf("facets = %+v", cat)
	}
	if cat[0].Children[0].Level != 1 {
		t.Errorf("child level = %d", cat[0].Children[0].Level)
	}

	if resp.Query.Text != "red shoes" || resp.Query.Mode != "keyword" {
		t.Errorf("query echo = %+v", resp.Query)
	}
}
