package fusion

import (
	"math"
	"testing"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

func kwHit(id string, score float64) hit.Hit {
	return hit.New(id, map[string]any{"title": id}, score, []string{"<em>" + id + "</em>"}, hit.Keyword)
}

func semHit(id string, score float64) hit.Hit {
	return hit.New(id, map[string]any{"title": id}, score, nil, hit.Semantic)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuse_WeightedSum(t *testing.T) {
	// doc-a keyword-only 0.8, doc-b in both 0.6/0.9, doc-c semantic-only 0.5.
	keyword := []hit.Hit{kwHit("doc-a", 0.8), kwHit("doc-b", 0.6)}
	semantic := []hit.Hit{semHit("doc-b", 0.9), semHit("doc-c", 0.5)}

	fused := Fuse(keyword, semantic, 0.3, 0.7)

	if len(fused) != 3 {
		t.Fatalf("expected 3 fused hits, got %d", len(fused))
	}

	// doc-b: 0.6*0.3 + 0.9*0.7 = 0.81, doc-c: 0.5*0.7 = 0.35, doc-a: 0.8*0.3 = 0.24
	wantOrder := []string{"doc-b", "doc-c", "doc-a"}
	wantScore := []float64{0.81, 0.35, 0.24}
	for i := range fused {
		if fused[i].ID() != wantOrder[i] {
			t.Errorf("position %d: got %s, want %s", i, fused[i].ID(), wantOrder[i])
		}
		if !approxEqual(fused[i].Score(), wantScore[i]) {
			t.Errorf("%s: score %g, want %g", fused[i].ID(), fused[i].Score(), wantScore[i])
		}
	}
}

func TestFuse_OverlapTaggedHybrid(t *testing.T) {
	fused := Fuse(
		[]hit.Hit{kwHit("doc-b", 0.6)},
		[]hit.Hit{semHit("doc-b", 0.9)},
		0.3, 0.7,
	)

	if len(fused) != 1 {
		t.Fatalf("expected 1 fused hit, got %d", len(fused))
	}
	h := fused[0]
	if h.Source() != hit.Hybrid {
		t.Errorf("source = %s, want %s", h.Source(), hit.Hybrid)
	}
	if kw, ok := h.MetaFloat(hit.MetaKeywordScore); !ok || !approxEqual(kw, 0.18) {
		t.Errorf("keyword component = %g, want 0.18", kw)
	}
	if sem, ok := h.MetaFloat(hit.MetaSemanticScore); !ok || !approxEqual(sem, 0.63) {
		t.Errorf("semantic component = %g, want 0.63", sem)
	}
	// Highlights survive from the keyword hit.
	if len(h.Highlights()) != 1 {
		t.Errorf("expected keyword highlights to survive fusion, got %v", h.Highlights())
	}
}

func TestFuse_SingleSourceKeepsTag(t *testing.T) {
	fused := Fuse([]hit.Hit{kwHit("doc-a", 0.8)}, nil, 1, 0)
	if fused[0].Source() != hit.Keyword {
		t.Errorf("keyword-only hit tagged %s", fused[0].Source())
	}

	fused = Fuse(nil, []hit.Hit{semHit("doc-c", 0.5)}, 0, 1)
	if fused[0].Source() != hit.Semantic {
		t.Errorf("semantic-only hit tagged %s", fused[0].Source())
	}
}

func TestFuse_TieKeepsFirstSeenOrder(t *testing.T) {
	// Equal fused scores: keyword list order first, then semantic additions.
	keyword := []hit.Hit{kwHit("first", 0.5), kwHit("second", 0.5)}
	semantic := []hit.Hit{semHit("third", 0.5)}

	fused := Fuse(keyword, semantic, 1, 1)

	want := []string{"first", "second", "third"}
	for i := range fused {
		if fused[i].ID() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, fused[i].ID(), want[i])
		}
	}
}

func TestFuse_Empty(t *testing.T) {
	if fused := Fuse(nil, nil, 0.3, 0.7); len(fused) != 0 {
		t.Errorf("expected empty fusion, got %d hits", len(fused))
	}
}

func TestPaginate(t *testing.T) {
	hits := []hit.Hit{kwHit("a", 3), kwHit("b", 2), kwHit("c", 1)}

	page := Paginate(hits, 0, 2)
	if len(page) != 2 || page[0].ID() != "a" || page[1].ID() != "b" {
		t.Errorf("unexpected first page: %v", ids(page))
	}

	page = Paginate(hits, 2, 2)
	if len(page) != 1 || page[0].ID() != "c" {
		t.Errorf("unexpected last page: %v", ids(page))
	}

	if page = Paginate(hits, 5, 2); page != nil {
		t.Errorf("expected nil past the end, got %v", ids(page))
	}

	if page = Paginate(hits, 0, 0); len(page) != 3 {
		t.Errorf("expected zero limit to return all, got %v", ids(page))
	}
}

func ids(hits []hit.Hit) []string {
	out := make([]string, len(hits))
	for i := range hits {
		out[i] = hits[i].ID()
	}
	return out
}
