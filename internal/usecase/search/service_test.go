package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/usecase/normalize"
	"github.com/kailas-cloud/rankfuse/internal/usecase/tuning"
)

type mockKeyword struct {
	hits     []hit.Hit
	err      error
	calls    int
	gotText  string
	gotLimit int
}

func (m *mockKeyword) Search(
	_ context.Context, _, queryText string, _ map[string]any, _ []string, limit int,
) ([]hit.Hit, error) {
	m.calls++
	m.gotText = queryText
	m.gotLimit = limit
	return m.hits, m.err
}

type mockVector struct {
	hits     []hit.Hit
	err      error
	calls    int
	gotLimit int
}

func (m *mockVector) Search(
	_ context.Context, _ string, _ []float32, limit int, _ map[string]any,
) ([]hit.Hit, error) {
	m.calls++
	m.gotLimit = limit
	return m.hits, m.err
}

type mockEmbedder struct {
	vector  []float32
	err     error
	calls   int
	gotText string
	maxLen  int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	m.gotText = text
	return m.vector, m.err
}

func (m *mockEmbedder) Dimension() int      { return len(m.vector) }
func (m *mockEmbedder) MaxInputLength() int { return m.maxLen }

type mockCache struct {
	stored map[string]result.Result
	sets   int
}

func (m *mockCache) Get(_ context.Context, key string) (result.Result, bool) {
	r, ok := m.stored[key]
	return r, ok
}

func (m *mockCache) Set(_ context.Context, key string, res result.Result, _ time.Duration) {
	if m.stored == nil {
		m.stored = make(map[string]result.Result)
	}
	m.stored[key] = res
	m.sets++
}

func (m *mockCache) InvalidateAll(_ context.Context) {
	m.stored = nil
}

func kwHit(id string, score float64) hit.Hit {
	return hit.New(id, map[string]any{"brand": "acme"}, score, nil, hit.Keyword)
}

func semHit(id string, score float64) hit.Hit {
	return hit.New(id, map[string]any{"brand": "acme"}, score, nil, hit.Semantic)
}

func coordinator(cfg Config, kw *mockKeyword, vec *mockVector, emb *mockEmbedder, cache Cache) *Coordinator {
	return New(cfg, Deps{
		Keyword:  kw,
		Vector:   vec,
		Embedder: emb,
		Cache:    cache,
	})
}

func TestSearch_HybridFusesBothBranches(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{kwHit("doc-a", 0.8), kwHit("doc-b", 0.6)}}
	vec := &mockVector{hits: []hit.Hit{semHit("doc-b", 0.9), semHit("doc-c", 0.5)}}
	emb := &mockEmbedder{vector: []float32{0.1, 0.2}}

	c := coordinator(Config{}, kw, vec, emb, nil)
	res, err := c.Search(context.Background(), query.New("hello", "products"))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if kw.calls != 1 || vec.calls != 1 || emb.calls != 1 {
		t.Errorf("collaborator calls: keyword=%d vector=%d embedder=%d", kw.calls, vec.calls, emb.calls)
	}
	if res.Total() != 3 {
		t.Errorf("total = %d, want 3", res.Total())
	}

	// Fused at default 0.3/0.7: doc-b 0.81, doc-c 0.35, doc-a 0.24.
	want := []string{"doc-b", "doc-c", "doc-a"}
	hits := res.Hits()
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for i := range hits {
		if hits[i].ID() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, hits[i].ID(), want[i])
		}
	}
}

func TestSearch_OverFetchesSemanticBranch(t *testing.T) {
	kw := &mockKeyword{}
	vec := &mockVector{}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{OverFetch: 3}, kw, vec, emb, nil)
	q := query.New("hello", "products").WithLimit(10).WithOffset(5)
	if _, err := c.Search(context.Background(), q); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if kw.gotLimit != 15 {
		t.Errorf("keyword limit = %d, want offset+limit 15", kw.gotLimit)
	}
	if vec.gotLimit != 45 {
		t.Errorf("semantic limit = %d, want 3x over-fetch 45", vec.gotLimit)
	}
}

func TestSearch_KeywordOnlySkipsSemanticBranch(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{kwHit("doc-a", 0.8)}}
	vec := &mockVector{}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{}, kw, vec, emb, nil)
	res, err := c.Search(context.Background(), query.New("hello", "products").OnlyKeyword())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if emb.calls != 0 || vec.calls != 0 {
		t.Errorf("semantic collaborators called: embedder=%d vector=%d", emb.calls, vec.calls)
	}
	// Keyword-only weight is 1: score passes through.
	if res.Hits()[0].Score() != 0.8 {
		t.Errorf("score = %g, want 0.8", res.Hits()[0].Score())
	}
}

func TestSearch_SemanticOnlySkipsKeywordBranch(t *testing.T) {
	kw := &mockKeyword{}
	vec := &mockVector{hits: []hit.Hit{semHit("doc-c", 0.5)}}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{}, kw, vec, emb, nil)
	if _, err := c.Search(context.Background(), query.New("hello", "products").OnlySemantic()); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if kw.calls != 0 {
		t.Errorf("keyword engine called %d times", kw.calls)
	}
}

func TestSearch_Validation(t *testing.T) {
	c := coordinator(Config{}, &mockKeyword{}, &mockVector{}, &mockEmbedder{vector: []float32{0.1}}, nil)

	tests := []struct {
		name     string
		q        query.Query
		sentinel error
	}{
		{"empty text", query.New("", "products"), domain.ErrInvalidQuery},
		{"empty index", query.New("hello", ""), domain.ErrInvalidQuery},
		{"no branches", query.New("hello", "products").WithBranches(false, false), domain.ErrNoRetrievalBranch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Search(context.Background(), tc.q)
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("got %v, want %v", err, tc.sentinel)
			}
		})
	}
}

func TestSearch_FailFastOnBranchError(t *testing.T) {
	kw := &mockKeyword{err: errors.New("index corrupt")}
	vec := &mockVector{hits: []hit.Hit{semHit("doc-c", 0.5)}}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{}, kw, vec, emb, nil)
	_, err := c.Search(context.Background(), query.New("hello", "products"))
	if !errors.Is(err, domain.ErrKeywordEngine) {
		t.Errorf("got %v, want ErrKeywordEngine", err)
	}
}

func TestSearch_EmbeddingFailureMapsToProviderError(t *testing.T) {
	kw := &mockKeyword{}
	vec := &mockVector{}
	emb := &mockEmbedder{err: errors.New("quota exceeded")}

	c := coordinator(Config{}, kw, vec, emb, nil)
	_, err := c.Search(context.Background(), query.New("hello", "products"))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("got %v, want ErrEmbeddingProviderError", err)
	}
}

func TestSearch_DegradePartialServesSurvivingBranch(t *testing.T) {
	kw := &mockKeyword{err: errors.New("index corrupt")}
	vec := &mockVector{hits: []hit.Hit{semHit("doc-c", 0.5)}}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{DegradePartial: true}, kw, vec, emb, nil)
	res, err := c.Search(context.Background(), query.New("hello", "products"))
	if err != nil {
		t.Fatalf("expected degraded result, got error: %v", err)
	}
	if len(res.Hits()) != 1 || res.Hits()[0].ID() != "doc-c" {
		t.Errorf("unexpected hits: %v", res.Hits())
	}
}

func TestSearch_DegradePartialFailsWhenAllBranchesDown(t *testing.T) {
	kw := &mockKeyword{err: errors.New("index corrupt")}
	vec := &mockVector{err: errors.New("connection refused")}
	emb := &mockEmbedder{vector: []float32{0.1}}

	c := coordinator(Config{DegradePartial: true}, kw, vec, emb, nil)
	_, err := c.Search(context.Background(), query.New("hello", "products"))
	if err == nil {
		t.Fatal("expected error when every branch fails")
	}
	if !errors.Is(err, domain.ErrKeywordEngine) || !errors.Is(err, domain.ErrVectorStore) {
		t.Errorf("joined error should carry both sentinels, got %v", err)
	}
}

func TestSearch_CacheHitShortCircuitsRetrieval(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{kwHit("doc-a", 0.8)}}
	vec := &mockVector{}
	emb := &mockEmbedder{vector: []float32{0.1}}
	cache := &mockCache{}

	c := coordinator(Config{}, kw, vec, emb, cache)
	q := query.New("hello", "products")

	if _, err := c.Search(context.Background(), q); err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected result cached, sets = %d", cache.sets)
	}

	res, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if kw.calls != 1 {
		t.Errorf("keyword engine called %d times, want 1 (cache hit)", kw.calls)
	}
	if len(res.Hits()) != 1 {
		t.Errorf("cached result hits = %d, want 1", len(res.Hits()))
	}
}

func TestSearch_MinScoreFiltersFusedHits(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{kwHit("doc-a", 0.9), kwHit("doc-b", 0.2)}}

	c := coordinator(Config{}, kw, &mockVector{}, &mockEmbedder{vector: []float32{0.1}}, nil)
	q := query.New("hello", "products").OnlyKeyword().WithMinScore(0.5)

	res, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Total() != 1 || res.Hits()[0].ID() != "doc-a" {
		t.Errorf("min score filter: total=%d hits=%v", res.Total(), res.Hits())
	}
}

func TestSearch_FacetsCoverFullFusedSet(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{kwHit("a", 0.9), kwHit("b", 0.8), kwHit("c", 0.7)}}

	c := coordinator(Config{}, kw, &mockVector{}, &mockEmbedder{vector: []float32{0.1}}, nil)
	q := query.New("hello", "products").OnlyKeyword().WithLimit(1).WithFacets("brand")

	res, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.Hits()) != 1 {
		t.Fatalf("page size = %d, want 1", len(res.Hits()))
	}
	brand := res.Facets()["brand"]
	if len(brand) != 1 || brand[0].Count != 3 {
		t.Errorf("facet counts should cover all fused hits, got %+v", brand)
	}
}

func TestSearch_TypoToleranceNormalizesText(t *testing.T) {
	kw := &mockKeyword{}
	c := New(Config{}, Deps{
		Keyword:    kw,
		Vector:     &mockVector{},
		Embedder:   &mockEmbedder{vector: []float32{0.1}},
		Normalizer: normalize.New(normalize.Config{}, nil, nil),
	})

	q := query.New("Hello World", "products").WithTypoTolerance(true)
	res, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if kw.gotText != "hello world" {
		t.Errorf("keyword branch received %q, want normalized text", kw.gotText)
	}
	echoed := res.Query()
	if echoed.Text() != "hello world" {
		t.Errorf("result echoes %q, want normalized text", echoed.Text())
	}
}

func TestSearch_TruncatesEmbedderInput(t *testing.T) {
	emb := &mockEmbedder{vector: []float32{0.1}, maxLen: 5}
	c := coordinator(Config{}, &mockKeyword{}, &mockVector{}, emb, nil)

	if _, err := c.Search(context.Background(), query.New("hello world", "products")); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if emb.gotText != "hello" {
		t.Errorf("embedder received %q, want truncated %q", emb.gotText, "hello")
	}
}

func TestSearch_TunerRunsOnPage(t *testing.T) {
	kw := &mockKeyword{hits: []hit.Hit{
		hit.New("plain", map[string]any{}, 0.9, nil, hit.Keyword),
		hit.New("promoted", map[string]any{"promoted": 1.0}, 0.6, nil, hit.Keyword),
	}}

	c := New(Config{}, Deps{
		Keyword:  kw,
		Vector:   &mockVector{},
		Embedder: &mockEmbedder{vector: []float32{0.1}},
		Tuner:    tuning.New(nil, tuning.FieldBoost{Field: "promoted", Weight: 1.0}),
	})

	res, err := c.Search(context.Background(), query.New("hello", "products").OnlyKeyword())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	// promoted: 0.6 * (1 + 1) = 1.2 beats plain's 0.9 after tuning.
	if res.Hits()[0].ID() != "promoted" {
		t.Errorf("expected tuner to rerank, got %s first", res.Hits()[0].ID())
	}
}
