package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/metrics"
	"github.com/kailas-cloud/rankfuse/internal/usecase/faceting"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
	"github.com/kailas-cloud/rankfuse/internal/usecase/normalize"
	"github.com/kailas-cloud/rankfuse/internal/usecase/tuning"
)

// Config holds coordinator settings.
type Config struct {
	// BranchTimeout bounds each collaborator call.
	BranchTimeout time.Duration
	// CacheTTL is how long assembled results stay cached.
	CacheTTL time.Duration
	// DegradePartial serves the surviving branch when the other one fails.
	// The default policy aborts the whole search on any branch error.
	DegradePartial bool
	// OverFetch multiplies the page size for branch retrieval, preserving
	// recall before fusion narrows the set down.
	OverFetch int
}

func (c *Config) applyDefaults() {
	if c.BranchTimeout <= 0 {
		c.BranchTimeout = 5 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	if c.OverFetch <= 0 {
		c.OverFetch = fusion.OverFetchMultiplier
	}
}

// Deps are the coordinator's collaborators. Keyword, Vector, and Embedder
// are required for the corresponding retrieval branches; Cache, Normalizer,
// Tuner, and Facets are optional.
type Deps struct {
	Keyword    KeywordEngine
	Vector     VectorStore
	Embedder   EmbeddingProvider
	Cache      Cache
	Normalizer *normalize.Normalizer
	Tuner      *tuning.Tuner
	Facets     *faceting.Aggregator
	Logger     *zap.Logger
}

// Coordinator threads a query through normalization, concurrent retrieval,
// fusion, faceting, and tuning, and assembles the final result.
type Coordinator struct {
	cfg        Config
	keyword    KeywordEngine
	vector     VectorStore
	embedder   EmbeddingProvider
	cache      Cache
	normalizer *normalize.Normalizer
	tuner      *tuning.Tuner
	facets     *faceting.Aggregator
	logger     *zap.Logger
}

// New creates a search coordinator.
func New(cfg Config, deps Deps) *Coordinator {
	cfg.applyDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	facets := deps.Facets
	if facets == nil {
		facets = faceting.New(faceting.Config{}, logger)
	}
	return &Coordinator{
		cfg:        cfg,
		keyword:    deps.Keyword,
		vector:     deps.Vector,
		embedder:   deps.Embedder,
		cache:      deps.Cache,
		normalizer: deps.Normalizer,
		tuner:      deps.Tuner,
		facets:     facets,
		logger:     logger,
	}
}

// Search executes a query end to end.
func (c *Coordinator) Search(ctx context.Context, q query.Query) (result.Result, error) {
	start := time.Now()
	mode := modeLabel(q)

	res, err := c.search(ctx, q, start)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(mode, "error").Inc()
		return result.Result{}, err
	}
	metrics.SearchesTotal.WithLabelValues(mode, "ok").Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	return res, nil
}

func (c *Coordinator) search(ctx context.Context, q query.Query, start time.Time) (result.Result, error) {
	if err := validate(q); err != nil {
		return result.Result{}, err
	}

	text := q.Text()
	if q.TypoTolerance() && c.normalizer != nil {
		text = c.normalizer.Normalize(text)
	}

	key := cacheKey(text, q)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
	}

	keywordHits, semanticHits, err := c.retrieve(ctx, text, q)
	if err != nil {
		return result.Result{}, err
	}

	fused := fusion.Fuse(keywordHits, semanticHits, q.KeywordWeight(), q.SemanticWeight())
	metrics.FusedCandidates.WithLabelValues(modeLabel(q)).Observe(float64(len(fused)))

	if q.MinScore() > 0 {
		filtered := fused[:0]
		for _, h := range fused {
			if h.Score() >= q.MinScore() {
				filtered = append(filtered, h)
			}
		}
		fused = filtered
	}

	total := len(fused)

	var facets map[string][]facet.Entry
	if len(q.FacetFields()) > 0 {
		facets = c.facets.Aggregate(fused, q.FacetFields())
	}

	page := fusion.Paginate(fused, q.Offset(), q.Limit())
	if c.tuner != nil {
		page = c.tuner.Apply(text, page)
	}

	res := result.New(page, total, q.Offset(), q.Limit(), time.Since(start), facets, q.WithText(text))
	if c.cache != nil {
		c.cache.Set(ctx, key, res, c.cfg.CacheTTL)
	}
	return res, nil
}

// retrieve dispatches the enabled branches concurrently and joins them, so
// latency is bounded by the slower branch.
func (c *Coordinator) retrieve(ctx context.Context, text string, q query.Query) (
	keywordHits, semanticHits []hit.Hit, err error,
) {
	keywordLimit := q.Offset() + q.Limit()
	semanticLimit := keywordLimit * c.cfg.OverFetch

	g, gctx := errgroup.WithContext(ctx)
	var kwErr, semErr error

	if q.IncludeKeyword() {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, c.cfg.BranchTimeout)
			defer cancel()
			hits, searchErr := c.keyword.Search(bctx, q.Index(), text, q.Filters(), q.HighlightFields(), keywordLimit)
			if searchErr != nil {
				kwErr = fmt.Errorf("%w: %w", domain.ErrKeywordEngine, searchErr)
				if !c.cfg.DegradePartial {
					return kwErr
				}
				return nil
			}
			keywordHits = hits
			return nil
		})
	}

	if q.IncludeSemantic() {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, c.cfg.BranchTimeout)
			defer cancel()
			hits, searchErr := c.searchSemantic(bctx, text, q.Index(), q.Filters(), semanticLimit)
			if searchErr != nil {
				semErr = searchErr
				if !c.cfg.DegradePartial {
					return semErr
				}
				return nil
			}
			semanticHits = hits
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, waitErr
	}

	if c.cfg.DegradePartial {
		keywordDown := q.IncludeKeyword() && kwErr != nil
		semanticDown := q.IncludeSemantic() && semErr != nil
		if (kwErr != nil || !q.IncludeKeyword()) && (semErr != nil || !q.IncludeSemantic()) {
			return nil, nil, errors.Join(kwErr, semErr)
		}
		if keywordDown {
			c.logger.Warn("keyword branch degraded", zap.Error(kwErr))
		}
		if semanticDown {
			c.logger.Warn("semantic branch degraded", zap.Error(semErr))
		}
	}

	return keywordHits, semanticHits, nil
}

// searchSemantic embeds the query text and runs similarity search.
func (c *Coordinator) searchSemantic(
	ctx context.Context, text, index string, filters map[string]any, limit int,
) ([]hit.Hit, error) {
	if max := c.embedder.MaxInputLength(); max > 0 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max])
		}
	}
	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	hits, err := c.vector.Search(ctx, index, vector, limit, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
	}
	return hits, nil
}

func validate(q query.Query) error {
	if q.Text() == "" {
		return fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if q.Index() == "" {
		return fmt.Errorf("%w: index is required", domain.ErrInvalidQuery)
	}
	if !q.IncludeKeyword() && !q.IncludeSemantic() {
		return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, domain.ErrNoRetrievalBranch)
	}
	return nil
}

func modeLabel(q query.Query) string {
	switch {
	case q.IncludeKeyword() && q.IncludeSemantic():
		return "hybrid"
	case q.IncludeKeyword():
		return "keyword"
	default:
		return "semantic"
	}
}
