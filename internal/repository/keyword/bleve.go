package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

// Config holds keyword engine settings.
type Config struct {
	// Path is the root directory for index storage. Empty means in-memory
	// indexes (useful for tests and ephemeral deployments).
	Path string
}

// Engine is a lexical retrieval backend on bleve. It manages one bleve
// index per logical index name and returns raw BM25 scores.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	indexes map[string]bleve.Index
}

// NewEngine creates a bleve-backed keyword engine.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		indexes: make(map[string]bleve.Index),
	}
}

// CreateIndex provisions a named index.
func (e *Engine) CreateIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.indexes[name]; ok {
		return nil
	}
	idx, err := e.open(name)
	if err != nil {
		return fmt.Errorf("create index %q: %w", name, err)
	}
	e.indexes[name] = idx
	return nil
}

// DeleteIndex closes and removes a named index.
func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.indexes[name]
	if !ok {
		return nil
	}
	delete(e.indexes, name)
	if err := idx.Close(); err != nil {
		return fmt.Errorf("close index %q: %w", name, err)
	}
	if e.cfg.Path != "" {
		if err := os.RemoveAll(filepath.Join(e.cfg.Path, name)); err != nil {
			return fmt.Errorf("remove index %q: %w", name, err)
		}
	}
	return nil
}

// Index upserts a batch of documents.
func (e *Engine) Index(_ context.Context, index string, docs map[string]map[string]any) error {
	idx, err := e.get(index, true)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	for id, doc := range docs {
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("batch document %q: %w", id, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

// Remove deletes a batch of documents by ID.
func (e *Engine) Remove(_ context.Context, index string, ids []string) error {
	idx, err := e.get(index, false)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// Search runs a BM25 match query, returning an ordered hit list with raw
// lexical scores and highlight fragments for the requested fields.
func (e *Engine) Search(
	ctx context.Context, index, queryText string,
	filters map[string]any, highlightFields []string, limit int,
) ([]hit.Hit, error) {
	idx, err := e.get(index, false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(queryText, filters), limit, 0, false)
	req.Fields = []string{"*"}
	if len(highlightFields) > 0 {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.Fields = highlightFields
	}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index %q: %w", index, err)
	}

	hits := make([]hit.Hit, 0, len(res.Hits))
	for _, dm := range res.Hits {
		var highlights []string
		for _, frags := range dm.Fragments {
			highlights = append(highlights, frags...)
		}
		hits = append(hits, hit.New(dm.ID, dm.Fields, dm.Score, highlights, hit.Keyword))
	}
	return hits, nil
}

// buildQuery combines the match query with exact-term filters. Multi-valued
// filters become a disjunction over their elements.
func buildQuery(queryText string, filters map[string]any) query.Query {
	match := bleve.NewMatchQuery(queryText)
	if len(filters) == 0 {
		return match
	}

	conj := bleve.NewConjunctionQuery(match)
	for field, value := range filters {
		switch v := value.(type) {
		case []string:
			disj := bleve.NewDisjunctionQuery()
			for _, elem := range v {
				disj.AddQuery(termQuery(field, elem))
			}
			conj.AddQuery(disj)
		case []any:
			disj := bleve.NewDisjunctionQuery()
			for _, elem := range v {
				disj.AddQuery(termQuery(field, fmt.Sprintf("%v", elem)))
			}
			conj.AddQuery(disj)
		default:
			conj.AddQuery(termQuery(field, fmt.Sprintf("%v", v)))
		}
	}
	return conj
}

func termQuery(field, value string) query.Query {
	tq := bleve.NewTermQuery(strings.ToLower(value))
	tq.SetField(field)
	return tq
}

// get returns an open index, optionally creating it on first write.
func (e *Engine) get(name string, create bool) (bleve.Index, error) {
	e.mu.RLock()
	idx, ok := e.indexes[name]
	e.mu.RUnlock()
	if ok {
		return idx, nil
	}
	if !create {
		return nil, fmt.Errorf("%w: %q", domain.ErrIndexNotFound, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.indexes[name]; ok {
		return idx, nil
	}
	idx, err := e.open(name)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", name, err)
	}
	e.indexes[name] = idx
	return idx, nil
}

func (e *Engine) open(name string) (bleve.Index, error) {
	mapping := bleve.NewIndexMapping()
	if e.cfg.Path == "" {
		return bleve.NewMemOnly(mapping)
	}

	path := filepath.Join(e.cfg.Path, name)
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return bleve.New(path, mapping)
	}
	return idx, err
}

// Close shuts down all open indexes.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for name, idx := range e.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index %q: %w", name, err)
		}
		delete(e.indexes, name)
	}
	return firstErr
}
