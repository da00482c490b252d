package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain"
)

// Config holds indexing settings.
type Config struct {
	// ContentField is the document field embedded for semantic retrieval.
	ContentField string
}

func (c *Config) applyDefaults() {
	if c.ContentField == "" {
		c.ContentField = "content"
	}
}

// Hooks is the explicit indexing event interface an external persistence
// layer invokes on document lifecycle changes. The core never reaches into
// a persistence framework itself.
//
// Every mutation invalidates the whole result cache namespace; invalidation
// is deliberately coarse, not query-scoped.
type Hooks struct {
	cfg      Config
	keyword  KeywordIndexer
	vector   VectorIndexer
	embedder Embedder
	cache    CacheInvalidator
	logger   *zap.Logger
}

// NewHooks creates indexing hooks. cache may be nil when result caching is off.
func NewHooks(
	cfg Config,
	keyword KeywordIndexer,
	vector VectorIndexer,
	embedder Embedder,
	cache CacheInvalidator,
	logger *zap.Logger,
) *Hooks {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hooks{
		cfg:      cfg,
		keyword:  keyword,
		vector:   vector,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

// OnCreate indexes a newly persisted document in both backends.
func (h *Hooks) OnCreate(ctx context.Context, index, id string, doc map[string]any) error {
	return h.OnCreateBatch(ctx, index, map[string]map[string]any{id: doc})
}

// OnUpdate re-indexes a changed document. Both backends upsert, so update
// and create share the same path.
func (h *Hooks) OnUpdate(ctx context.Context, index, id string, doc map[string]any) error {
	return h.OnCreateBatch(ctx, index, map[string]map[string]any{id: doc})
}

// OnCreateBatch indexes a batch of documents.
func (h *Hooks) OnCreateBatch(ctx context.Context, index string, docs map[string]map[string]any) error {
	if err := h.keyword.Index(ctx, index, docs); err != nil {
		return fmt.Errorf("%w: index keyword: %w", domain.ErrKeywordEngine, err)
	}

	vdocs := make([]VectorDoc, 0, len(docs))
	for id, doc := range docs {
		content, _ := doc[h.cfg.ContentField].(string)
		if content == "" {
			h.logger.Debug("document has no embeddable content, skipping vector store",
				zap.String("index", index), zap.String("id", id))
			continue
		}
		vector, err := h.embedder.Embed(ctx, content)
		if err != nil {
			return fmt.Errorf("%w: embed document %s: %w", domain.ErrEmbeddingProviderError, id, err)
		}
		vdocs = append(vdocs, VectorDoc{ID: id, Vector: vector, Fields: doc})
	}
	if len(vdocs) > 0 {
		if err := h.vector.Store(ctx, index, vdocs); err != nil {
			return fmt.Errorf("%w: store vectors: %w", domain.ErrVectorStore, err)
		}
	}

	h.invalidate(ctx)
	return nil
}

// OnDelete removes a document from both backends.
func (h *Hooks) OnDelete(ctx context.Context, index, id string) error {
	return h.OnDeleteBatch(ctx, index, []string{id})
}

// OnDeleteBatch removes a batch of documents.
func (h *Hooks) OnDeleteBatch(ctx context.Context, index string, ids []string) error {
	if err := h.keyword.Remove(ctx, index, ids); err != nil {
		return fmt.Errorf("%w: remove keyword: %w", domain.ErrKeywordEngine, err)
	}
	if err := h.vector.Delete(ctx, index, ids); err != nil {
		return fmt.Errorf("%w: delete vectors: %w", domain.ErrVectorStore, err)
	}
	h.invalidate(ctx)
	return nil
}

// CreateIndex provisions an index in both backends.
func (h *Hooks) CreateIndex(ctx context.Context, index string) error {
	if err := h.keyword.CreateIndex(ctx, index); err != nil {
		return fmt.Errorf("%w: create keyword index: %w", domain.ErrKeywordEngine, err)
	}
	if err := h.vector.CreateCollection(ctx, index, h.embedder.Dimension()); err != nil {
		return fmt.Errorf("%w: create collection: %w", domain.ErrVectorStore, err)
	}
	return nil
}

// DeleteIndex drops an index from both backends.
func (h *Hooks) DeleteIndex(ctx context.Context, index string) error {
	if err := h.keyword.DeleteIndex(ctx, index); err != nil {
		return fmt.Errorf("%w: delete keyword index: %w", domain.ErrKeywordEngine, err)
	}
	if err := h.vector.DeleteCollection(ctx, index); err != nil {
		return fmt.Errorf("%w: delete collection: %w", domain.ErrVectorStore, err)
	}
	h.invalidate(ctx)
	return nil
}

func (h *Hooks) invalidate(ctx context.Context) {
	if h.cache != nil {
		h.cache.InvalidateAll(ctx)
	}
}
