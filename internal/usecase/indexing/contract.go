package indexing

import "context"

// KeywordIndexer is the lexical backend's indexing contract.
type KeywordIndexer interface {
	Index(ctx context.Context, index string, docs map[string]map[string]any) error
	Remove(ctx context.Context, index string, ids []string) error
	CreateIndex(ctx context.Context, index string) error
	DeleteIndex(ctx context.Context, index string) error
}

// VectorDoc is one document prepared for vector storage.
type VectorDoc struct {
	ID     string
	Vector []float32
	Fields map[string]any
}

// VectorIndexer is the vector backend's indexing contract.
type VectorIndexer interface {
	Store(ctx context.Context, collection string, docs []VectorDoc) error
	Delete(ctx context.Context, collection string, ids []string) error
	CreateCollection(ctx context.Context, collection string, dimension int) error
	DeleteCollection(ctx context.Context, collection string) error
}

// Embedder vectorizes document content at index time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// CacheInvalidator flushes cached search results after a mutation.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context)
}
