package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// KeywordEngine is the lexical retrieval collaborator. It returns an
// ordered, internally-deduplicated hit list with raw lexical scores.
type KeywordEngine interface {
	Search(
		ctx context.Context, index, queryText string,
		filters map[string]any, highlightFields []string, limit int,
	) ([]hit.Hit, error)
}

// VectorStore is the similarity retrieval collaborator. It returns an
// ordered hit list with raw similarity scores.
type VectorStore interface {
	Search(
		ctx context.Context, collection string,
		vector []float32, limit int, filters map[string]any,
	) ([]hit.Hit, error)
}

// EmbeddingProvider turns text into a fixed-dimension vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	MaxInputLength() int
}

// Cache stores assembled search results by canonical query key.
// Implementations swallow backend failures: a failed Get is a miss and a
// failed Set is dropped, since recomputation is idempotent.
type Cache interface {
	Get(ctx context.Context, key string) (result.Result, bool)
	Set(ctx context.Context, key string, res result.Result, ttl time.Duration)
	InvalidateAll(ctx context.Context)
}
