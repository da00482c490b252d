package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces. Consumers
// depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	KVStore
	VectorIndex
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with TTL, plus pattern-based
// deletion used for coarse cache invalidation.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// IndexDefinition describes an FT vector index over hash keys.
type IndexDefinition struct {
	Name      string
	Prefix    string
	Dimension int
	// TagFields are hash fields indexed as TAG for exact-match pre-filtering.
	TagFields []string
}

// KNNQuery is a vector similarity query against an FT index.
type KNNQuery struct {
	IndexName string
	Vector    []float32
	K         int
	// TagFilters pre-filter candidates by exact tag match per field.
	TagFilters map[string]string
}

// SearchEntry is one raw document returned by the backend.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is a raw backend result set.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// VectorIndex provides vector index lifecycle, document writes, and KNN search.
type VectorIndex interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, keys ...string) error
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
