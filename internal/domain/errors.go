package domain

import "errors"

var (
	// ErrInvalidQuery signals a query that fails validation (missing text or index).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrKeywordEngine signals a lexical backend failure.
	ErrKeywordEngine = errors.New("keyword engine error")
	// ErrVectorStore signals a vector backend failure.
	ErrVectorStore = errors.New("vector store error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexNotFound signals a missing index/collection.
	ErrIndexNotFound = errors.New("index not found")
	// ErrNoRetrievalBranch signals a query with both retrieval paths disabled.
	ErrNoRetrievalBranch = errors.New("no retrieval branch enabled")
)
