package query

// Defaults and limits for query parameters.
const (
	DefaultLimit          = 10
	MaxLimit              = 100
	DefaultKeywordWeight  = 0.3
	DefaultSemanticWeight = 0.7
)

// Sort is a single sort clause.
type Sort struct {
	Field      string
	Descending bool
}

// Query describes one search request. It is immutable: every With* method
// returns a derived copy, so a builder can be shared across goroutines.
type Query struct {
	text            string
	index           string
	limit           int
	offset          int
	filters         map[string]any
	facetFields     []string
	includeKeyword  bool
	includeSemantic bool
	keywordWeight   float64
	semanticWeight  float64
	typoTolerance   bool
	sorts           []Sort
	highlightFields []string
	minScore        float64
}

// New creates a query with defaults: hybrid retrieval, limit 10,
// keyword/semantic weights 0.3/0.7.
func New(text, index string) Query {
	return Query{
		text:            text,
		index:           index,
		limit:           DefaultLimit,
		includeKeyword:  true,
		includeSemantic: true,
		keywordWeight:   DefaultKeywordWeight,
		semanticWeight:  DefaultSemanticWeight,
	}
}

// Text returns the query text.
func (q *Query) Text() string { return q.text }

// Index returns the target index/collection name.
func (q *Query) Index() string { return q.index }

// Limit returns the page size.
func (q *Query) Limit() int { return q.limit }

// Offset returns the page offset.
func (q *Query) Offset() int { return q.offset }

// Filters returns the field filters (value or set of values per field).
func (q *Query) Filters() map[string]any { return q.filters }

// FacetFields returns the fields to facet on.
func (q *Query) FacetFields() []string { return q.facetFields }

// IncludeKeyword reports whether the lexical branch runs.
func (q *Query) IncludeKeyword() bool { return q.includeKeyword }

// IncludeSemantic reports whether the vector branch runs.
func (q *Query) IncludeSemantic() bool { return q.includeSemantic }

// KeywordWeight returns the lexical score weight.
func (q *Query) KeywordWeight() float64 { return q.keywordWeight }

// SemanticWeight returns the vector score weight.
func (q *Query) SemanticWeight() float64 { return q.semanticWeight }

// TypoTolerance reports whether query normalization is requested.
func (q *Query) TypoTolerance() bool { return q.typoTolerance }

// Sorts returns the requested sort order.
func (q *Query) Sorts() []Sort { return q.sorts }

// HighlightFields returns the fields to highlight.
func (q *Query) HighlightFields() []string { return q.highlightFields }

// MinScore returns the minimum score threshold.
func (q *Query) MinScore() float64 { return q.minScore }

// WithText derives a query with new text.
func (q Query) WithText(text string) Query {
	q.text = text
	return q
}

// WithIndex derives a query targeting another index.
func (q Query) WithIndex(index string) Query {
	q.index = index
	return q
}

// WithLimit derives a query with a new page size, clamped to [1, MaxLimit].
func (q Query) WithLimit(limit int) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	q.limit = limit
	return q
}

// WithOffset derives a query with a new page offset.
func (q Query) WithOffset(offset int) Query {
	if offset < 0 {
		offset = 0
	}
	q.offset = offset
	return q
}

// WithFilter derives a query with one extra filter. The filter map is copied.
func (q Query) WithFilter(field string, value any) Query {
	filters := make(map[string]any, len(q.filters)+1)
	for k, v := range q.filters {
		filters[k] = v
	}
	filters[field] = value
	q.filters = filters
	return q
}

// WithFilters derives a query replacing all filters.
func (q Query) WithFilters(filters map[string]any) Query {
	q.filters = filters
	return q
}

// WithFacets derives a query requesting facets for the given fields.
func (q Query) WithFacets(fields ...string) Query {
	q.facetFields = append([]string(nil), fields...)
	return q
}

// WithWeights derives a query with explicit branch weights.
// Weights are independent and need not sum to 1.
func (q Query) WithWeights(keyword, semantic float64) Query {
	q.keywordWeight = keyword
	q.semanticWeight = semantic
	return q
}

// OnlyKeyword derives a keyword-only query: weight (1, 0), semantic branch off.
func (q Query) OnlyKeyword() Query {
	q.includeKeyword = true
	q.includeSemantic = false
	q.keywordWeight = 1
	q.semanticWeight = 0
	return q
}

// OnlySemantic derives a semantic-only query: weight (0, 1), keyword branch off.
func (q Query) OnlySemantic() Query {
	q.includeKeyword = false
	q.includeSemantic = true
	q.keywordWeight = 0
	q.semanticWeight = 1
	return q
}

// WithBranches derives a query with explicit branch toggles, leaving
// weights untouched.
func (q Query) WithBranches(keyword, semantic bool) Query {
	q.includeKeyword = keyword
	q.includeSemantic = semantic
	return q
}

// WithTypoTolerance derives a query with typo correction toggled.
func (q Query) WithTypoTolerance(enabled bool) Query {
	q.typoTolerance = enabled
	return q
}

// WithSort derives a query with an extra sort clause.
func (q Query) WithSort(field string, descending bool) Query {
	sorts := append([]Sort(nil), q.sorts...)
	q.sorts = append(sorts, Sort{Field: field, Descending: descending})
	return q
}

// WithHighlight derives a query requesting highlights for the given fields.
func (q Query) WithHighlight(fields ...string) Query {
	q.highlightFields = append([]string(nil), fields...)
	return q
}

// WithMinScore derives a query with a minimum score threshold.
func (q Query) WithMinScore(min float64) Query {
	q.minScore = min
	return q
}
