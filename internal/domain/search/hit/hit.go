package hit

// Source identifies the retrieval path that produced a hit.
type Source string

// Retrieval sources.
const (
	Keyword  Source = "keyword"
	Semantic Source = "semantic"
	// Hybrid marks a hit found by both retrieval paths and fused into one.
	Hybrid Source = "hybrid"
)

// Metadata keys recorded during fusion and tuning.
const (
	MetaOriginalScore = "original_score"
	MetaKeywordScore  = "keyword_score"
	MetaSemanticScore = "semantic_score"
)

// Hit is a single retrieved document with its score and provenance.
// It is a value type: mutation happens by deriving a new Hit via With*.
type Hit struct {
	id         string
	document   map[string]any
	score      float64
	highlights []string
	metadata   map[string]any
	source     Source
}

// New creates a hit.
func New(id string, document map[string]any, score float64, highlights []string, source Source) Hit {
	return Hit{
		id:         id,
		document:   document,
		score:      score,
		highlights: highlights,
		source:     source,
	}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Document returns the document fields.
func (h *Hit) Document() map[string]any { return h.document }

// Score returns the current relevance score.
func (h *Hit) Score() float64 { return h.score }

// Highlights returns the snippet list.
func (h *Hit) Highlights() []string { return h.highlights }

// Metadata returns provenance metadata (component scores, tuning base).
func (h *Hit) Metadata() map[string]any { return h.metadata }

// Source returns the retrieval source tag.
func (h *Hit) Source() Source { return h.source }

// Field looks up a document field by name.
func (h *Hit) Field(name string) (any, bool) {
	v, ok := h.document[name]
	return v, ok
}

// WithScore derives a hit with a new score.
func (h Hit) WithScore(score float64) Hit {
	h.score = score
	return h
}

// WithSource derives a hit with a new source tag.
func (h Hit) WithSource(s Source) Hit {
	h.source = s
	return h
}

// WithHighlights derives a hit with new highlights.
func (h Hit) WithHighlights(highlights []string) Hit {
	h.highlights = highlights
	return h
}

// WithMeta derives a hit with an extra metadata entry.
// The metadata map is copied so the original hit stays untouched.
func (h Hit) WithMeta(key string, value any) Hit {
	meta := make(map[string]any, len(h.metadata)+1)
	for k, v := range h.metadata {
		meta[k] = v
	}
	meta[key] = value
	h.metadata = meta
	return h
}

// MetaFloat reads a numeric metadata entry.
func (h *Hit) MetaFloat(key string) (float64, bool) {
	v, ok := h.metadata[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
