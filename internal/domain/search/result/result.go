package result

import (
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
)

// Result is the assembled response for one search request.
type Result struct {
	hits   []hit.Hit
	total  int
	offset int
	limit  int
	took   time.Duration
	facets map[string][]facet.Entry
	query  query.Query
	cursor string
}

// New creates a result. Hits must already be in final rank order.
func New(
	hits []hit.Hit, total, offset, limit int,
	took time.Duration,
	facets map[string][]facet.Entry,
	q query.Query,
) Result {
	return Result{
		hits:   hits,
		total:  total,
		offset: offset,
		limit:  limit,
		took:   took,
		facets: facets,
		query:  q,
	}
}

// Hits returns the hits in final rank order.
func (r *Result) Hits() []hit.Hit { return r.hits }

// Total returns the total candidate count before pagination.
func (r *Result) Total() int { return r.total }

// Offset returns the applied page offset.
func (r *Result) Offset() int { return r.offset }

// Limit returns the applied page size.
func (r *Result) Limit() int { return r.limit }

// Took returns the server-side processing duration.
func (r *Result) Took() time.Duration { return r.took }

// Facets returns facet entries keyed by field name.
func (r *Result) Facets() map[string][]facet.Entry { return r.facets }

// Query echoes the query parameters that produced this result.
func (r *Result) Query() query.Query { return r.query }

// Cursor returns the pagination cursor, empty when not set.
func (r *Result) Cursor() string { return r.cursor }

// WithCursor derives a result carrying a pagination cursor.
func (r Result) WithCursor(cursor string) Result {
	r.cursor = cursor
	return r
}

// WithHits derives a result with a replaced hit list (used after tuning).
func (r Result) WithHits(hits []hit.Hit) Result {
	r.hits = hits
	return r
}
