package chi

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// searchRequest is the POST /search body.
type searchRequest struct {
	Query           string         `json:"query"`
	Mode            *string        `json:"mode,omitempty"` // hybrid (default), keyword, semantic
	Limit           *int           `json:"limit,omitempty"`
	Offset          *int           `json:"offset,omitempty"`
	Filters         map[string]any `json:"filters,omitempty"`
	Facets          []string       `json:"facets,omitempty"`
	KeywordWeight   *float64       `json:"keyword_weight,omitempty"`
	SemanticWeight  *float64       `json:"semantic_weight,omitempty"`
	TypoTolerance   *bool          `json:"typo_tolerance,omitempty"`
	HighlightFields []string       `json:"highlight_fields,omitempty"`
	MinScore        *float64       `json:"min_score,omitempty"`
}

// searchParams are the GET /search query parameters.
type searchParams struct {
	Query         string
	Mode          *string
	Limit         *int
	Offset        *int
	Facets        *[]string
	TypoTolerance *bool
	MinScore      *float64
}

// bindSearchParams decodes GET query parameters with the oapi-codegen
// runtime binder, matching the POST body semantics.
func bindSearchParams(values url.Values) (searchParams, error) {
	var p searchParams

	if err := runtime.BindQueryParameter("form", true, true, "q", values, &p.Query); err != nil {
		return p, fmt.Errorf("parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", values, &p.Mode); err != nil {
		return p, fmt.Errorf("parameter mode: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", values, &p.Limit); err != nil {
		return p, fmt.Errorf("parameter limit: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", values, &p.Offset); err != nil {
		return p, fmt.Errorf("parameter offset: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "facets", values, &p.Facets); err != nil {
		return p, fmt.Errorf("parameter facets: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "typo_tolerance", values, &p.TypoTolerance); err != nil {
		return p, fmt.Errorf("parameter typo_tolerance: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_score", values, &p.MinScore); err != nil {
		return p, fmt.Errorf("parameter min_score: %w", err)
	}

	return p, nil
}

func (p searchParams) toRequest() searchRequest {
	req := searchRequest{
		Query:         p.Query,
		Mode:          p.Mode,
		Limit:         p.Limit,
		Offset:        p.Offset,
		TypoTolerance: p.TypoTolerance,
		MinScore:      p.MinScore,
	}
	if p.Facets != nil {
		req.Facets = *p.Facets
	}
	return req
}

// buildQuery assembles a domain query from the wire request.
func buildQuery(index string, req searchRequest) (query.Query, error) {
	q := query.New(req.Query, index)

	if req.Mode != nil {
		switch *req.Mode {
		case "", "hybrid":
		case "keyword":
			q = q.OnlyKeyword()
		case "semantic":
			q = q.OnlySemantic()
		default:
			return q, fmt.Errorf("mode must be hybrid, keyword or semantic, got %q", *req.Mode)
		}
	}
	if req.Limit != nil {
		q = q.WithLimit(*req.Limit)
	}
	if req.Offset != nil {
		q = q.WithOffset(*req.Offset)
	}
	if len(req.Filters) > 0 {
		q = q.WithFilters(req.Filters)
	}
	if len(req.Facets) > 0 {
		q = q.WithFacets(req.Facets...)
	}
	if req.KeywordWeight != nil || req.SemanticWeight != nil {
		kw, sw := q.KeywordWeight(), q.SemanticWeight()
		if req.KeywordWeight != nil {
			kw = *req.KeywordWeight
		}
		if req.SemanticWeight != nil {
			sw = *req.SemanticWeight
		}
		q = q.WithWeights(kw, sw)
	}
	if req.TypoTolerance != nil {
		q = q.WithTypoTolerance(*req.TypoTolerance)
	}
	if len(req.HighlightFields) > 0 {
		q = q.WithHighlight(req.HighlightFields...)
	}
	if req.MinScore != nil {
		q = q.WithMinScore(*req.MinScore)
	}

	return q, nil
}

// searchResponse is the wire form of a search result.
type searchResponse struct {
	Hits   []hitResponse            `json:"hits"`
	Total  int                      `json:"total"`
	Offset int                      `json:"offset"`
	Limit  int                      `json:"limit"`
	TookMS int64                    `json:"took_ms"`
	Facets map[string][]facetEntry  `json:"facets,omitempty"`
	Query  searchResponseQuery      `json:"query"`
}

type searchResponseQuery struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type hitResponse struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	Source     string         `json:"source"`
	Document   map[string]any `json:"document,omitempty"`
	Highlights []string       `json:"highlights,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type facetEntry struct {
	Value    string       `json:"value"`
	Count    int          `json:"count"`
	Score    float64      `json:"score,omitempty"`
	Level    int          `json:"level,omitempty"`
	Children []facetEntry `json:"children,omitempty"`
}

func resultToResponse(res *result.Result) searchResponse {
	hits := res.Hits()
	out := make([]hitResponse, len(hits))
	for i := range hits {
		out[i] = hitToResponse(&hits[i])
	}

	var facets map[string][]facetEntry
	if len(res.Facets()) > 0 {
		facets = make(map[string][]facetEntry, len(res.Facets()))
		for field, entries := range res.Facets() {
			facets[field] = facetEntriesToResponse(entries)
		}
	}

	q := res.Query()
	return searchResponse{
		Hits:   out,
		Total:  res.Total(),
		Offset: res.Offset(),
		Limit:  res.Limit(),
		TookMS: res.Took().Milliseconds(),
		Facets: facets,
		Query: searchResponseQuery{
			Text: q.Text(),
			Mode: queryMode(q),
		},
	}
}

func hitToResponse(h *hit.Hit) hitResponse {
	return hitResponse{
		ID:         h.ID(),
		Score:      h.Score(),
		Source:     string(h.Source()),
		Document:   h.Document(),
		Highlights: h.Highlights(),
		Metadata:   h.Metadata(),
	}
}

func facetEntriesToResponse(entries []facet.Entry) []facetEntry {
	out := make([]facetEntry, len(entries))
	for i, e := range entries {
		out[i] = facetEntry{
			Value:    e.Value,
			Count:    e.Count,
			Score:    e.Score,
			Level:    e.Level,
			Children: facetEntriesToResponse(e.Children),
		}
	}
	return out
}

func queryMode(q query.Query) string {
	switch {
	case q.IncludeKeyword() && q.IncludeSemantic():
		return "hybrid"
	case q.IncludeKeyword():
		return "keyword"
	default:
		return "semantic"
	}
}

// upsertDocumentRequest is the PUT /documents/{id} body.
type upsertDocumentRequest struct {
	Fields map[string]any `json:"fields"`
}

// batchUpsertRequest is the POST /documents/batch body.
type batchUpsertRequest struct {
	Documents map[string]map[string]any `json:"documents"`
}

// batchDeleteRequest is the DELETE /documents/batch body.
type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
