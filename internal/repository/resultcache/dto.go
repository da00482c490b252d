package resultcache

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// resultDTO is the wire form of a cached result. Domain types keep their
// fields unexported, so caching serializes through this mirror.
type resultDTO struct {
	Hits   []hitDTO                 `json:"hits"`
	Total  int                      `json:"total"`
	Offset int                      `json:"offset"`
	Limit  int                      `json:"limit"`
	TookMS int64                    `json:"took_ms"`
	Facets map[string][]facet.Entry `json:"facets,omitempty"`
	Query  queryDTO                 `json:"query"`
	Cursor string                   `json:"cursor,omitempty"`
}

type hitDTO struct {
	ID         string         `json:"id"`
	Document   map[string]any `json:"document,omitempty"`
	Score      float64        `json:"score"`
	Highlights []string       `json:"highlights,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     string         `json:"source"`
}

type queryDTO struct {
	Text            string         `json:"text"`
	Index           string         `json:"index"`
	Limit           int            `json:"limit"`
	Offset          int            `json:"offset,omitempty"`
	Filters         map[string]any `json:"filters,omitempty"`
	FacetFields     []string       `json:"facet_fields,omitempty"`
	Keyword         bool           `json:"keyword"`
	Semantic        bool           `json:"semantic"`
	KeywordWeight   float64        `json:"keyword_weight"`
	SemanticWeight  float64        `json:"semantic_weight"`
	TypoTolerance   bool           `json:"typo_tolerance,omitempty"`
	Sorts           []sortDTO      `json:"sorts,omitempty"`
	HighlightFields []string       `json:"highlight_fields,omitempty"`
	MinScore        float64        `json:"min_score,omitempty"`
}

type sortDTO struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

func encode(res result.Result) ([]byte, error) {
	hits := res.Hits()
	dtoHits := make([]hitDTO, len(hits))
	for i := range hits {
		h := &hits[i]
		dtoHits[i] = hitDTO{
			ID:         h.ID(),
			Document:   h.Document(),
			Score:      h.Score(),
			Highlights: h.Highlights(),
			Metadata:   h.Metadata(),
			Source:     string(h.Source()),
		}
	}

	q := res.Query()
	sorts := make([]sortDTO, len(q.Sorts()))
	for i, s := range q.Sorts() {
		sorts[i] = sortDTO{Field: s.Field, Descending: s.Descending}
	}

	return json.Marshal(resultDTO{
		Hits:   dtoHits,
		Total:  res.Total(),
		Offset: res.Offset(),
		Limit:  res.Limit(),
		TookMS: res.Took().Milliseconds(),
		Facets: res.Facets(),
		Query: queryDTO{
			Text:            q.Text(),
			Index:           q.Index(),
			Limit:           q.Limit(),
			Offset:          q.Offset(),
			Filters:         q.Filters(),
			FacetFields:     q.FacetFields(),
			Keyword:         q.IncludeKeyword(),
			Semantic:        q.IncludeSemantic(),
			KeywordWeight:   q.KeywordWeight(),
			SemanticWeight:  q.SemanticWeight(),
			TypoTolerance:   q.TypoTolerance(),
			Sorts:           sorts,
			HighlightFields: q.HighlightFields(),
			MinScore:        q.MinScore(),
		},
		Cursor: res.Cursor(),
	})
}

func decode(data []byte) (result.Result, error) {
	var dto resultDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return result.Result{}, err
	}

	hits := make([]hit.Hit, len(dto.Hits))
	for i, dh := range dto.Hits {
		h := hit.New(dh.ID, dh.Document, dh.Score, dh.Highlights, hit.Source(dh.Source))
		for k, v := range dh.Metadata {
			h = h.WithMeta(k, v)
		}
		hits[i] = h
	}

	dq := dto.Query
	q := query.New(dq.Text, dq.Index).
		WithLimit(dq.Limit).
		WithOffset(dq.Offset).
		WithFilters(dq.Filters).
		WithFacets(dq.FacetFields...).
		WithBranches(dq.Keyword, dq.Semantic).
		WithWeights(dq.KeywordWeight, dq.SemanticWeight).
		WithTypoTolerance(dq.TypoTolerance).
		WithHighlight(dq.HighlightFields...).
		WithMinScore(dq.MinScore)
	for _, s := range dq.Sorts {
		q = q.WithSort(s.Field, s.Descending)
	}

	res := result.New(
		hits, dto.Total, dto.Offset, dto.Limit,
		time.Duration(dto.TookMS)*time.Millisecond,
		dto.Facets, q,
	)
	if dto.Cursor != "" {
		res = res.WithCursor(dto.Cursor)
	}
	return res, nil
}
