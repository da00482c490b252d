package fusion

import (
	"sort"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

// OverFetchMultiplier is how many times the final page size each retrieval
// branch should fetch, so fusion has enough candidates to preserve recall.
const OverFetchMultiplier = 2

// Fuse merges a keyword-sourced and a semantic-sourced hit list into one
// ranked list, keyed by hit ID.
//
// A hit present in a single list keeps that list's weighted score. A hit
// present in both gets the sum of both weighted scores and the hybrid source
// tag; its highlights come from the keyword hit, which carries the lexical
// match snippets. Weighted component scores are recorded in metadata.
//
// Output is sorted non-increasing by fused score. Equal scores keep
// first-seen order (keyword list first, then semantic-only additions).
func Fuse(keyword, semantic []hit.Hit, keywordWeight, semanticWeight float64) []hit.Hit {
	index := make(map[string]int, len(keyword))
	fused := make([]hit.Hit, 0, len(keyword)+len(semantic))

	for _, h := range keyword {
		w := h.Score() * keywordWeight
		index[h.ID()] = len(fused)
		fused = append(fused, h.WithScore(w).
			WithSource(hit.Keyword).
			WithMeta(hit.MetaKeywordScore, w))
	}

	for _, h := range semantic {
		w := h.Score() * semanticWeight
		if i, ok := index[h.ID()]; ok {
			existing := fused[i]
			fused[i] = existing.WithScore(existing.Score()+w).
				WithSource(hit.Hybrid).
				WithMeta(hit.MetaSemanticScore, w)
			continue
		}
		index[h.ID()] = len(fused)
		fused = append(fused, h.WithScore(w).
			WithSource(hit.Semantic).
			WithMeta(hit.MetaSemanticScore, w))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score() > fused[j].Score()
	})
	return fused
}

// Paginate slices a fused, sorted hit list. It is never applied to a source
// list individually.
func Paginate(hits []hit.Hit, offset, limit int) []hit.Hit {
	if offset >= len(hits) {
		return nil
	}
	hits = hits[offset:]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
