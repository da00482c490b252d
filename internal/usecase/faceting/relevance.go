package faceting

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/facet"
)

// Relevance blend weights for facet ordering and suggestions.
const (
	orderCountWeight     = 0.7
	orderRelevanceWeight = 0.3

	suggestRelevanceWeight = 0.6
	suggestCountWeight     = 0.4
	suggestCountScale      = 100.0
)

// OrderByRelevance reorders facet entries by a blend of occurrence count and
// how well each value matches the query:
// blended = count*0.7 + queryRelevance*0.3.
func OrderByRelevance(entries []facet.Entry, queryText string) []facet.Entry {
	out := append([]facet.Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return blendedScore(out[i], queryText) > blendedScore(out[j], queryText)
	})
	return out
}

func blendedScore(e facet.Entry, queryText string) float64 {
	return float64(e.Count)*orderCountWeight + queryRelevance(e.Value, queryText)*orderRelevanceWeight
}

// queryRelevance scores how well a facet value matches the query:
// exact case-insensitive match 1.0, prefix 0.8, substring 0.6, otherwise a
// character-similarity ratio scaled by 0.4.
func queryRelevance(value, queryText string) float64 {
	v := strings.ToLower(value)
	q := strings.ToLower(queryText)
	switch {
	case q == "":
		return 0
	case v == q:
		return 1.0
	case strings.HasPrefix(v, q):
		return 0.8
	case strings.Contains(v, q):
		return 0.6
	}
	return charSimilarity(v, q) * 0.4
}

// charSimilarity is the ratio of shared characters (multiset intersection)
// to the longer string's length.
func charSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	shared := 0
	for _, r := range rb {
		if counts[r] > 0 {
			counts[r]--
			shared++
		}
	}
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return float64(shared) / float64(longer)
}

// Suggest filters a facet's values to those containing the query as a
// substring, ranked by relevance*0.6 + (count/100)*0.4, capped at max.
func (a *Aggregator) Suggest(entries []facet.Entry, queryText string, max int) []facet.Entry {
	if max <= 0 {
		max = a.cfg.MaxValuesPerFacet
	}
	q := strings.ToLower(queryText)

	matched := make([]facet.Entry, 0, len(entries))
	for _, e := range entries {
		if q != "" && !strings.Contains(strings.ToLower(e.Value), q) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return suggestScore(matched[i], queryText) > suggestScore(matched[j], queryText)
	})
	if len(matched) > max {
		matched = matched[:max]
	}
	return matched
}

func suggestScore(e facet.Entry, queryText string) float64 {
	return queryRelevance(e.Value, queryText)*suggestRelevanceWeight +
		float64(e.Count)/suggestCountScale*suggestCountWeight
}
