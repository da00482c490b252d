package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
)

const cacheKeyPrefix = "rankfuse:search:"

// cacheKey builds a canonical hash over everything that determines a result:
// the normalized query text, index, sorted filters, pagination, and weights.
// Facet and highlight requests are part of the result shape, so they are
// hashed too.
func cacheKey(normalizedText string, q query.Query) string {
	var b strings.Builder
	b.WriteString(normalizedText)
	b.WriteByte('\n')
	b.WriteString(q.Index())
	b.WriteByte('\n')

	keys := make([]string, 0, len(q.Filters()))
	for k := range q.Filters() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v\n", k, q.Filters()[k])
	}

	fmt.Fprintf(&b, "%d|%d|%g|%g|%t|%t\n",
		q.Limit(), q.Offset(),
		q.KeywordWeight(), q.SemanticWeight(),
		q.IncludeKeyword(), q.IncludeSemantic(),
	)
	fmt.Fprintf(&b, "facets=%s\n", strings.Join(q.FacetFields(), ","))
	fmt.Fprintf(&b, "highlight=%s\n", strings.Join(q.HighlightFields(), ","))
	fmt.Fprintf(&b, "min=%g\n", q.MinScore())

	h := sha256.Sum256([]byte(b.String()))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
