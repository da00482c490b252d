package tuning

import (
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
)

// Factor computes a multiplicative boost >= 0 for a hit. queryText is the
// (normalized) query; factors that do not depend on it ignore it.
type Factor interface {
	Name() string
	Boost(queryText string, h *hit.Hit) float64
}

// Tuner applies an ordered pipeline of boost factors to a ranked hit list.
type Tuner struct {
	factors []Factor
	logger  *zap.Logger
}

// New creates a tuner with the given factor pipeline.
func New(logger *zap.Logger, factors ...Factor) *Tuner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tuner{factors: factors, logger: logger}
}

// Factors returns the pipeline's factor names in order.
func (t *Tuner) Factors() []string {
	names := make([]string, len(t.factors))
	for i, f := range t.factors {
		names[i] = f.Name()
	}
	return names
}

// Apply rescales every hit by the product of all factor boosts and re-sorts
// descending by the new score.
//
// Boosts are always computed from the pre-tuning base score recorded in
// metadata under original_score, so applying the tuner to an already-tuned
// list yields the same scores instead of compounding them.
func (t *Tuner) Apply(queryText string, hits []hit.Hit) []hit.Hit {
	if len(t.factors) == 0 {
		return hits
	}

	out := make([]hit.Hit, len(hits))
	for i, h := range hits {
		base, ok := h.MetaFloat(hit.MetaOriginalScore)
		if !ok {
			base = h.Score()
			h = h.WithMeta(hit.MetaOriginalScore, base)
		}

		boost := 1.0
		for _, f := range t.factors {
			boost *= f.Boost(queryText, &h)
		}
		out[i] = h.WithScore(base * boost)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}
