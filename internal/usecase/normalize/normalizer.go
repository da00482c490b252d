package normalize

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Defaults for typo tolerance.
const (
	DefaultMinTokenLength  = 3
	DefaultMaxEditDistance = 2
	DefaultMaxAlternatives = 10
	DefaultMinFrequency    = 1
)

// Vocabulary validates correction candidates against a reference corpus.
// Lookup returns the corpus frequency of a word.
type Vocabulary interface {
	Lookup(word string) (freq int, ok bool)
}

// PhoneticIndex is an optional Vocabulary extension exposing its phonetic
// equivalence classes. Vocabularies that implement it contribute
// phonetically colliding words to the candidate set.
type PhoneticIndex interface {
	PhoneticMatches(code string) []string
}

// Config holds typo tolerance settings.
type Config struct {
	MinTokenLength  int
	MaxEditDistance int
	MaxAlternatives int
	// MinFrequency is the minimum vocabulary frequency a candidate needs
	// to replace the original token.
	MinFrequency int
}

func (c *Config) applyDefaults() {
	if c.MinTokenLength <= 0 {
		c.MinTokenLength = DefaultMinTokenLength
	}
	if c.MaxEditDistance <= 0 {
		c.MaxEditDistance = DefaultMaxEditDistance
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = DefaultMaxAlternatives
	}
	if c.MinFrequency <= 0 {
		c.MinFrequency = DefaultMinFrequency
	}
}

// Normalizer corrects likely typos in query tokens before retrieval.
// Without a vocabulary it degrades to a no-op: tokens pass through unchanged
// and no failure ever aborts a search.
type Normalizer struct {
	cfg    Config
	vocab  Vocabulary
	logger *zap.Logger
}

// New creates a normalizer. vocab may be nil (corrections disabled).
func New(cfg Config, vocab Vocabulary, logger *zap.Logger) *Normalizer {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{cfg: cfg, vocab: vocab, logger: logger}
}

// Normalize lowercases the query, drops tokens shorter than the configured
// minimum, and replaces each remaining token with its best vocabulary-backed
// correction.
func (n *Normalizer) Normalize(text string) string {
	tokens := Tokenize(text, n.cfg.MinTokenLength)
	if len(tokens) == 0 {
		return strings.ToLower(strings.TrimSpace(text))
	}
	for i, tok := range tokens {
		tokens[i] = n.correct(tok)
	}
	return strings.Join(tokens, " ")
}

// Tokenize lowercases text, splits on whitespace, and drops tokens shorter
// than minLen.
func Tokenize(text string, minLen int) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// correct returns the best correction for a token, or the token itself when
// no candidate validates against the vocabulary.
func (n *Normalizer) correct(token string) string {
	if n.vocab == nil {
		return token
	}
	// A token the corpus already knows is not a typo.
	if _, ok := n.vocab.Lookup(token); ok {
		return token
	}

	candidates := n.candidates(token)
	if len(candidates) == 0 {
		return token
	}

	best := candidates[0]
	n.logger.Debug("corrected query token",
		zap.String("token", token),
		zap.String("correction", best.word),
		zap.Float64("similarity", best.similarity),
	)
	return best.word
}

type candidate struct {
	word       string
	similarity float64
	freq       int
}

// candidates collects vocabulary-validated alternatives for a token, capped
// at MaxAlternatives, sorted by similarity (frequency breaks ties).
func (n *Normalizer) candidates(token string) []candidate {
	seen := map[string]bool{token: true}
	var out []candidate

	add := func(word string) bool {
		if seen[word] {
			return len(out) < n.cfg.MaxAlternatives
		}
		seen[word] = true
		freq, ok := n.vocab.Lookup(word)
		if !ok || freq < n.cfg.MinFrequency {
			return true
		}
		out = append(out, candidate{word: word, similarity: Similarity(token, word), freq: freq})
		return len(out) < n.cfg.MaxAlternatives
	}

	n.collectEdits(token, add)
	n.collectKeyboard(token, add)
	n.collectPhonetic(token, add)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].similarity != out[j].similarity {
			return out[i].similarity > out[j].similarity
		}
		return out[i].freq > out[j].freq
	})
	return out
}

// collectEdits generates single-character insertions, deletions,
// substitutions, and adjacent transpositions, expanding up to
// MaxEditDistance rounds. add reports whether collection should continue.
func (n *Normalizer) collectEdits(token string, add func(string) bool) {
	frontier := []string{token}
	for depth := 0; depth < n.cfg.MaxEditDistance; depth++ {
		var next []string
		for _, word := range frontier {
			edits := editsAtOne(word)
			for _, e := range edits {
				if !add(e) {
					return
				}
			}
			next = append(next, edits...)
		}
		frontier = next
	}
}

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// editsAtOne generates every word one edit away.
func editsAtOne(word string) []string {
	runes := []rune(word)
	out := make([]string, 0, len(runes)*(2*len(alphabet)+2))

	// deletions
	for i := range runes {
		out = append(out, string(runes[:i])+string(runes[i+1:]))
	}
	// adjacent transpositions
	for i := 0; i < len(runes)-1; i++ {
		swapped := append([]rune(nil), runes...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		out = append(out, string(swapped))
	}
	// substitutions
	for i := range runes {
		for _, c := range alphabet {
			if runes[i] == c {
				continue
			}
			out = append(out, string(runes[:i])+string(c)+string(runes[i+1:]))
		}
	}
	// insertions
	for i := 0; i <= len(runes); i++ {
		for _, c := range alphabet {
			out = append(out, string(runes[:i])+string(c)+string(runes[i:]))
		}
	}
	return out
}

// collectKeyboard substitutes each character with its QWERTY neighbors.
func (n *Normalizer) collectKeyboard(token string, add func(string) bool) {
	runes := []rune(token)
	for i, r := range runes {
		for _, nb := range keyboardNeighbors[r] {
			if !add(string(runes[:i]) + string(nb) + string(runes[i+1:])) {
				return
			}
		}
	}
}

// collectPhonetic adds words from the vocabulary's phonetic equivalence
// class, when the vocabulary exposes one.
func (n *Normalizer) collectPhonetic(token string, add func(string) bool) {
	idx, ok := n.vocab.(PhoneticIndex)
	if !ok {
		return
	}
	for _, word := range idx.PhoneticMatches(phoneticCode(token)) {
		if !add(word) {
			return
		}
	}
}
