package normalize

// Weights blending the three word similarity signals.
const (
	editWeight     = 0.4
	jaroWeight     = 0.4
	phoneticWeight = 0.2
)

// Similarity scores how close two words are, in [0, 1].
// It blends normalized edit distance, Jaro-Winkler, and phonetic equality.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}

	editSim := 1.0 - float64(editDistance(ra, rb))/float64(maxLen)

	phonetic := 0.0
	if phoneticCode(a) == phoneticCode(b) {
		phonetic = 1.0
	}

	return editWeight*editSim + jaroWeight*JaroWinkler(a, b) + phoneticWeight*phonetic
}

// editDistance is the Levenshtein distance between two rune slices.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// JaroWinkler computes the Jaro-Winkler similarity in [0, 1].
// Identical strings score 1.0; strings sharing no characters score 0.0.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	window := maxLen/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(ra))
	matchedB := make([]bool, len(rb))
	matches := 0

	for i, c := range ra {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > len(rb) {
			hi = len(rb)
		}
		for j := lo; j < hi; j++ {
			if matchedB[j] || rb[j] != c {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// Count transpositions among matched characters.
	transpositions := 0
	j := 0
	for i := range ra {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}
	transpositions /= 2

	m := float64(matches)
	jaro := (m/float64(len(ra)) + m/float64(len(rb)) + (m-float64(transpositions))/m) / 3.0

	// Winkler prefix adjustment, common prefix capped at 4.
	prefix := 0
	for i := 0; i < len(ra) && i < len(rb) && i < 4; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}

	return jaro + 0.1*float64(prefix)*(1.0-jaro)
}

// phoneticCode computes a Soundex-style 4-character code for a word.
// Words with matching codes are treated as phonetically equivalent.
func phoneticCode(word string) string {
	if word == "" {
		return ""
	}
	runes := []rune(word)

	code := make([]byte, 0, 4)
	first := runes[0]
	if first >= 'A' && first <= 'Z' {
		first += 'a' - 'A'
	}
	code = append(code, byte(first))

	lastDigit := soundexDigit(first)
	for _, r := range runes[1:] {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		d := soundexDigit(r)
		switch {
		case d == 0:
			// h and w are transparent, vowels reset the run
			if r != 'h' && r != 'w' {
				lastDigit = 0
			}
		case d != lastDigit:
			code = append(code, '0'+d)
			lastDigit = d
		}
		if len(code) == 4 {
			break
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

func soundexDigit(r rune) byte {
	switch r {
	case 'b', 'f', 'p', 'v':
		return 1
	case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
		return 2
	case 'd', 't':
		return 3
	case 'l':
		return 4
	case 'm', 'n':
		return 5
	case 'r':
		return 6
	}
	return 0
}

// keyboardNeighbors maps each key to its physically adjacent keys on QWERTY.
var keyboardNeighbors = map[rune]string{
	'q': "wa", 'w': "qase", 'e': "wsdr", 'r': "edft", 't': "rfgy",
	'y': "tghu", 'u': "yhji", 'i': "ujko", 'o': "iklp", 'p': "ol",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc",
	'g': "ftyhbv", 'h': "gyujnb", 'j': "huikmn", 'k': "jiolm",
	'l': "kop", 'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb",
	'b': "vghn", 'n': "bhjm", 'm': "njk",
}
