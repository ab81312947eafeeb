package align

import "strings"

// polishLetters are kept by normalization alongside [a-z0-9].
const polishLetters = "ąćęłńóśźż"

// normalize lowercases s and strips every rune outside [a-z0-9] and the
// Polish letter set. Spacing and punctuation carry no signal for matching.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(polishLetters, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lineSimilarity scores how well nick matches somewhere inside line, both
// given raw. Returns a value in [0, 1].
//
// Tier 1: a normalized substring hit is a certain match for nicks of three
// or more characters. Tier 2: nicks of five or more characters may match a
// sliding window with a small mismatch budget. Tier 3: everything else falls
// back to an ordered-subsequence scan penalized by the length gap.
func lineSimilarity(line, nick string) float64 {
	ln := []rune(normalize(line))
	nn := []rune(normalize(nick))
	if len(nn) == 0 || len(ln) == 0 {
		return 0
	}

	if len(nn) >= 3 && strings.Contains(string(ln), string(nn)) {
		return 1.0
	}

	if len(nn) >= 5 {
		if sim, ok := fuzzyWindow(ln, nn); ok {
			return sim
		}
	}

	return orderedSubsequence(ln, nn)
}

// fuzzyWindow slides a |nick|-sized window across the line counting
// character mismatches. Nicks of eight or more characters tolerate two
// mismatches, shorter ones a single mismatch. The reported similarity never
// drops below 0.9: a window hit is a strong signal regardless of budget use.
func fuzzyWindow(line, nick []rune) (float64, bool) {
	if len(line) < len(nick) {
		return 0, false
	}
	budget := 1
	if len(nick) >= 8 {
		budget = 2
	}
	best := budget + 1
	for start := 0; start+len(nick) <= len(line); start++ {
		mismatches := 0
		for i, r := range nick {
			if line[start+i] != r {
				mismatches++
				if mismatches > budget {
					break
				}
			}
		}
		if mismatches <= budget && mismatches < best {
			best = mismatches
		}
	}
	if best > budget {
		return 0, false
	}
	sim := 1 - float64(best)/float64(len(nick))
	if sim < 0.9 {
		sim = 0.9
	}
	return sim, true
}

// orderedSubsequence counts nick characters found left to right within the
// line and penalizes the length gap between the two strings. One- and
// two-character nicks are matched only on exact equality; anything weaker is
// scaled down hard because such nicks collide with random noise.
func orderedSubsequence(line, nick []rune) float64 {
	matches := 0
	li := 0
	for _, r := range nick {
		for li < len(line) && line[li] != r {
			li++
		}
		if li < len(line) {
			matches++
			li++
		}
	}
	base := float64(matches) / float64(len(nick))

	diff := len(line) - len(nick)
	if diff < 0 {
		diff = -diff
	}
	longer := len(line)
	if len(nick) > longer {
		longer = len(nick)
	}
	sim := base / (1 + float64(diff)/float64(longer))

	if len(nick) <= 2 {
		if string(line) == string(nick) {
			return 1.0
		}
		return sim * 0.3
	}
	return sim
}

// matchThreshold is the minimum similarity a nick of the given normalized
// length must reach to be considered at all. Short nicks need stronger
// evidence.
func matchThreshold(nickLen int) float64 {
	switch {
	case nickLen <= 5:
		return 0.75
	case nickLen <= 8:
		return 0.70
	default:
		return 0.60
	}
}
