package align

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// tailKind classifies what follows a nickname on a scoreboard line.
type tailKind int

const (
	// tailUnknown means the tail carried no recognizable reading.
	tailUnknown tailKind = iota
	// tailZero means the tail is a zero or one of its recognition lookalikes.
	tailZero
	// tailNumber means the tail carries a real numeric score.
	tailNumber
)

type tailResult struct {
	kind tailKind
	// value holds the digit run for tailNumber.
	value string
	// tail is the analyzed region, kept for the digit fallback on unknowns.
	tail string
}

// zeroTokens enumerates every token the recognizer is known to emit in place
// of a lone zero: the confusable characters bare, fully bracketed, with a
// stray opening bracket, and with a stray closing bracket. Keep the table
// literal; each row was observed in live captures.
var zeroTokens = map[string]struct{}{
	"0": {}, "(0)": {}, "[0]": {}, "(0": {}, "[0": {}, "0)": {}, "0]": {},
	"1": {}, "(1)": {}, "[1]": {}, "(1": {}, "[1": {}, "1)": {}, "1]": {},
	"9": {}, "(9)": {}, "[9]": {}, "(9": {}, "[9": {}, "9)": {}, "9]": {},
	"o": {}, "(o)": {}, "[o]": {}, "(o": {}, "[o": {}, "o)": {}, "o]": {},
	"e": {}, "(e)": {}, "[e]": {}, "(e": {}, "[e": {}, "e)": {}, "e]": {},
	"zo": {}, "(zo)": {}, "[zo]": {}, "(zo": {}, "[zo": {}, "zo)": {}, "zo]": {},
	"ze": {}, "(ze)": {}, "[ze]": {}, "(ze": {}, "[ze": {}, "ze)": {}, "ze]": {},
}

// isZeroToken reports whether tokens[i] reads as a zero lookalike. Tokens
// starting with "o" or "e" that run into two or more alphanumerics, in the
// same token or the next one, are name fragments rather than zeros.
func isZeroToken(tokens []string, i int) bool {
	token := strings.ToLower(tokens[i])
	if _, ok := zeroTokens[token]; !ok {
		return false
	}
	if strings.HasPrefix(token, "o") || strings.HasPrefix(token, "e") {
		if alnumCount(token[1:]) >= 2 {
			return false
		}
		if i+1 < len(tokens) && alnumCount(tokens[i+1]) >= 2 {
			return false
		}
	}
	return true
}

func alnumCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// analyzeLineEnd classifies the score reading that follows nick on the
// line. An empty nick analyzes the whole line, which is how lookups into a
// following line work. The analysis is case-insensitive throughout.
func analyzeLineEnd(line, nick string) tailResult {
	lower := strings.ToLower(line)
	tail := lower
	nickAtStart := false
	if nick != "" {
		lowerNick := strings.ToLower(nick)
		if idx := strings.Index(lower, lowerNick); idx >= 0 {
			tail = lower[idx+len(lowerNick):]
			nickAtStart = idx == 0
		}
	}

	if strings.TrimSpace(tail) == "" {
		return tailResult{kind: tailUnknown, tail: tail}
	}

	// A short tail glued straight onto the nick at line start is usually
	// the recognizer splitting one word in the wrong place, not a score.
	if utf8.RuneCountInString(tail) <= 3 && nickAtStart && startsAlnum(tail) {
		return tailResult{kind: tailUnknown, tail: tail}
	}

	tokens := strings.Fields(tail)
	if len(tokens) > 0 && isZeroToken(tokens, len(tokens)-1) {
		return tailResult{kind: tailZero, value: "0", tail: tail}
	}

	if run := lastDigitRun(tail, 2); run != "" {
		return tailResult{kind: tailNumber, value: run, tail: tail}
	}

	for i := range tokens {
		if isZeroToken(tokens, i) {
			return tailResult{kind: tailZero, value: "0", tail: tail}
		}
	}

	return tailResult{kind: tailUnknown, tail: tail}
}

func startsAlnum(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lastDigitRun returns the rightmost run of at least minLen consecutive
// digits in s, or "" when none exists.
func lastDigitRun(s string, minLen int) string {
	best := ""
	runStart := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if run := s[runStart:i]; len(run) >= minLen {
				best = run
			}
			runStart = -1
		}
	}
	if runStart >= 0 {
		if run := s[runStart:]; len(run) >= minLen {
			best = run
		}
	}
	return best
}

// firstDigitRun returns the leftmost run of consecutive digits in s, or ""
// when s has no digit.
func firstDigitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
