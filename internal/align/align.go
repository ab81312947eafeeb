package align

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// PlayerScore is one extracted reading: a roster nickname and its score.
type PlayerScore struct {
	Nick  string `json:"nick"`
	Score int    `json:"score"`
}

// minLineLength filters out decorative fragments before matching.
const minLineLength = 5

// ExtractAllPlayersWithScores walks the recognized text line by line,
// matches each line to its best roster nickname, and extracts the trailing
// score. Roster entries are display names; the first successful reading per
// nickname wins. Lines that match nobody or yield no reading are skipped.
func ExtractAllPlayersWithScores(text string, roster []string) []PlayerScore {
	lines := strings.Split(text, "\n")
	var out []PlayerScore
	taken := make(map[string]bool)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if utf8.RuneCountInString(line) < minLineLength {
			continue
		}

		nick, sim := bestRosterMatch(line, roster)
		if nick == "" || taken[nick] {
			continue
		}
		if !fragmentSafe(line, nick, sim) {
			continue
		}

		res := analyzeLineEnd(line, nick)
		if res.kind == tailUnknown && utf8.RuneCountInString(nick) >= 10 && i+1 < len(lines) {
			// Long nicknames often push their score onto the next
			// physical line; borrow that line's reading when it has one.
			next := analyzeLineEnd(strings.TrimSpace(lines[i+1]), "")
			if next.kind != tailUnknown {
				res.kind = next.kind
				res.value = next.value
			}
		}

		score, ok := scoreFromResult(res)
		if !ok {
			continue
		}
		taken[nick] = true
		out = append(out, PlayerScore{Nick: nick, Score: score})
	}
	return out
}

// bestRosterMatch returns the roster name with the highest similarity to the
// line among those meeting their length threshold, favoring longer names on
// ties. Returns "" when nobody qualifies.
func bestRosterMatch(line string, roster []string) (string, float64) {
	bestNick := ""
	bestSim := 0.0
	for _, name := range roster {
		sim := lineSimilarity(line, name)
		if sim < matchThreshold(utf8.RuneCountInString(normalize(name))) {
			continue
		}
		switch {
		case sim > bestSim:
			bestNick, bestSim = name, sim
		case sim == bestSim && utf8.RuneCountInString(name) > utf8.RuneCountInString(bestNick):
			bestNick = name
		}
	}
	return bestNick, bestSim
}

// fragmentSafe rejects weak matches where the nick only occurs buried inside
// a longer word on the line, which is the signature of matching a fragment
// of somebody else's name.
func fragmentSafe(line, nick string, sim float64) bool {
	nn := normalize(nick)
	safe := 0.80
	if utf8.RuneCountInString(nn) <= 5 {
		safe = 0.85
	}
	if sim >= safe {
		return true
	}

	wholeWord := false
	buried := false
	for _, word := range strings.Fields(line) {
		wn := normalize(word)
		if wn == nn {
			wholeWord = true
		}
		if len(wn) > len(nn) && strings.Contains(wn, nn) {
			buried = true
		}
	}
	return wholeWord || !buried
}

// scoreFromResult maps a tail classification to a numeric score. Unknown
// tails still yield a score when they carry any digit at all; otherwise the
// line produces nothing.
func scoreFromResult(r tailResult) (int, bool) {
	switch r.kind {
	case tailZero:
		return 0, true
	case tailNumber:
		n, err := strconv.Atoi(r.value)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		run := firstDigitRun(r.tail)
		if run == "" {
			return 0, false
		}
		n, err := strconv.Atoi(run)
		if err != nil {
			return 0, false
		}
		return n, true
	}
}
