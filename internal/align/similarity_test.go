package align

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mixed case and punctuation", "Thashar!", "thashar"},
		{"polish letters survive", "ŻÓŁĆ gęś", "żółćgęś"},
		{"digits survive", "A-B_C 123", "abc123"},
		{"everything stripped", "@#$ !!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.in); got != tt.want {
				t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLineSimilarityTiers(t *testing.T) {
	tests := []struct {
		name string
		line string
		nick string
		want float64
	}{
		{"substring is a certain match", "xxThasharyy 123", "Thashar", 1.0},
		{"substring ignores case and punctuation", "| thashar | 55", "Thashar", 1.0},
		{"window match with one typo floors at 0.9", "tbashar 123", "Thashar", 0.9},
		{"window match with two typos in long nick", "abxdefxh", "abcdefgh", 0.9},
		{"two char nick exact equality", "ab", "ab", 1.0},
		{"no evidence at all", "zzzzzz", "Thashar", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineSimilarity(tt.line, tt.nick)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("lineSimilarity(%q, %q) = %v, want %v", tt.line, tt.nick, got, tt.want)
			}
		})
	}
}

func TestLineSimilarityOrderedSubsequence(t *testing.T) {
	// "kas" scattered through a seven-rune line: full subsequence hit with a
	// length-gap penalty of 1 + 4/7.
	got := lineSimilarity("kxaxsxx", "kas")
	want := 1.0 / (1.0 + 4.0/7.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("lineSimilarity = %v, want %v", got, want)
	}
}

func TestLineSimilarityShortNickScaledDown(t *testing.T) {
	// Two-rune nicks are worthless unless the whole line equals them.
	got := lineSimilarity("xxabyy", "Ab")
	want := (1.0 / (1.0 + 4.0/6.0)) * 0.3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("lineSimilarity = %v, want %v", got, want)
	}
}

func TestFuzzyWindowRespectsBudget(t *testing.T) {
	// Seven-rune nick allows a single mismatch; two typos must fail the
	// window tier entirely.
	if _, ok := fuzzyWindow([]rune("abxdexg"), []rune("abcdefg")); ok {
		t.Fatal("two mismatches should exceed the short-nick budget")
	}
	if sim, ok := fuzzyWindow([]rune("abcdxfg"), []rune("abcdefg")); !ok || sim != 0.9 {
		t.Fatalf("single mismatch should match at 0.9, got %v ok=%v", sim, ok)
	}
}

func TestMatchThreshold(t *testing.T) {
	tests := []struct {
		nickLen int
		want    float64
	}{
		{3, 0.75},
		{5, 0.75},
		{6, 0.70},
		{8, 0.70},
		{9, 0.60},
		{15, 0.60},
	}
	for _, tt := range tests {
		if got := matchThreshold(tt.nickLen); got != tt.want {
			t.Errorf("matchThreshold(%d) = %v, want %v", tt.nickLen, got, tt.want)
		}
	}
}
