package align

import (
	"reflect"
	"testing"
)

func TestExtractAllPlayersWithScores(t *testing.T) {
	roster := []string{"Thashar", "Bimber", "Aleksandra"}
	text := "Thashar 123\nBimber 0\njunk\nnobody here 55\n"

	got := ExtractAllPlayersWithScores(text, roster)
	want := []PlayerScore{
		{Nick: "Thashar", Score: 123},
		{Nick: "Bimber", Score: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractMatchesDistortedNick(t *testing.T) {
	got := ExtractAllPlayersWithScores("alek5andra 42", []string{"Aleksandra"})
	want := []PlayerScore{{Nick: "Aleksandra", Score: 42}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractFirstReadingWins(t *testing.T) {
	text := "Thashar 10\nThashar 20\n"
	got := ExtractAllPlayersWithScores(text, []string{"Thashar"})
	want := []PlayerScore{{Nick: "Thashar", Score: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractSkipsLineWithoutReading(t *testing.T) {
	// The first Thashar line has no score; the later one must still land.
	text := "Thashar wraca\nThashar 15\n"
	got := ExtractAllPlayersWithScores(text, []string{"Thashar"})
	want := []PlayerScore{{Nick: "Thashar", Score: 15}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractZeroLookalikes(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bare o", "Bimber o"},
		{"bracketed", "Bimber (0)"},
		{"ze artifact", "Bimber ze"},
		{"stray one", "Bimber 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAllPlayersWithScores(tt.text, []string{"Bimber"})
			want := []PlayerScore{{Nick: "Bimber", Score: 0}}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestExtractNextLineLookupForLongNicks(t *testing.T) {
	// Ten runes or more: the score may wrap to the following line.
	got := ExtractAllPlayersWithScores("Aleksandra\n450\n", []string{"Aleksandra"})
	want := []PlayerScore{{Nick: "Aleksandra", Score: 450}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	// Nine runes: no lookahead, the nick-only line yields nothing.
	got = ExtractAllPlayersWithScores("Krzysztof\n450\n", []string{"Krzysztof"})
	if len(got) != 0 {
		t.Fatalf("expected no readings for short nick, got %+v", got)
	}
}

func TestExtractTieBreakPrefersLongerName(t *testing.T) {
	got := ExtractAllPlayersWithScores("Tomek 33", []string{"Tom", "Tomek"})
	want := []PlayerScore{{Nick: "Tomek", Score: 33}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractRejectsGluedMissSplit(t *testing.T) {
	got := ExtractAllPlayersWithScores("Boboo", []string{"Bob"})
	if len(got) != 0 {
		t.Fatalf("expected no readings, got %+v", got)
	}
}

func TestExtractIgnoresShortLines(t *testing.T) {
	got := ExtractAllPlayersWithScores("ab 1\ncd\n\n", []string{"Thashar"})
	if len(got) != 0 {
		t.Fatalf("expected no readings, got %+v", got)
	}
}

func TestFragmentSafe(t *testing.T) {
	tests := []struct {
		name string
		line string
		nick string
		sim  float64
		want bool
	}{
		{"strong similarity always safe", "prefix kasiax suffix", "Kasia", 0.9, true},
		{"weak match buried in longer word", "prefix kasiax suffix", "Kasia", 0.78, false},
		{"weak match but whole word present", "kasia kasiax", "Kasia", 0.78, true},
		{"weak match with no containing word", "zupelnie inne slowa", "Kasia", 0.78, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fragmentSafe(tt.line, tt.nick, tt.sim); got != tt.want {
				t.Errorf("fragmentSafe(%q, %q, %v) = %v, want %v", tt.line, tt.nick, tt.sim, got, tt.want)
			}
		})
	}
}
