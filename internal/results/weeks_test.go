package results

import (
	"testing"
	"time"
)

func TestGetAvailableWeeksGroupsAndSorts(t *testing.T) {
	base := time.Date(2025, 10, 6, 10, 0, 0, 0, time.UTC)
	now := base
	s := testStore(t, func() time.Time { return now })

	saves := []struct {
		year, week int
		clan       string
		offset     time.Duration
	}{
		{2025, 40, "clana", 0},
		{2025, 40, "clanb", time.Hour},
		{2025, 41, "clanb", 2 * time.Hour},
		{2024, 52, "clana", 3 * time.Hour},
	}
	for _, save := range saves {
		now = base.Add(save.offset)
		if err := s.SavePhase1Player("g1", save.year, save.week, save.clan, entry("u1", "Anka", 1), "admin"); err != nil {
			t.Fatalf("SavePhase1Player: %v", err)
		}
	}

	weeks, err := s.GetAvailableWeeks(1, "g1")
	if err != nil {
		t.Fatalf("GetAvailableWeeks: %v", err)
	}
	if len(weeks) != 3 {
		t.Fatalf("weeks = %d, want 3 distinct (year, week) entries", len(weeks))
	}

	// Newest first: 2025-W41, 2025-W40, 2024-W52.
	if weeks[0].Year != 2025 || weeks[0].Week != 41 {
		t.Fatalf("weeks[0] = %+v, want 2025-W41", weeks[0])
	}
	if weeks[1].Year != 2025 || weeks[1].Week != 40 {
		t.Fatalf("weeks[1] = %+v, want 2025-W40", weeks[1])
	}
	if weeks[2].Year != 2024 || weeks[2].Week != 52 {
		t.Fatalf("weeks[2] = %+v, want 2024-W52", weeks[2])
	}

	if got := weeks[1].Clans; len(got) != 2 || got[0] != "clana" || got[1] != "clanb" {
		t.Fatalf("2025-W40 clans = %v, want both clans", got)
	}
	// Earliest createdAt across the week's files wins.
	if !weeks[1].CreatedAt.Equal(base) {
		t.Fatalf("2025-W40 createdAt = %v, want %v", weeks[1].CreatedAt, base)
	}
}

func TestGetAvailableWeeksEmptyGuild(t *testing.T) {
	s := testStore(t, nil)
	weeks, err := s.GetAvailableWeeks(1, "nobody")
	if err != nil {
		t.Fatalf("GetAvailableWeeks: %v", err)
	}
	if len(weeks) != 0 {
		t.Fatalf("weeks = %+v, want none", weeks)
	}
}

func TestHistoricalBestAcrossClans(t *testing.T) {
	s := testStore(t, nil)

	seed := []struct {
		week  int
		clan  string
		score int
	}{
		{40, "clana", 80},
		{41, "clanb", 100},
		{42, "clana", 50},
	}
	for _, row := range seed {
		if err := s.SavePhase1Player("g1", 2025, row.week, row.clan, entry("u1", "Anka", row.score), "admin"); err != nil {
			t.Fatalf("SavePhase1Player: %v", err)
		}
	}

	best, found, err := s.GetPlayerHistoricalBestScore("g1", "u1", 42, 2025)
	if err != nil {
		t.Fatalf("GetPlayerHistoricalBestScore: %v", err)
	}
	if !found || best != 100 {
		t.Fatalf("best = %d found=%v, want 100 from week 41", best, found)
	}

	// The boundary week itself is excluded.
	best, found, err = s.GetPlayerHistoricalBestScore("g1", "u1", 40, 2025)
	if err != nil {
		t.Fatalf("GetPlayerHistoricalBestScore before 40: %v", err)
	}
	if found {
		t.Fatalf("best = %d, want nothing before week 40", best)
	}

	if _, found, _ := s.GetPlayerHistoricalBestScore("g1", "ghost", 52, 2026); found {
		t.Fatal("unknown player should have no history")
	}
}

func TestParseWeekFileName(t *testing.T) {
	cases := []struct {
		name string
		week int
		clan string
		ok   bool
	}{
		{"week-7_polska.json", 7, "polska", true},
		{"week-52_clan_b.json", 52, "clan_b", true},
		{"week-0_polska.json", 0, "", false},
		{"week-_polska.json", 0, "", false},
		{"week-7.json", 0, "", false},
		{"summary.json", 0, "", false},
		{"week-7_polska.txt", 0, "", false},
	}
	for _, tc := range cases {
		week, clan, ok := parseWeekFileName(tc.name)
		if ok != tc.ok || week != tc.week || clan != tc.clan {
			t.Errorf("parseWeekFileName(%q) = (%d, %q, %v), want (%d, %q, %v)",
				tc.name, week, clan, ok, tc.week, tc.clan, tc.ok)
		}
	}
}
