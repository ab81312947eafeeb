package results

import (
	"strings"
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

func testStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logging.NewNop(), WithNow(now))
}

func entry(userID, name string, score int) ScoreEntry {
	return ScoreEntry{UserID: userID, DisplayName: name, Score: score}
}

func TestWeekPathLayout(t *testing.T) {
	s := NewStore("/data", logging.NewNop())
	got := s.WeekPath(1, "guild9", 2026, 7, "Polska")
	want := "/data/phases/guild_guild9/phase1/2026/week-7_polska.json"
	if got != want {
		t.Fatalf("WeekPath = %q, want %q", got, want)
	}
}

func TestSavePhase1PlayerCreatesAndUpdates(t *testing.T) {
	base := time.Date(2026, 8, 18, 20, 0, 0, 0, time.UTC)
	now := base
	s := testStore(t, func() time.Time { return now })

	if err := s.SavePhase1Player("g1", 2026, 34, "polska", entry("u1", "Anka", 12), "admin"); err != nil {
		t.Fatalf("SavePhase1Player: %v", err)
	}
	now = base.Add(time.Minute)
	if err := s.SavePhase1Player("g1", 2026, 34, "polska", entry("u2", "Bolek", 0), "someone-else"); err != nil {
		t.Fatalf("SavePhase1Player second: %v", err)
	}

	record, err := s.GetPhase1("g1", 2026, 34, "polska")
	if err != nil {
		t.Fatalf("GetPhase1: %v", err)
	}
	if record == nil {
		t.Fatal("record missing after save")
	}
	if record.CreatedBy != "admin" {
		t.Fatalf("createdBy = %q, want the first writer", record.CreatedBy)
	}
	if !record.CreatedAt.Equal(base) {
		t.Fatalf("createdAt = %v, want %v", record.CreatedAt, base)
	}
	if !record.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("updatedAt = %v, want refreshed", record.UpdatedAt)
	}
	if len(record.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(record.Players))
	}
	if record.Players[0].UpdatedAt != nil {
		t.Fatalf("fresh player should have no updatedAt, got %v", record.Players[0].UpdatedAt)
	}

	// Saving an existing player updates in place instead of appending.
	now = base.Add(2 * time.Minute)
	if err := s.SavePhase1Player("g1", 2026, 34, "polska", entry("u1", "Anka", 15), "admin"); err != nil {
		t.Fatalf("SavePhase1Player update: %v", err)
	}
	record, err = s.GetPhase1("g1", 2026, 34, "polska")
	if err != nil {
		t.Fatalf("GetPhase1 after update: %v", err)
	}
	if len(record.Players) != 2 {
		t.Fatalf("players = %d after update, want 2", len(record.Players))
	}
	if record.Players[0].Score != 15 {
		t.Fatalf("score = %d, want 15", record.Players[0].Score)
	}
	if record.Players[0].UpdatedAt == nil || !record.Players[0].UpdatedAt.Equal(now) {
		t.Fatalf("player updatedAt = %v, want %v", record.Players[0].UpdatedAt, now)
	}
	if !record.Players[0].CreatedAt.Equal(base) {
		t.Fatalf("player createdAt changed to %v", record.Players[0].CreatedAt)
	}
}

func TestPhase2RoundTrip(t *testing.T) {
	s := testStore(t, nil)

	rounds := []Round{
		{Players: []ScoreEntry{entry("u1", "Anka", 10)}},
		{Players: []ScoreEntry{entry("u1", "Anka", 20)}},
		{Players: []ScoreEntry{entry("u1", "Anka", 30)}},
	}
	summary := []ScoreEntry{entry("u1", "Anka", 60)}
	if err := s.SavePhase2Results("g1", 2026, 34, "polska", rounds, summary, "admin"); err != nil {
		t.Fatalf("SavePhase2Results: %v", err)
	}

	record, err := s.GetPhase2("g1", 2026, 34, "polska")
	if err != nil {
		t.Fatalf("GetPhase2: %v", err)
	}
	if record == nil {
		t.Fatal("record missing after save")
	}
	if len(record.Rounds) != 3 {
		t.Fatalf("rounds = %d, want 3", len(record.Rounds))
	}
	if len(record.Summary.Players) != 1 || record.Summary.Players[0].Score != 60 {
		t.Fatalf("summary = %+v, want the round sum", record.Summary.Players)
	}
}

func TestExistsAndDelete(t *testing.T) {
	s := testStore(t, nil)

	exists, err := s.Exists(1, "g1", 2026, 34, "polska")
	if err != nil || exists {
		t.Fatalf("Exists on empty store = %v, %v", exists, err)
	}

	if err := s.SavePhase1Player("g1", 2026, 34, "polska", entry("u1", "Anka", 1), "admin"); err != nil {
		t.Fatalf("SavePhase1Player: %v", err)
	}
	if exists, _ := s.Exists(1, "g1", 2026, 34, "polska"); !exists {
		t.Fatal("record should exist after save")
	}

	removed, err := s.DeleteForWeek(1, "g1", 2026, 34, "polska")
	if err != nil || !removed {
		t.Fatalf("DeleteForWeek = %v, %v", removed, err)
	}
	// Deleting again is a no-op, not an error.
	removed, err = s.DeleteForWeek(1, "g1", 2026, 34, "polska")
	if err != nil || removed {
		t.Fatalf("repeat DeleteForWeek = %v, %v", removed, err)
	}
}

func TestGetSummaryComputesTop30(t *testing.T) {
	s := testStore(t, nil)

	for i := 0; i < 35; i++ {
		player := entry(strings.Repeat("u", i+1), "p", 100-i)
		if err := s.SavePhase1Player("g1", 2026, 34, "polska", player, "admin"); err != nil {
			t.Fatalf("SavePhase1Player: %v", err)
		}
	}

	summary, err := s.GetSummary(1, "g1", 2026, 34, "polska")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.PlayerCount != 35 {
		t.Fatalf("playerCount = %d, want 35", summary.PlayerCount)
	}
	// Top 30 of 100..66 sums to (100+71)*30/2.
	if want := (100 + 71) * 30 / 2; summary.Top30Sum != want {
		t.Fatalf("top30Sum = %d, want %d", summary.Top30Sum, want)
	}

	if missing, err := s.GetSummary(1, "g1", 2026, 1, "polska"); err != nil || missing != nil {
		t.Fatalf("GetSummary on missing week = %+v, %v", missing, err)
	}
}

func TestUnknownPhaseRejected(t *testing.T) {
	s := testStore(t, nil)
	if _, err := s.Exists(3, "g1", 2026, 1, "polska"); err == nil {
		t.Fatal("phase 3 should be rejected")
	}
}
