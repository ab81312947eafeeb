package punish

import (
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/isoweek"
)

func TestWeeklyDecayReducesAndRemoves(t *testing.T) {
	l := testLedger(t, nil)

	if _, err := l.AddPoints("g1", "u1", 3, "seed"); err != nil {
		t.Fatalf("AddPoints u1: %v", err)
	}
	if _, err := l.AddPoints("g1", "u2", 1, "seed"); err != nil {
		t.Fatalf("AddPoints u2: %v", err)
	}

	now := time.Date(2025, 10, 8, 6, 0, 0, 0, time.UTC)
	result, err := l.WeeklyDecay(now)
	if err != nil {
		t.Fatalf("WeeklyDecay: %v", err)
	}
	if result.AlreadyRan {
		t.Fatal("first run should not be marked as done")
	}
	if result.CleanedUsers != 2 || result.RemovedUsers != 1 {
		t.Fatalf("result = %+v, want 2 cleaned, 1 removed", result)
	}

	u1, err := l.Get("g1", "u1")
	if err != nil || u1 == nil {
		t.Fatalf("Get u1: %+v, %v", u1, err)
	}
	if u1.Points != 2 {
		t.Fatalf("u1 points = %d, want 2", u1.Points)
	}
	last := u1.History[len(u1.History)-1]
	if last.Points != -1 || last.Reason != decayReason {
		t.Fatalf("u1 last entry = %+v", last)
	}

	// u2 dropped to zero and left the ledger.
	if u2, _ := l.Get("g1", "u2"); u2 != nil {
		t.Fatalf("u2 = %+v, want removed", u2)
	}

	marker, err := l.LastDecay(isoweek.Key(now))
	if err != nil || marker == nil {
		t.Fatalf("LastDecay: %+v, %v", marker, err)
	}
	if marker.CleanedUsers != 2 {
		t.Fatalf("marker = %+v, want 2 cleaned users", marker)
	}
}

func TestWeeklyDecayRunsOncePerWeek(t *testing.T) {
	l := testLedger(t, nil)
	if _, err := l.AddPoints("g1", "u1", 3, "seed"); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	tuesday := time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC)
	if _, err := l.WeeklyDecay(tuesday); err != nil {
		t.Fatalf("first WeeklyDecay: %v", err)
	}

	// Same scoring week, later day: nothing happens.
	result, err := l.WeeklyDecay(tuesday.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("repeat WeeklyDecay: %v", err)
	}
	if !result.AlreadyRan || result.CleanedUsers != 0 {
		t.Fatalf("repeat result = %+v, want already-ran no-op", result)
	}
	if record, _ := l.Get("g1", "u1"); record == nil || record.Points != 2 {
		t.Fatalf("record = %+v, want untouched 2 points", record)
	}

	// Next week decays again.
	result, err = l.WeeklyDecay(tuesday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("next-week WeeklyDecay: %v", err)
	}
	if result.AlreadyRan || result.CleanedUsers != 1 {
		t.Fatalf("next-week result = %+v, want 1 cleaned", result)
	}
	if record, _ := l.Get("g1", "u1"); record == nil || record.Points != 1 {
		t.Fatalf("record = %+v, want 1 point left", record)
	}
}

func TestWeeklyDecayWeekBoundary(t *testing.T) {
	l := testLedger(t, nil)
	if _, err := l.AddPoints("g1", "u1", 5, "seed"); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	// A Monday still belongs to the week that closed on Sunday; the new
	// scoring week starts on Tuesday.
	sunday := time.Date(2025, 10, 5, 23, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 10, 6, 1, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 10, 7, 1, 0, 0, 0, time.UTC)
	if isoweek.Key(sunday) != isoweek.Key(monday) {
		t.Fatal("sunday and monday should share a scoring week")
	}

	if _, err := l.WeeklyDecay(sunday); err != nil {
		t.Fatalf("sunday WeeklyDecay: %v", err)
	}
	result, err := l.WeeklyDecay(monday)
	if err != nil {
		t.Fatalf("monday WeeklyDecay: %v", err)
	}
	if !result.AlreadyRan {
		t.Fatal("monday should still count as the closed week")
	}

	result, err = l.WeeklyDecay(tuesday)
	if err != nil {
		t.Fatalf("tuesday WeeklyDecay: %v", err)
	}
	if result.AlreadyRan {
		t.Fatal("new week should decay again")
	}
	if record, _ := l.Get("g1", "u1"); record == nil || record.Points != 3 {
		t.Fatalf("record = %+v, want 3 points after two decays", record)
	}
}

func TestWeeklyDecayEmptyLedger(t *testing.T) {
	l := testLedger(t, nil)
	result, err := l.WeeklyDecay(time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WeeklyDecay: %v", err)
	}
	if result.CleanedUsers != 0 || result.RemovedUsers != 0 {
		t.Fatalf("result = %+v, want nothing cleaned", result)
	}
}
