package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Thashar/Stalker-sub001/internal/logging"
)

func TestManagerOneSessionPerGuildUser(t *testing.T) {
	m := NewManager(15*time.Minute, logging.NewNop())

	s, err := m.Create("u1", "g1", "c1", "Polska", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected generated session id")
	}

	if _, err := m.Create("u1", "g1", "c2", "Polska", 2); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
	// Same user in another guild is fine.
	if _, err := m.Create("u1", "g2", "c1", "Polska", 1); err != nil {
		t.Fatalf("Create in second guild: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}

	got, ok := m.Get("g1", "u1")
	if !ok || got.ID != s.ID {
		t.Fatalf("Get returned %+v ok=%v", got, ok)
	}

	removed, ok := m.Remove("g1", "u1")
	if !ok || removed.ID != s.ID {
		t.Fatal("Remove should hand back the session")
	}
	if _, ok := m.Get("g1", "u1"); ok {
		t.Fatal("session still present after Remove")
	}
	if _, ok := m.Remove("g1", "u1"); ok {
		t.Fatal("second Remove should report absence")
	}
}

func TestManagerSweepExpiresIdleSessions(t *testing.T) {
	m := NewManager(15*time.Minute, logging.NewNop())
	s, err := m.Create("u1", "g1", "c1", "Polska", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create("u2", "g1", "c1", "Polska", 1); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	// Nothing is old enough yet.
	if expired := m.Sweep(time.Now()); len(expired) != 0 {
		t.Fatalf("unexpected expirations: %d", len(expired))
	}

	expired := m.Sweep(time.Now().Add(16 * time.Minute))
	if len(expired) != 2 {
		t.Fatalf("expired = %d, want 2", len(expired))
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d after sweep, want 0", m.Len())
	}
	_ = s
}

func TestManagerActivityDefersExpiry(t *testing.T) {
	m := NewManager(15*time.Minute, logging.NewNop())
	s, err := m.Create("u1", "g1", "c1", "Polska", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A state change counts as activity, so a sweep within the timeout of
	// that activity leaves the session alone.
	if err := s.AddImage(image("i1", ps("A", 1))); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if expired := m.Sweep(s.LastActivity().Add(14 * time.Minute)); len(expired) != 0 {
		t.Fatalf("session expired despite recent activity")
	}
	if expired := m.Sweep(s.LastActivity().Add(15*time.Minute + time.Second)); len(expired) != 1 {
		t.Fatalf("session should expire past the timeout")
	}
}

func TestManagerInfos(t *testing.T) {
	m := NewManager(15*time.Minute, logging.NewNop())
	s, err := m.Create("u1", "g1", "c1", "Polska", 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.AddImage(image("i1", ps("A", 1))); err != nil {
		t.Fatalf("AddImage: %v", err)
	}

	infos := m.Infos()
	if len(infos) != 1 {
		t.Fatalf("infos = %d, want 1", len(infos))
	}
	info := infos[0]
	if info.SessionID != s.ID || info.GuildID != "g1" || info.Phase != 2 || info.Round != 1 {
		t.Fatalf("info = %+v", info)
	}
	if info.Stage != StageAwaitingImages || info.Images != 1 {
		t.Fatalf("info = %+v", info)
	}
}
