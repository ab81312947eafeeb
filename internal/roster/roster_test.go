package roster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Thashar/Stalker-sub001/internal/config"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/platform"
	"github.com/Thashar/Stalker-sub001/internal/platform/platformtest"
)

func testGuild() *config.Guild {
	return &config.Guild{
		ID:          "g1",
		Name:        "Main",
		TargetRoles: []string{"role-a", "role-b"},
		Clans:       []string{"Polska"},
	}
}

func TestRosterFiltersByRequesterRole(t *testing.T) {
	fake := platformtest.New()
	fake.Members["g1"] = []platform.Member{
		{UserID: "u1", DisplayName: "Thashar", RoleIDs: []string{"role-a"}},
		{UserID: "u2", DisplayName: "Bimber", RoleIDs: []string{"role-b"}},
		{UserID: "u3", DisplayName: "Ptysiek", RoleIDs: []string{"role-a", "other"}},
		{UserID: "u4", DisplayName: "Widz", RoleIDs: []string{"other"}},
	}
	svc := NewService(fake, logging.NewNop())

	members, err := svc.Roster(context.Background(), testGuild(), "u1")
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d: %+v", len(members), members)
	}
	if members[0].UserID != "u1" || members[1].UserID != "u3" {
		t.Fatalf("expected fetch order preserved, got %+v", members)
	}
	if members[1].DisplayName != "Ptysiek" {
		t.Fatalf("display name = %q, want Ptysiek", members[1].DisplayName)
	}
}

func TestRosterEmptyWhenRoleUnresolved(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
	}{
		{"no target role", []string{"other"}},
		{"multiple target roles", []string{"role-a", "role-b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := platformtest.New()
			fake.Members["g1"] = []platform.Member{
				{UserID: "u1", DisplayName: "Thashar", RoleIDs: tt.roles},
				{UserID: "u2", DisplayName: "Bimber", RoleIDs: []string{"role-a"}},
			}
			svc := NewService(fake, logging.NewNop())

			members, err := svc.Roster(context.Background(), testGuild(), "u1")
			if err != nil {
				t.Fatalf("Roster: %v", err)
			}
			if members != nil {
				t.Fatalf("expected empty roster, got %+v", members)
			}
		})
	}
}

func TestRosterEmptyWhenRequesterMissing(t *testing.T) {
	fake := platformtest.New()
	fake.Members["g1"] = []platform.Member{
		{UserID: "u1", DisplayName: "Thashar", RoleIDs: []string{"role-a"}},
	}
	svc := NewService(fake, logging.NewNop())

	members, err := svc.Roster(context.Background(), testGuild(), "ghost")
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if members != nil {
		t.Fatalf("expected empty roster, got %+v", members)
	}
}

func TestRosterPropagatesFetchError(t *testing.T) {
	fake := platformtest.New()
	fake.FetchErrs = []error{platform.Wrap(platform.ErrPermission, "fetch members", nil)}
	svc := NewService(fake, logging.NewNop())

	_, err := svc.Roster(context.Background(), testGuild(), "u1")
	if !errors.Is(err, platform.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestSnapshotPathName(t *testing.T) {
	got := SnapshotPath(filepath.Join("temp", "phase1"), "abc123")
	want := filepath.Join("temp", "phase1", "role_nicks_snapshot_abc123.json")
	if got != want {
		t.Fatalf("SnapshotPath = %q, want %q", got, want)
	}
}
