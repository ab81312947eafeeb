package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Thashar/Stalker-sub001/internal/isoweek"
	"github.com/Thashar/Stalker-sub001/internal/logging"
	"github.com/Thashar/Stalker-sub001/internal/results"
)

// writeTestConfig writes a minimal config rooted in a temp directory and
// returns its path.
func writeTestConfig(t *testing.T) (configPath, dataDir string) {
	t.Helper()
	base := t.TempDir()
	dataDir = filepath.Join(base, "data")
	content := fmt.Sprintf(`[paths]
data_dir = %q
temp_dir = %q
log_dir = %q
processed_dir = %q

[[guild]]
id = "g1"
name = "Test Guild"
target_roles = ["role-target"]
clans = ["polska"]
`, dataDir, filepath.Join(base, "temp"), filepath.Join(base, "logs"), filepath.Join(base, "processed"))
	configPath = filepath.Join(base, "stalker.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, dataDir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestWeeksLifecycle(t *testing.T) {
	configPath, dataDir := writeTestConfig(t)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}

	year, week := isoweek.Current()
	store := results.NewStore(dataDir, logging.NewNop())
	err := store.SavePhase1Player("g1", year, week, "polska",
		results.ScoreEntry{UserID: "u1", DisplayName: "Thashar", Score: 42}, "admin")
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	out, err := runCommand(t, "--config", configPath, "weeks", "list", "-g", "g1", "-p", "1")
	if err != nil {
		t.Fatalf("weeks list: %v", err)
	}
	if !strings.Contains(out, "polska") || !strings.Contains(out, fmt.Sprint(week)) {
		t.Fatalf("list output missing record:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "weeks", "show", "-g", "g1", "-p", "1", "--clan", "polska")
	if err != nil {
		t.Fatalf("weeks show: %v", err)
	}
	if !strings.Contains(out, "Players:   1") || !strings.Contains(out, "Top 30:    42") {
		t.Fatalf("show output unexpected:\n%s", out)
	}

	if _, err := runCommand(t, "--config", configPath, "weeks", "delete", "-g", "g1", "-p", "1", "--clan", "polska"); err == nil {
		t.Fatal("delete without --yes should fail")
	}
	out, err = runCommand(t, "--config", configPath, "weeks", "delete", "-g", "g1", "-p", "1", "--clan", "polska", "--yes")
	if err != nil {
		t.Fatalf("weeks delete: %v", err)
	}
	if !strings.Contains(out, "Deleted") {
		t.Fatalf("delete output unexpected:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "weeks", "list", "-g", "g1", "-p", "1")
	if err != nil {
		t.Fatalf("weeks list after delete: %v", err)
	}
	if !strings.Contains(out, "No phase 1 records") {
		t.Fatalf("list should be empty after delete:\n%s", out)
	}
}

func TestPunishCommandsFallBackWithoutDaemon(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	socket := filepath.Join(t.TempDir(), "absent.sock")

	out, err := runCommand(t, "--config", configPath, "--socket", socket,
		"punish", "add", "u1", "3", "-g", "g1", "--reason", "Missed raid")
	if err != nil {
		t.Fatalf("punish add: %v", err)
	}
	if !strings.Contains(out, "now has 3 penalty point(s)") || !strings.Contains(out, "Daemon not reachable") {
		t.Fatalf("add output unexpected:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "punish", "list", "-g", "g1")
	if err != nil {
		t.Fatalf("punish list: %v", err)
	}
	if !strings.Contains(out, "u1") || !strings.Contains(out, "Missed raid") {
		t.Fatalf("list output unexpected:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "--socket", socket,
		"punish", "remove", "u1", "5", "-g", "g1")
	if err != nil {
		t.Fatalf("punish remove: %v", err)
	}
	if !strings.Contains(out, "now has 0 penalty point(s)") {
		t.Fatalf("remove output unexpected:\n%s", out)
	}

	out, err = runCommand(t, "--config", configPath, "punish", "list", "-g", "g1")
	if err != nil {
		t.Fatalf("punish list after removal: %v", err)
	}
	if !strings.Contains(out, "No penalty points") {
		t.Fatalf("ledger should be empty after clamp to zero:\n%s", out)
	}
}

func TestPunishAddRejectsBadPoints(t *testing.T) {
	configPath, _ := writeTestConfig(t)
	if _, err := runCommand(t, "--config", configPath, "punish", "add", "u1", "zero", "-g", "g1"); err == nil {
		t.Fatal("non-numeric points should be rejected")
	}
	if _, err := runCommand(t, "--config", configPath, "punish", "add", "u1", "-2", "-g", "g1"); err == nil {
		t.Fatal("negative points should be rejected")
	}
}

func TestConfigInitCreatesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("init output unexpected:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("re-init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestSplitRoster(t *testing.T) {
	names := splitRoster(" Thashar, Bimber ,,Aleksandra ")
	if len(names) != 3 || names[0] != "Thashar" || names[2] != "Aleksandra" {
		t.Fatalf("names = %v", names)
	}
	if got := splitRoster("  "); len(got) != 0 {
		t.Fatalf("blank roster should be empty, got %v", got)
	}
}
