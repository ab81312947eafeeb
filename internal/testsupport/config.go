package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Thashar/Stalker-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and one
// test guild per test. It defaults common fields and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.TempDir = filepath.Join(base, "temp")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfgVal.Guilds = []config.Guild{{
		ID:          "g1",
		Name:        "Test Guild",
		TargetRoles: []string{"role-target"},
		Clans:       []string{"polska", "szwecja"},
		Punishment: config.GuildPunishment{
			PunishmentRoleID:    "role-punish",
			LotteryBanRoleID:    "role-ban",
			PunishmentThreshold: 3,
			LotteryBanThreshold: 5,
			WarningChannelID:    "chan-warn",
		},
	}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithGuild replaces the default test guild.
func WithGuild(guild config.Guild) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Guilds = []config.Guild{guild}
	}
}

// WithWebhookURL enables the logging webhook on the test config.
func WithWebhookURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Webhook.URL = url
	}
}

// WithProcessedImages enables the processed-image debug sink.
func WithProcessedImages(maxFiles int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Preprocess.SaveProcessed = true
		b.cfg.Preprocess.MaxProcessedFiles = maxFiles
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default stalker external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"tesseract"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
