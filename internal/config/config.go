package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	TempDir      string `toml:"temp_dir"`
	LogDir       string `toml:"log_dir"`
	ProcessedDir string `toml:"processed_dir"`
}

// OCR contains configuration for the external text recognition engine.
type OCR struct {
	Binary         string `toml:"binary"`
	Language       string `toml:"language"`
	CharWhitelist  string `toml:"char_whitelist"`
	PageSegMode    int    `toml:"page_seg_mode"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Preprocess contains the tunable parameters of the fixed image filter chain.
type Preprocess struct {
	UpscaleFactor     int     `toml:"upscale_factor"`
	Gamma             float64 `toml:"gamma"`
	MedianSize        int     `toml:"median_size"`
	BlurSigma         float64 `toml:"blur_sigma"`
	ContrastGain      float64 `toml:"contrast_gain"`
	WhiteCutoff       int     `toml:"white_cutoff"`
	SaveProcessed     bool    `toml:"save_processed"`
	MaxProcessedFiles int     `toml:"max_processed_files"`
}

// Session contains ingestion session timing and limits.
type Session struct {
	InactivityTimeoutMinutes  int `toml:"inactivity_timeout_minutes"`
	ReservationTimeoutMinutes int `toml:"reservation_timeout_minutes"`
	SweepIntervalSeconds      int `toml:"sweep_interval_seconds"`
	MaxImagesPerBatch         int `toml:"max_images_per_batch"`
}

// Decay contains the weekly punishment decay schedule.
type Decay struct {
	Enabled bool   `toml:"enabled"`
	Weekday string `toml:"weekday"`
	Hour    int    `toml:"hour"`
}

// Webhook contains configuration for the logging webhook. An empty URL
// disables delivery silently.
type Webhook struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
	Sessions       bool   `toml:"sessions"`
	Decay          bool   `toml:"decay"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// GuildPunishment contains per-guild punishment enforcement settings.
type GuildPunishment struct {
	PunishmentRoleID    string `toml:"punishment_role_id"`
	LotteryBanRoleID    string `toml:"lottery_ban_role_id"`
	PunishmentThreshold int    `toml:"punishment_threshold"`
	LotteryBanThreshold int    `toml:"lottery_ban_threshold"`
	WarningChannelID    string `toml:"warning_channel_id"`
}

// Guild describes one guild the daemon serves.
type Guild struct {
	ID          string          `toml:"id"`
	Name        string          `toml:"name"`
	TargetRoles []string        `toml:"target_roles"`
	Clans       []string        `toml:"clans"`
	Punishment  GuildPunishment `toml:"punishment"`
}

// Config encapsulates all configuration values for stalker.
//
// Configuration sections by subsystem:
//   - Paths: data, temp, log, and processed-image directories
//   - OCR: external recognition engine binary and invocation settings
//   - Preprocess: parameters of the fixed image filter chain
//   - Session: ingestion session timeouts and limits
//   - Decay: weekly punishment decay schedule
//   - Webhook: logging webhook delivery
//   - Logging: log format, level, and retention
//   - Guilds: per-guild roster roles, clans, and punishment enforcement
type Config struct {
	Paths      Paths      `toml:"paths"`
	OCR        OCR        `toml:"ocr"`
	Preprocess Preprocess `toml:"preprocess"`
	Session    Session    `toml:"session"`
	Decay      Decay      `toml:"decay"`
	Webhook    Webhook    `toml:"webhook"`
	Logging    Logging    `toml:"logging"`
	Guilds     []Guild    `toml:"guild"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stalker/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stalker.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.TempDir,
		c.Paths.LogDir,
		c.SessionScratchDir(),
		c.PhasesDir(),
	}
	if c.Preprocess.SaveProcessed {
		dirs = append(dirs, c.Paths.ProcessedDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PhasesDir returns the root of the per-guild week record tree.
func (c *Config) PhasesDir() string {
	return filepath.Join(c.Paths.DataDir, "phases")
}

// PunishmentsPath returns the punishment ledger file path.
func (c *Config) PunishmentsPath() string {
	return filepath.Join(c.Paths.DataDir, "punishments.json")
}

// WeeklyRemovalPath returns the decay marker file path.
func (c *Config) WeeklyRemovalPath() string {
	return filepath.Join(c.Paths.DataDir, "weekly_removal.json")
}

// LegacyResultsPath returns the monolithic pre-migration results file for a phase.
func (c *Config) LegacyResultsPath(phase int) string {
	return filepath.Join(c.Paths.DataDir, fmt.Sprintf("phase%d_results.json", phase))
}

// SessionScratchDir returns the directory holding downloaded images and
// roster snapshots for live sessions.
func (c *Config) SessionScratchDir() string {
	return filepath.Join(c.Paths.TempDir, "phase1")
}

// GuildByID returns the configuration for the given guild, if present.
func (c *Config) GuildByID(id string) (*Guild, bool) {
	for i := range c.Guilds {
		if c.Guilds[i].ID == id {
			return &c.Guilds[i], true
		}
	}
	return nil, false
}

// InactivityTimeout returns the session inactivity timeout as a duration.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.Session.InactivityTimeoutMinutes) * time.Minute
}

// ReservationTimeout returns the queue reservation timeout as a duration.
func (c *Config) ReservationTimeout() time.Duration {
	return time.Duration(c.Session.ReservationTimeoutMinutes) * time.Minute
}

// SweepInterval returns the housekeeping sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
