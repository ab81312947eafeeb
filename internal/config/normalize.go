package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizePreprocess()
	c.normalizeSession()
	c.normalizeDecay()
	c.normalizeWebhook()
	c.normalizeLogging()
	c.normalizeGuilds()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		c.Paths.ProcessedDir = filepath.Join(c.Paths.TempDir, "processed")
	}
	if c.Paths.ProcessedDir, err = expandPath(c.Paths.ProcessedDir); err != nil {
		return fmt.Errorf("paths.processed_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOCR() {
	c.OCR.Binary = strings.TrimSpace(c.OCR.Binary)
	if c.OCR.Binary == "" {
		c.OCR.Binary = defaultOCRBinary
	}
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	if c.OCR.CharWhitelist == "" {
		c.OCR.CharWhitelist = defaultOCRWhitelist
	}
	if c.OCR.PageSegMode <= 0 {
		c.OCR.PageSegMode = defaultOCRPageSegMode
	}
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
}

func (c *Config) normalizePreprocess() {
	if c.Preprocess.UpscaleFactor <= 0 {
		c.Preprocess.UpscaleFactor = defaultUpscaleFactor
	}
	if c.Preprocess.Gamma <= 0 {
		c.Preprocess.Gamma = defaultGamma
	}
	if c.Preprocess.MedianSize <= 0 {
		c.Preprocess.MedianSize = defaultMedianSize
	}
	if c.Preprocess.BlurSigma <= 0 {
		c.Preprocess.BlurSigma = defaultBlurSigma
	}
	if c.Preprocess.ContrastGain <= 0 {
		c.Preprocess.ContrastGain = defaultContrastGain
	}
	if c.Preprocess.WhiteCutoff <= 0 {
		c.Preprocess.WhiteCutoff = defaultWhiteCutoff
	}
	if c.Preprocess.MaxProcessedFiles < 0 {
		c.Preprocess.MaxProcessedFiles = 0
	}
}

func (c *Config) normalizeSession() {
	if c.Session.InactivityTimeoutMinutes <= 0 {
		c.Session.InactivityTimeoutMinutes = defaultInactivityMinutes
	}
	if c.Session.ReservationTimeoutMinutes <= 0 {
		c.Session.ReservationTimeoutMinutes = defaultReservationMinutes
	}
	if c.Session.SweepIntervalSeconds <= 0 {
		c.Session.SweepIntervalSeconds = defaultSweepSeconds
	}
	if c.Session.MaxImagesPerBatch <= 0 {
		c.Session.MaxImagesPerBatch = defaultMaxImagesPerBatch
	}
}

func (c *Config) normalizeDecay() {
	c.Decay.Weekday = strings.ToLower(strings.TrimSpace(c.Decay.Weekday))
	if c.Decay.Weekday == "" {
		c.Decay.Weekday = defaultDecayWeekday
	}
}

func (c *Config) normalizeWebhook() {
	c.Webhook.URL = strings.TrimSpace(c.Webhook.URL)
	if c.Webhook.URL == "" {
		if value, ok := os.LookupEnv("STALKER_WEBHOOK_URL"); ok {
			c.Webhook.URL = strings.TrimSpace(value)
		}
	}
	if c.Webhook.RequestTimeout <= 0 {
		c.Webhook.RequestTimeout = defaultWebhookTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeGuilds() {
	for i := range c.Guilds {
		guild := &c.Guilds[i]
		guild.ID = strings.TrimSpace(guild.ID)
		guild.Name = strings.TrimSpace(guild.Name)
		if guild.Name == "" {
			guild.Name = guild.ID
		}
		guild.TargetRoles = dedupeStrings(guild.TargetRoles)
		guild.Clans = dedupeStrings(guild.Clans)
		if guild.Punishment.PunishmentThreshold <= 0 {
			guild.Punishment.PunishmentThreshold = defaultPunishmentThreshold
		}
		if guild.Punishment.LotteryBanThreshold <= 0 {
			guild.Punishment.LotteryBanThreshold = defaultLotteryBanThreshold
		}
		guild.Punishment.PunishmentRoleID = strings.TrimSpace(guild.Punishment.PunishmentRoleID)
		guild.Punishment.LotteryBanRoleID = strings.TrimSpace(guild.Punishment.LotteryBanRoleID)
		guild.Punishment.WarningChannelID = strings.TrimSpace(guild.Punishment.WarningChannelID)
	}
}

func dedupeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
