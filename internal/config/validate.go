package config

import (
	"errors"
	"fmt"
)

var weekdayNames = map[string]struct{}{
	"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
	"thursday": {}, "friday": {}, "saturday": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validatePreprocess(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateDecay(); err != nil {
		return err
	}
	if err := c.validateGuilds(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOCR() error {
	return ensurePositiveMap(map[string]int{
		"ocr.page_seg_mode":   c.OCR.PageSegMode,
		"ocr.timeout_seconds": c.OCR.TimeoutSeconds,
	})
}

func (c *Config) validatePreprocess() error {
	p := c.Preprocess
	if p.UpscaleFactor < 1 || p.UpscaleFactor > 8 {
		return errors.New("preprocess.upscale_factor must be between 1 and 8")
	}
	if p.MedianSize%2 == 0 {
		return errors.New("preprocess.median_size must be odd")
	}
	if p.WhiteCutoff < 1 || p.WhiteCutoff > 254 {
		return errors.New("preprocess.white_cutoff must be between 1 and 254")
	}
	return nil
}

func (c *Config) validateSession() error {
	return ensurePositiveMap(map[string]int{
		"session.inactivity_timeout_minutes":  c.Session.InactivityTimeoutMinutes,
		"session.reservation_timeout_minutes": c.Session.ReservationTimeoutMinutes,
		"session.sweep_interval_seconds":      c.Session.SweepIntervalSeconds,
		"session.max_images_per_batch":        c.Session.MaxImagesPerBatch,
	})
}

func (c *Config) validateDecay() error {
	if _, ok := weekdayNames[c.Decay.Weekday]; !ok {
		return fmt.Errorf("decay.weekday: unknown weekday %q", c.Decay.Weekday)
	}
	if c.Decay.Hour < 0 || c.Decay.Hour > 23 {
		return errors.New("decay.hour must be between 0 and 23")
	}
	return nil
}

func (c *Config) validateGuilds() error {
	seen := make(map[string]struct{}, len(c.Guilds))
	for i := range c.Guilds {
		guild := &c.Guilds[i]
		if guild.ID == "" {
			return fmt.Errorf("guild[%d].id must be set", i)
		}
		if _, dup := seen[guild.ID]; dup {
			return fmt.Errorf("guild id %q configured twice", guild.ID)
		}
		seen[guild.ID] = struct{}{}
		if len(guild.TargetRoles) == 0 {
			return fmt.Errorf("guild %q: target_roles must include at least one role", guild.ID)
		}
		if len(guild.Clans) == 0 {
			return fmt.Errorf("guild %q: clans must include at least one clan", guild.ID)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
