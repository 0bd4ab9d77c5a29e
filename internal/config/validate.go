package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if c.Player.RampUpMS < 0 {
		return errors.New("player.ramp_up_ms must be non-negative")
	}
	if c.Player.RampDownMS < 0 {
		return errors.New("player.ramp_down_ms must be non-negative")
	}
	if c.Player.AudioMissingHoldMS <= 0 {
		return errors.New("player.audio_missing_hold_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format)
	}
	return nil
}
