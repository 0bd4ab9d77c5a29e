package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error

	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}

	c.Bundle.Output = strings.TrimSpace(c.Bundle.Output)
	if c.Bundle.Output == "" {
		c.Bundle.Output = defaultBundleOut
	}
	if c.Bundle.Output, err = expandPath(c.Bundle.Output); err != nil {
		return fmt.Errorf("bundle.output: %w", err)
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
