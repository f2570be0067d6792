package config

import (
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/platform"
	"github.com/yourusername/grid-dock/internal/types"
)

var validLogLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Validate settings
	if err := validateSettings(&c.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	// Validate remotes
	uuids := make(map[string]bool)
	for i, r := range c.Remotes {
		if r.UUID == "" {
			return fmt.Errorf("remote %d: missing uuid", i)
		}
		if r.Socket == "" {
			return fmt.Errorf("remote %s: missing socket", r.UUID)
		}
		if uuids[r.UUID] {
			return fmt.Errorf("duplicate remote uuid: %s", r.UUID)
		}
		uuids[r.UUID] = true
	}

	// Validate app rules
	for i, rule := range c.AppRules {
		if rule.App == "" {
			return fmt.Errorf("appRule %d: missing app identifier", i)
		}
		if err := validateConstraints(rule.Constraints); err != nil {
			return fmt.Errorf("appRule %s: %w", rule.App, err)
		}
	}

	return nil
}

func validateSettings(s *Settings) error {
	switch s.Backend {
	case "", platform.BackendX11, platform.BackendGridServer, platform.BackendAuto:
	default:
		return fmt.Errorf("unknown backend: %s", s.Backend)
	}

	if s.PollInterval.Std() <= 0 || s.PollInterval.Std() >= time.Second {
		return fmt.Errorf("pollInterval must be between 1ms and 1s, got %s", s.PollInterval)
	}
	if s.DragEndQuiet.Std() < 0 {
		return fmt.Errorf("dragEndQuiet cannot be negative")
	}
	if s.ReconcileInterval.Std() < 0 {
		return fmt.Errorf("reconcileInterval cannot be negative")
	}

	if !validLogLevels[s.LogLevel] {
		return fmt.Errorf("unknown logLevel: %s", s.LogLevel)
	}

	return nil
}

func validateConstraints(c types.Constraints) error {
	for name, v := range map[string]int{
		"minWidth":  c.MinWidth,
		"minHeight": c.MinHeight,
		"maxWidth":  c.MaxWidth,
		"maxHeight": c.MaxHeight,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if c.AspectRatio < 0 {
		return fmt.Errorf("aspectRatio cannot be negative")
	}
	if c.MaxWidth > 0 && c.MinWidth > c.MaxWidth {
		return fmt.Errorf("minWidth %d exceeds maxWidth %d", c.MinWidth, c.MaxWidth)
	}
	if c.MaxHeight > 0 && c.MinHeight > c.MaxHeight {
		return fmt.Errorf("minHeight %d exceeds maxHeight %d", c.MinHeight, c.MaxHeight)
	}
	return nil
}
