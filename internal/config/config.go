package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/grid-dock/internal/client"
	"github.com/yourusername/grid-dock/internal/platform"
	"github.com/yourusername/grid-dock/internal/tracker"
	"github.com/yourusername/grid-dock/internal/types"
)

const (
	DefaultConfigDir  = ".config/griddock"
	DefaultConfigFile = "config.yaml"

	// DefaultReconcileInterval is how often tracked windows are checked for
	// destruction the backend did not report.
	DefaultReconcileInterval = 2 * time.Second
)

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from the specified path or default location
// If path is empty, uses ~/.config/griddock/config.yaml, falling back to
// config.json, then to defaults when neither exists.
// Supports both .yaml and .json extensions
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		// Try YAML first, then JSON
		yamlPath := filepath.Join(home, DefaultConfigDir, "config.yaml")
		jsonPath := filepath.Join(home, DefaultConfigDir, "config.json")

		if _, err := os.Stat(yamlPath); err == nil {
			path = yamlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			path = jsonPath
		} else {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return LoadConfigFromBytes(data, ext)
}

// LoadConfigFromBytes loads configuration from raw bytes
// format should be "yaml" or "json"
func LoadConfigFromBytes(data []byte, format string) (*Config, error) {
	var cfg Config

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

func (c *Config) applyDefaults() {
	s := &c.Settings
	if s.Backend == "" {
		s.Backend = platform.BackendAuto
	}
	if s.SocketPath == "" {
		s.SocketPath = client.DefaultSocketPath
	}
	if s.GridServerSocket == "" {
		s.GridServerSocket = platform.DefaultGridServerSocket
	}
	if s.PollInterval == 0 {
		s.PollInterval = Duration(tracker.DefaultInterval)
	}
	if s.DragEndQuiet == 0 {
		s.DragEndQuiet = Duration(platform.DefaultDragEndQuiet)
	}
	if s.ReconcileInterval == 0 {
		s.ReconcileInterval = Duration(DefaultReconcileInterval)
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// RaiseOnDragStart reports whether a group is brought to the front when a
// drag begins. Defaults to true.
func (s Settings) RaiseOnDragStart() bool {
	return s.BringToFrontOnDragStart == nil || *s.BringToFrontOnDragStart
}

// RemoteSockets returns the uuid -> socket map used for event forwarding
func (c *Config) RemoteSockets() map[string]string {
	sockets := make(map[string]string, len(c.Remotes))
	for _, r := range c.Remotes {
		sockets[r.UUID] = r.Socket
	}
	return sockets
}

// GetAppRule finds the most specific rule for a window: one naming both the
// app and the window wins over an app-wide rule.
func (c *Config) GetAppRule(id types.Identity) *AppRule {
	var match *AppRule
	for i := range c.AppRules {
		rule := &c.AppRules[i]
		if rule.App != id.UUID {
			continue
		}
		if rule.Name == id.Name {
			return rule
		}
		if rule.Name == "" && match == nil {
			match = rule
		}
	}
	return match
}

// Rules returns the configured constraints for a window, empty if no rule
// matches.
func (c *Config) Rules(id types.Identity) types.Constraints {
	if rule := c.GetAppRule(id); rule != nil {
		return rule.Constraints
	}
	return types.Constraints{}
}
