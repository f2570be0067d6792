package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/grid-dock/internal/platform"
	"github.com/yourusername/grid-dock/internal/tracker"
	"github.com/yourusername/grid-dock/internal/types"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		hasError bool
	}{
		{"60ms", 60 * time.Millisecond, false},
		{"150 ms", 150 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"0.15s", 150 * time.Millisecond, false},
		{"  60ms  ", 60 * time.Millisecond, false}, // whitespace
		{"60", 60 * time.Millisecond, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"-5", 0, true},
		{"ms", 0, true},
		{"1m", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("ParseDuration(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseDuration(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{60 * time.Millisecond, "60ms"},
		{1500 * time.Millisecond, "1500ms"},
		{2 * time.Second, "2s"},
		{0, "0ms"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatDuration(tt.input); got != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigFromBytesYAML(t *testing.T) {
	yamlConfig := `
settings:
  backend: x11
  socketPath: /tmp/test.sock
  pollInterval: 40ms
  dragEndQuiet: 0.2s
  logLevel: debug
  bringToFrontOnDragStart: false
remotes:
  - uuid: other-app
    socket: /tmp/other.sock
appRules:
  - app: xterm
    minWidth: 200
    maxWidth: 800
  - app: xterm
    name: preview
    aspectRatio: 1.5
`
	cfg, err := LoadConfigFromBytes([]byte(yamlConfig), "yaml")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes: %v", err)
	}

	s := cfg.Settings
	if s.Backend != platform.BackendX11 || s.SocketPath != "/tmp/test.sock" || s.LogLevel != "debug" {
		t.Errorf("settings = %+v", s)
	}
	if s.PollInterval.Std() != 40*time.Millisecond {
		t.Errorf("pollInterval = %v", s.PollInterval)
	}
	if s.DragEndQuiet.Std() != 200*time.Millisecond {
		t.Errorf("dragEndQuiet = %v", s.DragEndQuiet)
	}
	if s.RaiseOnDragStart() {
		t.Error("RaiseOnDragStart() = true, want false")
	}
	if s.GridServerSocket != platform.DefaultGridServerSocket {
		t.Errorf("gridServerSocket default = %q", s.GridServerSocket)
	}

	if got := cfg.RemoteSockets(); got["other-app"] != "/tmp/other.sock" || len(got) != 1 {
		t.Errorf("RemoteSockets() = %v", got)
	}

	if got := cfg.Rules(types.Identity{UUID: "xterm", Name: "main"}); got != (types.Constraints{MinWidth: 200, MaxWidth: 800}) {
		t.Errorf("app-wide rule = %+v", got)
	}
	if got := cfg.Rules(types.Identity{UUID: "xterm", Name: "preview"}); got != (types.Constraints{AspectRatio: 1.5}) {
		t.Errorf("named rule = %+v", got)
	}
	if got := cfg.Rules(types.Identity{UUID: "other"}); got != (types.Constraints{}) {
		t.Errorf("unmatched rule = %+v", got)
	}
}

func TestLoadConfigFromBytesJSON(t *testing.T) {
	jsonConfig := `{
  "settings": {"backend": "gridserver", "pollInterval": 30},
  "appRules": [{"app": "editor", "minHeight": 100}]
}`
	cfg, err := LoadConfigFromBytes([]byte(jsonConfig), "json")
	if err != nil {
		t.Fatalf("LoadConfigFromBytes: %v", err)
	}
	if cfg.Settings.PollInterval.Std() != 30*time.Millisecond {
		t.Errorf("pollInterval = %v", cfg.Settings.PollInterval)
	}
	if !cfg.Settings.RaiseOnDragStart() {
		t.Error("RaiseOnDragStart() should default to true")
	}
	if got := cfg.Rules(types.Identity{UUID: "editor"}); got.MinHeight != 100 {
		t.Errorf("rule = %+v", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Settings.Backend != platform.BackendAuto {
		t.Errorf("backend = %q", cfg.Settings.Backend)
	}
	if cfg.Settings.PollInterval.Std() != tracker.DefaultInterval {
		t.Errorf("pollInterval = %v", cfg.Settings.PollInterval)
	}
	if cfg.Settings.DragEndQuiet.Std() != platform.DefaultDragEndQuiet {
		t.Errorf("dragEndQuiet = %v", cfg.Settings.DragEndQuiet)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Settings.Backend = "wayland" }, "unknown backend"},
		{"poll interval too long", func(c *Config) { c.Settings.PollInterval = Duration(time.Second) }, "pollInterval"},
		{"negative poll interval", func(c *Config) { c.Settings.PollInterval = Duration(-time.Millisecond) }, "pollInterval"},
		{"unknown log level", func(c *Config) { c.Settings.LogLevel = "trace" }, "logLevel"},
		{"remote without uuid", func(c *Config) { c.Remotes = []Remote{{Socket: "/tmp/a"}} }, "missing uuid"},
		{"duplicate remote", func(c *Config) {
			c.Remotes = []Remote{{UUID: "a", Socket: "/tmp/a"}, {UUID: "a", Socket: "/tmp/b"}}
		}, "duplicate remote"},
		{"rule without app", func(c *Config) { c.AppRules = []AppRule{{}} }, "missing app"},
		{"negative constraint", func(c *Config) {
			c.AppRules = []AppRule{{App: "x", Constraints: types.Constraints{MinHeight: -1}}}
		}, "minHeight cannot be negative"},
		{"min above max", func(c *Config) {
			c.AppRules = []AppRule{{App: "x", Constraints: types.Constraints{MinWidth: 500, MaxWidth: 300}}}
		}, "exceeds maxWidth"},
		{"unbounded max", func(c *Config) {
			c.AppRules = []AppRule{{App: "x", Constraints: types.Constraints{MinWidth: 500}}}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errSub)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Settings.SocketPath == "" {
			t.Error("defaults not applied")
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte("settings:\n  pollInterval: 20ms\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Settings.PollInterval.Std() != 20*time.Millisecond {
			t.Errorf("pollInterval = %v", cfg.Settings.PollInterval)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("settings:\n  pollInterval: soon\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(path, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected format error")
		}
	})
}
