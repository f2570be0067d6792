package config

import "github.com/yourusername/grid-dock/internal/types"

// Config is the root configuration structure
type Config struct {
	Settings Settings  `yaml:"settings" json:"settings"`
	Remotes  []Remote  `yaml:"remotes" json:"remotes"`
	AppRules []AppRule `yaml:"appRules" json:"appRules"`
}

// Settings contains global daemon settings
type Settings struct {
	Backend                 string   `yaml:"backend" json:"backend"` // x11, gridserver or auto
	SocketPath              string   `yaml:"socketPath" json:"socketPath"`
	GridServerSocket        string   `yaml:"gridServerSocket" json:"gridServerSocket"`
	PollInterval            Duration `yaml:"pollInterval" json:"pollInterval"`
	DragEndQuiet            Duration `yaml:"dragEndQuiet" json:"dragEndQuiet"`
	ReconcileInterval       Duration `yaml:"reconcileInterval" json:"reconcileInterval"`
	LogLevel                string   `yaml:"logLevel" json:"logLevel"`
	BringToFrontOnDragStart *bool    `yaml:"bringToFrontOnDragStart,omitempty" json:"bringToFrontOnDragStart,omitempty"`
}

// Remote maps an application uuid to the socket of the daemon that owns it
type Remote struct {
	UUID   string `yaml:"uuid" json:"uuid"`
	Socket string `yaml:"socket" json:"socket"`
}

// AppRule defines size constraints for an application's windows. Name, when
// set, restricts the rule to one window of the application.
type AppRule struct {
	App  string `yaml:"app" json:"app"` // Application uuid
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	types.Constraints `yaml:",inline"`
}
