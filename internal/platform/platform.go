// Package platform provides the native window backends the coordinator drives.
package platform

import (
	"fmt"
	"os"
	"time"

	"github.com/yourusername/grid-dock/internal/window"
)

// Backend names accepted by Open
const (
	BackendX11        = "x11"
	BackendGridServer = "gridserver"
	BackendAuto       = "auto"
)

// Backend is a native window layer with a lifetime.
type Backend interface {
	window.Native
	Name() string
	Close() error
}

// Options configure Open.
type Options struct {
	GridServerSocket string
	Timeout          time.Duration
}

// Open connects to the named backend. "auto" picks X11 when DISPLAY is set
// and GridServer otherwise.
func Open(name string, opts Options) (Backend, error) {
	if name == BackendAuto || name == "" {
		name = BackendGridServer
		if os.Getenv("DISPLAY") != "" {
			name = BackendX11
		}
	}

	switch name {
	case BackendX11:
		return NewX11()
	case BackendGridServer:
		return NewGridServer(opts.GridServerSocket, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
