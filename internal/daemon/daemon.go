// Package daemon assembles the griddock process: native backend, coordinator
// loop, IPC server and the background services feeding them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/yourusername/grid-dock/internal/config"
	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/platform"
	"github.com/yourusername/grid-dock/internal/reconcile"
	"github.com/yourusername/grid-dock/internal/server"
	"github.com/yourusername/grid-dock/internal/tracker"
)

const (
	loopBuffer     = 256
	backendTimeout = 5 * time.Second
	remoteTimeout  = 5 * time.Second
)

// Daemon owns every long-running part of griddock.
type Daemon struct {
	cfg     *config.Config
	backend platform.Backend
	bus     *events.Bus
	svc     *group.Service
	sup     *suture.Supervisor
}

// New opens the configured backend and wires the services around it.
func New(cfg *config.Config) (*Daemon, error) {
	backend, err := platform.Open(cfg.Settings.Backend, platform.Options{
		GridServerSocket: cfg.Settings.GridServerSocket,
		Timeout:          backendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Settings.Backend, err)
	}
	return newWithBackend(cfg, backend), nil
}

func newWithBackend(cfg *config.Config, backend platform.Backend) *Daemon {
	s := cfg.Settings

	bus := events.NewBus()
	sink := events.NewEmitter(bus, events.NewRemotes(cfg.RemoteSockets(), remoteTimeout))

	loop := group.NewLoop(loopBuffer)
	coord := group.NewCoordinator(backend, sink, tracker.NewTickerScheduler(loop.Post),
		tracker.WithInterval(s.PollInterval.Std()),
		tracker.WithRaiseOnStart(s.RaiseOnDragStart()),
	)
	svc := group.NewService(loop, coord)

	sup := suture.New("griddock", suture.Spec{
		EventHook: func(ev suture.Event) {
			logging.Warn().Fields(ev.Map()).Msg(ev.String())
		},
	})
	sup.Add(loop)
	sup.Add(server.New(s.SocketPath, svc, bus, cfg.Rules))
	sup.Add(reconcile.New(backend, svc, s.ReconcileInterval.Std()))

	if x, ok := backend.(*platform.X11); ok {
		sup.Add(platform.NewX11Pump(x, s.DragEndQuiet.Std(), svc.HandleNativeEvent, svc.WindowDestroyed))
	}

	logging.Info().
		Str("backend", backend.Name()).
		Str("socket", s.SocketPath).
		Dur("pollInterval", s.PollInterval.Std()).
		Int("remotes", len(cfg.Remotes)).
		Msg("Daemon configured")

	return &Daemon{cfg: cfg, backend: backend, bus: bus, svc: svc, sup: sup}
}

// Service returns the goroutine-safe coordinator entry point
func (d *Daemon) Service() *group.Service {
	return d.svc
}

// Run serves until ctx is cancelled, then closes the backend.
func (d *Daemon) Run(ctx context.Context) error {
	err := d.sup.Serve(ctx)
	if closeErr := d.backend.Close(); closeErr != nil {
		logging.Warn().Err(closeErr).Msg("Failed to close backend")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
