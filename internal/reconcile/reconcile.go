// Package reconcile removes tracked windows whose native handle has gone
// away without the backend reporting it.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// Tracker is the part of the group service the reconciler drives.
type Tracker interface {
	Tracked(ctx context.Context) ([]types.WindowID, error)
	WindowDestroyed(id types.WindowID)
}

// Reconciler periodically checks tracked windows against the native layer.
type Reconciler struct {
	interval time.Duration
	native   window.Native
	tracker  Tracker
}

// New creates a reconciler. A non-positive interval defaults to 2s.
func New(native window.Native, tracker Tracker, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Reconciler{interval: interval, native: native, tracker: tracker}
}

// Serve runs reconciliation passes until ctx is cancelled.
func (r *Reconciler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logging.Debug().Dur("interval", r.interval).Msg("Reconciler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sync(ctx)
		}
	}
}

// String names the service for the supervisor log
func (r *Reconciler) String() string {
	return "reconciler"
}

// Sync performs one pass and returns the windows it removed.
func (r *Reconciler) Sync(ctx context.Context) (removed []types.WindowID) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			logging.Error().Interface("panic", err).Msg("Reconciler panic recovered")
		}
	}()

	ids, err := r.tracker.Tracked(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Reconciler: failed to list tracked windows")
		return nil
	}

	for _, id := range ids {
		if _, err := r.native.Bounds(id); err != nil {
			if !errors.Is(err, window.ErrWindowGone) {
				logging.Debug().Err(err).Uint32("window", uint32(id)).Msg("Reconciler: bounds unavailable")
				continue
			}
			logging.Info().Uint32("window", uint32(id)).Msg("Reconciler: tracked window is gone")
			r.tracker.WindowDestroyed(id)
			removed = append(removed, id)
		}
	}
	return removed
}
