package platform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/thejerf/suture/v4"

	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/types"
)

// DefaultDragEndQuiet is how long a window must stay still before its drag
// counts as finished.
const DefaultDragEndQuiet = 150 * time.Millisecond

// X11Pump listens for geometry changes of locked windows and feeds them to
// the coordinator as native drag events. It implements suture.Service.
type X11Pump struct {
	backend   *X11
	detector  *DragDetector
	destroyed func(types.WindowID)

	loop    func() // runs the X event loop until quit is called
	quit    func()
	started atomic.Bool
}

// NewX11Pump creates a pump. native receives drag events, destroyed is told
// about locked windows that went away.
func NewX11Pump(b *X11, quiet time.Duration, native func(group.NativeEvent), destroyed func(types.WindowID)) *X11Pump {
	if quiet <= 0 {
		quiet = DefaultDragEndQuiet
	}
	p := &X11Pump{
		backend:   b,
		detector:  NewDragDetector(quiet, native),
		destroyed: destroyed,
		loop:      func() { xevent.Main(b.XUtil()) },
		quit:      func() { xevent.Quit(b.XUtil()) },
	}
	b.OnLockChange(p.lockChanged)
	return p
}

func (p *X11Pump) lockChanged(id types.WindowID, locked bool) {
	xu := p.backend.XUtil()
	win := xproto.Window(id)

	if !locked {
		p.detector.Unwatch(id)
		xevent.Detach(xu, win)
		if err := xwindow.New(xu, win).Listen(xproto.EventMaskNoEvent); err != nil {
			logging.Debug().Err(err).Uint32("window", uint32(id)).Msg("Failed to stop listening to window")
		}
		return
	}

	r, err := p.backend.Bounds(id)
	if err != nil {
		logging.Warn().Err(err).Uint32("window", uint32(id)).Msg("Cannot watch window")
		return
	}
	p.detector.Watch(id, r)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		p.configured(id)
	}).Connect(xu, win)
	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		p.detector.Unwatch(id)
		xevent.Detach(xu, win)
		p.destroyed(id)
	}).Connect(xu, win)

	if err := xwindow.New(xu, win).Listen(xproto.EventMaskStructureNotify); err != nil {
		logging.Warn().Err(err).Uint32("window", uint32(id)).Msg("Failed to listen to window")
	}
}

// configured re-reads the window's root-relative geometry, since the event
// coordinates are relative to the window manager's frame.
func (p *X11Pump) configured(id types.WindowID) {
	r, err := p.backend.Bounds(id)
	if err != nil {
		return
	}
	if p.backend.Consume(id, r) {
		p.detector.Settle(id, r)
		return
	}
	p.detector.Observe(id, r)
}

// Serve runs the X event loop until ctx is cancelled. xevent cannot start a
// loop again once it was told to quit, so the pump is never restarted.
func (p *X11Pump) Serve(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		logging.Error().Msg("X11 event pump cannot be restarted")
		return suture.ErrDoNotRestart
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.loop()
	}()
	logging.Info().Msg("X11 event pump started")

	select {
	case <-ctx.Done():
		p.quit()
		logging.Info().Msg("X11 event pump stopped")
		return ctx.Err()
	case <-done:
		logging.Error().Msg("X11 event loop exited")
		return suture.ErrDoNotRestart
	}
}

// String names the service for the supervisor log
func (p *X11Pump) String() string {
	return "x11-pump"
}
