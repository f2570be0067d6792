package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/grid-dock/internal/client"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// DefaultGridServerSocket is where GridServer listens by default
const DefaultGridServerSocket = "/tmp/grid-server.sock"

// dumpTTL bounds how long one dump answers Bounds calls. A propagation pass
// reads every member of a group back to back.
const dumpTTL = 20 * time.Millisecond

// GridServer drives windows through GridServer's JSON-RPC socket. It has no
// atomic multi-window primitive, so batches are applied one window at a
// time, and no native drag stream: windows only move through this process.
type GridServer struct {
	client  *client.Client
	timeout time.Duration

	mu      sync.Mutex // guards the client connection and the dump
	state   *models.State
	fetched time.Time
	now     func() time.Time
}

var _ window.StateReader = (*GridServer)(nil)

// NewGridServer creates a backend talking to the GridServer socket
func NewGridServer(socketPath string, timeout time.Duration) *GridServer {
	if socketPath == "" {
		socketPath = DefaultGridServerSocket
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &GridServer{
		client:  client.NewClient(socketPath, timeout),
		timeout: timeout,
		now:     time.Now,
	}
}

// Name implements Backend.
func (g *GridServer) Name() string {
	return BackendGridServer
}

// Close closes the GridServer connection
func (g *GridServer) Close() error {
	return g.client.Close()
}

func (g *GridServer) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), g.timeout)
}

// window returns the dumped window, refreshing the dump when it is stale.
func (g *GridServer) window(id types.WindowID) (*models.Window, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == nil || g.now().Sub(g.fetched) > dumpTTL {
		ctx, cancel := g.ctx()
		defer cancel()

		result, err := g.client.Dump(ctx)
		if err != nil {
			return nil, fmt.Errorf("dump: %w", err)
		}
		state, err := models.ParseState(result)
		if err != nil {
			return nil, err
		}
		g.state = state
		g.fetched = g.now()
	}

	w := g.state.FindWindowByID(int(id))
	if w == nil {
		return nil, fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	return w, nil
}

// Bounds implements window.Native.
func (g *GridServer) Bounds(id types.WindowID) (types.Rect, error) {
	w, err := g.window(id)
	if err != nil {
		return types.Rect{}, err
	}
	return w.Rect(), nil
}

// SetBounds implements window.Native.
func (g *GridServer) SetBounds(id types.WindowID, r types.Rect) error {
	// GridServer rects are already frame rects.
	r = window.TransactionBounds(r, types.Rect{})
	ctx, cancel := g.ctx()
	defer cancel()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = nil

	_, err := g.client.UpdateWindow(ctx, int(id), map[string]interface{}{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	if err != nil {
		return g.mapError(id, err)
	}
	return nil
}

// BringToFront implements window.Native. It tries window.focus first and
// falls back to window.raise.
func (g *GridServer) BringToFront(id types.WindowID) error {
	ctx, cancel := g.ctx()
	defer cancel()

	g.mu.Lock()
	defer g.mu.Unlock()

	params := map[string]interface{}{"windowId": id}
	if _, err := g.client.CallMethod(ctx, "window.focus", params); err == nil {
		return nil
	}
	if _, err := g.client.CallMethod(ctx, "window.raise", params); err != nil {
		return fmt.Errorf("focus/raise failed for window %d: %w", id, g.mapError(id, err))
	}
	return nil
}

// SetUserMovementEnabled implements window.Native. GridServer exposes no
// movement lock; the window only needs to exist.
func (g *GridServer) SetUserMovementEnabled(id types.WindowID, enabled bool) error {
	if _, err := g.window(id); err != nil {
		return err
	}
	logging.Debug().Uint32("window", uint32(id)).Bool("enabled", enabled).Msg("GridServer has no movement lock")
	return nil
}

// WindowState implements window.StateReader.
func (g *GridServer) WindowState(id types.WindowID) (window.State, error) {
	w, err := g.window(id)
	if err != nil {
		return window.StateNormal, err
	}
	if w.IsMinimized {
		return window.StateMinimized, nil
	}
	return window.StateNormal, nil
}

// mapError turns GridServer's not-found responses into window.ErrWindowGone.
func (g *GridServer) mapError(id types.WindowID, err error) error {
	var se *client.ServerError
	if errors.As(err, &se) && se.Code == models.CodeNotFound {
		return fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	return fmt.Errorf("window %d: %w", id, err)
}
