package platform

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// X11 drives top-level client windows through the window manager. Native
// bounds are the client window's geometry in root coordinates; the visible
// frame adds the _NET_FRAME_EXTENTS decorations.
type X11 struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	mu       sync.Mutex
	locked   map[types.WindowID]bool
	expected map[types.WindowID]types.Rect
	onLock   func(id types.WindowID, locked bool)
}

var (
	_ window.Transactor       = (*X11)(nil)
	_ window.StateReader      = (*X11)(nil)
	_ window.ConstraintReader = (*X11)(nil)
	_ window.OffsetReader     = (*X11)(nil)
)

// NewX11 opens a connection to the display named by $DISPLAY
func NewX11() (*X11, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11{
		xu:       xu,
		root:     xu.RootWin(),
		locked:   make(map[types.WindowID]bool),
		expected: make(map[types.WindowID]types.Rect),
	}, nil
}

// Name implements Backend.
func (b *X11) Name() string {
	return BackendX11
}

// Close disconnects from the X server
func (b *X11) Close() error {
	b.xu.Conn().Close()
	return nil
}

// XUtil returns the underlying connection for the event pump
func (b *X11) XUtil() *xgbutil.XUtil {
	return b.xu
}

// gone maps X protocol errors for a destroyed window to window.ErrWindowGone.
func gone(id types.WindowID, err error) error {
	var we xproto.WindowError
	var de xproto.DrawableError
	if errors.As(err, &we) || errors.As(err, &de) {
		return fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	return fmt.Errorf("window %d: %w", id, err)
}

// Bounds implements window.Native.
func (b *X11) Bounds(id types.WindowID) (types.Rect, error) {
	win := xproto.Window(id)
	geom, err := xproto.GetGeometry(b.xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return types.Rect{}, gone(id, err)
	}

	translate, err := xproto.TranslateCoordinates(b.xu.Conn(), win, b.root, 0, 0).Reply()
	if err != nil {
		return types.Rect{}, gone(id, err)
	}

	return types.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// configureValues builds a ConfigureWindow request placing the client at r.
// A reparenting window manager reads x and y as the outer frame corner, so
// they are shifted by offset; width and height stay the client size.
func configureValues(r, offset types.Rect, raise bool) (uint16, []uint32) {
	r = window.TransactionBounds(r, offset)
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(int32(r.X)), uint32(int32(r.Y)), uint32(r.Width), uint32(r.Height)}
	if raise {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, xproto.StackModeAbove)
	}
	return mask, values
}

// configure moves the client window to native rect r. The extents are read
// on every call because they change with the window state.
func (b *X11) configure(id types.WindowID, r types.Rect, raise bool) error {
	offset, _ := b.Offset(id)
	b.expect(id, r)
	mask, values := configureValues(r, offset, raise)
	if err := xproto.ConfigureWindowChecked(b.xu.Conn(), xproto.Window(id), mask, values).Check(); err != nil {
		b.Consume(id, r)
		return gone(id, err)
	}
	return nil
}

// SetBounds implements window.Native.
func (b *X11) SetBounds(id types.WindowID, r types.Rect) error {
	return b.configure(id, r, false)
}

// BringToFront implements window.Native.
func (b *X11) BringToFront(id types.WindowID) error {
	if err := ewmh.RestackWindow(b.xu, xproto.Window(id)); err != nil {
		return gone(id, err)
	}
	return nil
}

// SetUserMovementEnabled implements window.Native. X window managers move
// windows themselves, so a locked window is instead watched by the drag pump,
// which reports every user move to the coordinator.
func (b *X11) SetUserMovementEnabled(id types.WindowID, enabled bool) error {
	if _, err := b.Bounds(id); err != nil {
		return err
	}

	b.mu.Lock()
	if enabled {
		delete(b.locked, id)
	} else {
		b.locked[id] = true
	}
	hook := b.onLock
	b.mu.Unlock()

	if hook != nil {
		hook(id, !enabled)
	}
	return nil
}

// Locked reports whether user moves of id are routed to the coordinator
func (b *X11) Locked(id types.WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked[id]
}

// OnLockChange registers fn to be told when a window's lock changes
func (b *X11) OnLockChange(fn func(id types.WindowID, locked bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onLock = fn
}

// expect records a rect this process asked for, so the pump does not
// mistake the resulting ConfigureNotify for a user drag.
func (b *X11) expect(id types.WindowID, r types.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expected[id] = r
}

// Consume reports whether r, read back in client coordinates, is the rect
// last requested for id, and forgets it.
func (b *X11) Consume(id types.WindowID, r types.Rect) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	want, ok := b.expected[id]
	if !ok || want != r {
		return false
	}
	delete(b.expected, id)
	return true
}

// WindowState implements window.StateReader.
func (b *X11) WindowState(id types.WindowID) (window.State, error) {
	states, err := ewmh.WmStateGet(b.xu, xproto.Window(id))
	if err != nil {
		return window.StateNormal, nil
	}
	return stateFromAtoms(states), nil
}

func stateFromAtoms(states []string) window.State {
	var maxH, maxV bool
	for _, s := range states {
		switch s {
		case "_NET_WM_STATE_HIDDEN":
			return window.StateMinimized
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			maxH = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			maxV = true
		}
	}
	if maxH && maxV {
		return window.StateMaximized
	}
	return window.StateNormal
}

// Offset implements window.OffsetReader. Windows without frame extents have
// no decorations.
func (b *X11) Offset(id types.WindowID) (types.Rect, error) {
	extents, err := ewmh.FrameExtentsGet(b.xu, xproto.Window(id))
	if err != nil {
		return types.Rect{}, nil
	}
	return window.OffsetFromExtents(extents.Left, extents.Right, extents.Top, extents.Bottom), nil
}

// Constraints implements window.ConstraintReader from WM_NORMAL_HINTS.
func (b *X11) Constraints(id types.WindowID) (types.Constraints, error) {
	hints, err := icccm.WmNormalHintsGet(b.xu, xproto.Window(id))
	if err != nil {
		return types.Constraints{}, nil
	}
	return constraintsFromHints(hints), nil
}

func constraintsFromHints(h *icccm.NormalHints) types.Constraints {
	var c types.Constraints
	if h.Flags&icccm.SizeHintPMinSize != 0 {
		c.MinWidth = int(h.MinWidth)
		c.MinHeight = int(h.MinHeight)
	}
	if h.Flags&icccm.SizeHintPMaxSize != 0 {
		c.MaxWidth = int(h.MaxWidth)
		c.MaxHeight = int(h.MaxHeight)
	}
	// Only a fixed ratio locks the aspect; a range leaves it free.
	if h.Flags&icccm.SizeHintPAspect != 0 && h.MinAspectDen > 0 &&
		h.MinAspectNum*h.MaxAspectDen == h.MaxAspectNum*h.MinAspectDen {
		c.AspectRatio = float64(h.MinAspectNum) / float64(h.MinAspectDen)
	}
	return c
}

// BeginTransaction implements window.Transactor. The server is grabbed for
// the duration of the commit so no other client sees a half-moved group.
func (b *X11) BeginTransaction() (window.Transaction, error) {
	return &x11Tx{b: b}, nil
}

type x11Tx struct {
	b   *X11
	ops []x11Op
}

type x11Op struct {
	id    types.WindowID
	rect  types.Rect
	flags window.PositionFlags
}

func (tx *x11Tx) SetWindowPos(id types.WindowID, r types.Rect, flags window.PositionFlags) {
	tx.ops = append(tx.ops, x11Op{id: id, rect: r, flags: flags})
}

func (tx *x11Tx) Commit() error {
	conn := tx.b.xu.Conn()
	if err := xproto.GrabServerChecked(conn).Check(); err != nil {
		return fmt.Errorf("grab server: %w", err)
	}
	defer xproto.UngrabServer(conn)

	var errs []error
	for _, op := range tx.ops {
		if err := tx.b.configure(op.id, op.rect, op.flags&window.NoZOrder == 0); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
