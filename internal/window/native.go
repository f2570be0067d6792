package window

import (
	"errors"

	"github.com/yourusername/grid-dock/internal/types"
)

// ErrWindowGone is returned by native backends when a handle no longer
// refers to a live window.
var ErrWindowGone = errors.New("window destroyed")

// Native is the windowing layer this package drives. Bounds are native
// bounds: what the OS reports, possibly including invisible borders.
type Native interface {
	Bounds(id types.WindowID) (types.Rect, error)
	SetBounds(id types.WindowID, bounds types.Rect) error
	BringToFront(id types.WindowID) error
	SetUserMovementEnabled(id types.WindowID, enabled bool) error
}

// PositionFlags control a transactional reposition.
type PositionFlags uint8

const (
	// NoZOrder keeps the window's stacking position.
	NoZOrder PositionFlags = 1 << iota
	// NoActivate keeps focus where it is.
	NoActivate
)

// Transaction collects repositions and applies them in one commit.
type Transaction interface {
	SetWindowPos(id types.WindowID, bounds types.Rect, flags PositionFlags)
	Commit() error
}

// Transactor is implemented by backends offering atomic multi-window repositioning.
type Transactor interface {
	Native
	BeginTransaction() (Transaction, error)
}

// StateReader is implemented by backends that can report maximized/minimized state.
type StateReader interface {
	WindowState(id types.WindowID) (State, error)
}

// ConstraintReader is implemented by backends that expose per-window size hints.
type ConstraintReader interface {
	Constraints(id types.WindowID) (types.Constraints, error)
}

// OffsetReader is implemented by backends whose native bounds differ from the
// visible frame. The returned offset is native minus visible.
type OffsetReader interface {
	Offset(id types.WindowID) (types.Rect, error)
}

// State is a window's display state as reported in begin/end events.
type State string

const (
	StateNormal    State = "normal"
	StateMaximized State = "maximized"
	StateMinimized State = "minimized"
)
