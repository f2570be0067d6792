package window

import (
	"fmt"

	"github.com/yourusername/grid-dock/internal/types"
)

// Window is a tracked top-level window. Offset and Constraints are captured
// when the window starts being tracked and stay fixed for the whole time it
// belongs to a group.
type Window struct {
	ID          types.WindowID
	Identity    types.Identity
	Offset      types.Rect // native minus visible
	Constraints types.Constraints
}

// Move is one window's prospective or final bounds in native coordinates,
// together with the offset needed to derive its visible bounds.
type Move struct {
	Window *Window
	Rect   types.Rect
	Offset types.Rect
}

// MoveFromWindow reads the window's current native bounds.
func MoveFromWindow(n Native, w *Window) (Move, error) {
	rect, err := n.Bounds(w.ID)
	if err != nil {
		return Move{}, fmt.Errorf("bounds for window %d: %w", w.ID, err)
	}
	return Move{Window: w, Rect: rect, Offset: w.Offset}, nil
}

// Translate returns the move shifted by delta.
func (m Move) Translate(delta types.Rect) Move {
	return Move{Window: m.Window, Rect: m.Rect.Shift(delta), Offset: m.Offset}
}

// Visible returns the move's bounds in visible-frame coordinates.
func (m Move) Visible() types.Rect {
	return ApplyOffset(m.Rect, m.Offset)
}
