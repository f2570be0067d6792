package window

import (
	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/types"
)

// Offsets are stored as native minus visible. On X11 the native rect is the
// client area and the visible frame includes the window manager decorations.

// OffsetFromExtents converts frame extents into an offset.
func OffsetFromExtents(left, right, top, bottom int) types.Rect {
	return types.Rect{
		X:      left,
		Y:      top,
		Width:  -(left + right),
		Height: -(top + bottom),
	}
}

// ApplyOffset converts native bounds into visible-frame bounds.
func ApplyOffset(rect, offset types.Rect) types.Rect {
	return rect.Shift(offset.Negate())
}

// RemoveOffset converts visible-frame bounds into native bounds.
func RemoveOffset(visible, offset types.Rect) types.Rect {
	return visible.Shift(offset)
}

// TransactionBounds returns what a window manager expects in a configure
// request for native bounds rect: the outer frame position with the client
// size. Sizes are floored at 1.
func TransactionBounds(rect, offset types.Rect) types.Rect {
	return types.Rect{
		X:      rect.X - offset.X,
		Y:      rect.Y - offset.Y,
		Width:  max(rect.Width, 1),
		Height: max(rect.Height, 1),
	}
}

// EventBounds returns the visible bounds in event payload form.
func EventBounds(rect, offset types.Rect) events.Bounds {
	return events.BoundsFromRect(ApplyOffset(rect, offset))
}

// NormalizeExternalBounds converts requested visible bounds into native
// bounds. The conversion is anchored on the window's current native rect, so
// the result only carries the difference between the requested and current
// visible bounds and does not depend on the offset staying exact across
// window states.
func NormalizeExternalBounds(requested, currentNative, offset types.Rect) types.Rect {
	currentVisible := ApplyOffset(currentNative, offset)
	return currentNative.Shift(currentVisible.Delta(requested))
}
