package types

import "fmt"

// WindowID is a native window handle (X11 window id, GridServer window id).
type WindowID uint32

// GroupID is an opaque group identity token.
type GroupID string

// Identity names a window for event delivery, independent of its native handle.
type Identity struct {
	UUID string `json:"uuid" yaml:"uuid"` // Owning application
	Name string `json:"name" yaml:"name"` // Window name within the application
}

// String returns "uuid/name"
func (id Identity) String() string {
	return id.UUID + "/" + id.Name
}

// Rect represents integer device-pixel bounds. Rect is a value type; every
// operation returns a new Rect.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Point represents a 2D coordinate
type Point struct {
	X int
	Y int
}

// Right returns the x coordinate of the right edge (exclusive)
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge (exclusive)
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Shift returns r with every component of delta added.
func (r Rect) Shift(delta Rect) Rect {
	return Rect{
		X:      r.X + delta.X,
		Y:      r.Y + delta.Y,
		Width:  r.Width + delta.Width,
		Height: r.Height + delta.Height,
	}
}

// Delta returns the componentwise difference other - r, so that
// r.Shift(r.Delta(other)) == other.
func (r Rect) Delta(other Rect) Rect {
	return Rect{
		X:      other.X - r.X,
		Y:      other.Y - r.Y,
		Width:  other.Width - r.Width,
		Height: other.Height - r.Height,
	}
}

// Moved reports whether any component of other differs from r.
func (r Rect) Moved(other Rect) bool {
	return r != other
}

// Negate returns the inverse delta.
func (r Rect) Negate() Rect {
	return Rect{X: -r.X, Y: -r.Y, Width: -r.Width, Height: -r.Height}
}

// IsZero reports whether all components are zero.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Center returns the center point of a Rect
func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Intersect returns the overlapping region of r and other, and false when
// they do not overlap with positive area.
func (r Rect) Intersect(other Rect) (Rect, bool) {
	left := max(r.X, other.X)
	right := min(r.Right(), other.Right())
	top := max(r.Y, other.Y)
	bottom := min(r.Bottom(), other.Bottom())

	if left >= right || top >= bottom {
		return Rect{}, false
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// OverlapsVertically reports whether the y spans of r and other share a
// segment of positive length.
func (r Rect) OverlapsVertically(other Rect) bool {
	return r.Y < other.Bottom() && other.Y < r.Bottom()
}

// OverlapsHorizontally reports whether the x spans of r and other share a
// segment of positive length.
func (r Rect) OverlapsHorizontally(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right()
}

// Edge returns the coordinate of the edge on side d.
func (r Rect) Edge(d Direction) int {
	switch d {
	case DirLeft:
		return r.X
	case DirRight:
		return r.Right()
	case DirUp:
		return r.Y
	default:
		return r.Bottom()
	}
}

// MoveEdge returns r with the edge on side d displaced by amount, keeping the
// opposite edge fixed.
func (r Rect) MoveEdge(d Direction, amount int) Rect {
	switch d {
	case DirLeft:
		r.X += amount
		r.Width -= amount
	case DirRight:
		r.Width += amount
	case DirUp:
		r.Y += amount
		r.Height -= amount
	default:
		r.Height += amount
	}
	return r
}

// String returns "{x,y,width,height}"
func (r Rect) String() string {
	return fmt.Sprintf("{%d,%d,%d,%d}", r.X, r.Y, r.Width, r.Height)
}

// PartialRect is a bounds request where nil components keep their current value.
type PartialRect struct {
	X      *int `json:"x,omitempty"`
	Y      *int `json:"y,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Over returns base with every non-nil component of p applied.
func (p PartialRect) Over(base Rect) Rect {
	if p.X != nil {
		base.X = *p.X
	}
	if p.Y != nil {
		base.Y = *p.Y
	}
	if p.Width != nil {
		base.Width = *p.Width
	}
	if p.Height != nil {
		base.Height = *p.Height
	}
	return base
}

// IsEmpty reports whether no component is set.
func (p PartialRect) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil
}

// Constraints are a window's own size limits. Zero max values are unbounded,
// a zero AspectRatio disables the aspect lock.
type Constraints struct {
	MinWidth    int     `json:"minWidth,omitempty" yaml:"minWidth,omitempty"`
	MinHeight   int     `json:"minHeight,omitempty" yaml:"minHeight,omitempty"`
	MaxWidth    int     `json:"maxWidth,omitempty" yaml:"maxWidth,omitempty"`
	MaxHeight   int     `json:"maxHeight,omitempty" yaml:"maxHeight,omitempty"`
	AspectRatio float64 `json:"aspectRatio,omitempty" yaml:"aspectRatio,omitempty"`
}

// SizeRange returns the permitted [lo, hi] size along one axis. Sizes are
// never allowed below 1; hi is -1 when unbounded.
func (c Constraints) SizeRange(horizontal bool) (lo, hi int) {
	if horizontal {
		lo, hi = c.MinWidth, c.MaxWidth
	} else {
		lo, hi = c.MinHeight, c.MaxHeight
	}
	if lo < 1 {
		lo = 1
	}
	if hi <= 0 {
		hi = -1
	}
	return lo, hi
}

// Merge returns c with every non-zero field of override applied.
func (c Constraints) Merge(override Constraints) Constraints {
	if override.MinWidth != 0 {
		c.MinWidth = override.MinWidth
	}
	if override.MinHeight != 0 {
		c.MinHeight = override.MinHeight
	}
	if override.MaxWidth != 0 {
		c.MaxWidth = override.MaxWidth
	}
	if override.MaxHeight != 0 {
		c.MaxHeight = override.MaxHeight
	}
	if override.AspectRatio != 0 {
		c.AspectRatio = override.AspectRatio
	}
	return c
}

// Direction names a side of a rectangle
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "unknown"
	}
}

// Opposite returns the facing side (left <-> right, up <-> down).
func (d Direction) Opposite() Direction {
	switch d {
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirUp:
		return DirDown
	default:
		return DirUp
	}
}

// Horizontal reports whether the side lies on the x axis (left/right).
func (d Direction) Horizontal() bool {
	return d == DirLeft || d == DirRight
}

// ParseDirection converts a string to Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	default:
		return 0, false
	}
}

// ChangeType classifies a bounds change for event payloads.
type ChangeType int

const (
	ChangePosition ChangeType = iota
	ChangeSize
	ChangePositionAndSize
)

// String returns the string representation of a ChangeType
func (c ChangeType) String() string {
	switch c {
	case ChangePosition:
		return "position"
	case ChangeSize:
		return "size"
	case ChangePositionAndSize:
		return "position-and-size"
	default:
		return "unknown"
	}
}

// ClassifyDelta derives the change type of a bounds delta. An x (or y) change
// that is fully compensated by the width (height) change is a left (top)
// edge resize, not a move.
func ClassifyDelta(delta Rect) ChangeType {
	moved := (delta.X != 0 && delta.X+delta.Width != 0) || (delta.Y != 0 && delta.Y+delta.Height != 0)
	resized := delta.Width != 0 || delta.Height != 0
	switch {
	case !resized:
		return ChangePosition
	case moved:
		return ChangePositionAndSize
	default:
		return ChangeSize
	}
}
