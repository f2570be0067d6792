package output

import (
	"math"

	"github.com/yourusername/grid-dock/internal/types"
)

// ScalingContext maps pixel rectangles onto a character canvas
type ScalingContext struct {
	// Bounding box of everything drawn, in pixels
	MinX, MinY float64
	MaxX, MaxY float64

	// Canvas dimensions in characters
	TermWidth  int
	TermHeight int

	ScaleX float64
	ScaleY float64
}

// NewScalingContext fits the bounding box of rects into a termWidth x
// termHeight canvas, keeping a one-character margin. Terminal cells are
// roughly twice as tall as they are wide, which the vertical scale absorbs.
func NewScalingContext(rects []types.Rect, termWidth, termHeight int) *ScalingContext {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, r := range rects {
		minX = math.Min(minX, float64(r.X))
		minY = math.Min(minY, float64(r.Y))
		maxX = math.Max(maxX, float64(r.Right()))
		maxY = math.Max(maxY, float64(r.Bottom()))
	}
	if len(rects) == 0 {
		minX, minY, maxX, maxY = 0, 0, 1920, 1080
	}

	pixelWidth := math.Max(maxX-minX, 1)
	pixelHeight := math.Max(maxY-minY, 1)

	availWidth := max(termWidth-2, 10)
	availHeight := max(termHeight-2, 5)

	scaleX := float64(availWidth-1) / pixelWidth
	// Keep the picture's aspect unless the height would overflow.
	scaleY := math.Min(scaleX/2, float64(availHeight-1)/pixelHeight)

	return &ScalingContext{
		MinX:       minX,
		MinY:       minY,
		MaxX:       maxX,
		MaxY:       maxY,
		TermWidth:  termWidth,
		TermHeight: termHeight,
		ScaleX:     scaleX,
		ScaleY:     scaleY,
	}
}

// PixelToTerminal converts pixel coordinates to canvas coordinates
func (sc *ScalingContext) PixelToTerminal(x, y float64) (int, int) {
	termX := int(math.Round((x - sc.MinX) * sc.ScaleX))
	termY := int(math.Round((y - sc.MinY) * sc.ScaleY))
	return termX + 1, termY + 1
}

// Box converts a rectangle to a canvas box. Both corners are scaled, so
// rectangles sharing an edge in pixels share a column or row on the canvas.
func (sc *ScalingContext) Box(r types.Rect) (x, y, w, h int) {
	x, y = sc.PixelToTerminal(float64(r.X), float64(r.Y))
	right, bottom := sc.PixelToTerminal(float64(r.Right()), float64(r.Bottom()))
	return x, y, max(right-x+1, 2), max(bottom-y+1, 2)
}

// Height returns the number of canvas rows the scaled picture needs
func (sc *ScalingContext) Height() int {
	_, bottom := sc.PixelToTerminal(sc.MaxX, sc.MaxY)
	return min(bottom+2, sc.TermHeight)
}
