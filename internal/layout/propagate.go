package layout

import (
	"math"

	"github.com/yourusername/grid-dock/internal/types"
)

// sides lists every rectangle side in the order propagation seeds are processed.
var sides = [4]types.Direction{types.DirLeft, types.DirRight, types.DirUp, types.DirDown}

// edge identifies one side of one rectangle in a propagation pass.
type edge struct {
	index int
	side  types.Direction
}

// edgeShift is the accumulated displacement recorded for one side of a rectangle.
type edgeShift struct {
	set    bool
	amount int
}

// PropagateMove computes the rectangle every window ends up with when the
// leader at leaderIndex is resized from start by delta.
//
// The leader's four edges move by delta.X (left), delta.X+delta.Width (right),
// delta.Y (top) and delta.Y+delta.Height (bottom). Each moving edge drags along
// every rectangle edge that touches it, and transitively every edge touching
// those, so shared edges stay glued. Only the touching edge of a neighbour
// moves; its far edge stays put. Rectangles that are not connected to a moving
// edge are returned unchanged.
//
// A neighbour that would collapse to a non-positive size is left unmoved and
// does not propagate further. Explicit size limits in limits (parallel to
// rects, may be shorter or nil) clamp the whole edge move to what every
// participant can absorb, the leader included; a non-leader participant with
// an aspect-ratio lock blocks the edge move entirely. A non-leader reached on
// both sides of one axis with different displacements is excluded on that axis.
func PropagateMove(leaderIndex int, start, delta types.Rect, rects []types.Rect, limits []types.Constraints) []types.Rect {
	before := make([]types.Rect, len(rects))
	copy(before, rects)
	if leaderIndex < 0 || leaderIndex >= len(before) {
		return before
	}
	before[leaderIndex] = start

	leaderShift := map[types.Direction]int{
		types.DirLeft:  delta.X,
		types.DirRight: delta.X + delta.Width,
		types.DirUp:    delta.Y,
		types.DirDown:  delta.Y + delta.Height,
	}

	shifts := make([][4]edgeShift, len(before))
	for _, side := range sides {
		amount := leaderShift[side]
		if amount == 0 {
			continue
		}
		seed := edge{index: leaderIndex, side: side}
		members := connectedEdges(before, seed, amount)
		amount = clampToLimits(before, limits, members, leaderIndex, amount)
		if amount == 0 {
			continue
		}
		for _, e := range members {
			shifts[e.index][e.side] = edgeShift{set: true, amount: amount}
		}
	}

	after := make([]types.Rect, len(before))
	for i, r := range before {
		after[i] = resolve(r, shifts[i], i == leaderIndex)
	}
	return after
}

// resolve applies the recorded edge shifts of one rectangle, one axis at a time.
func resolve(r types.Rect, shift [4]edgeShift, leader bool) types.Rect {
	out := r
	for _, axis := range [2][2]types.Direction{
		{types.DirLeft, types.DirRight},
		{types.DirUp, types.DirDown},
	} {
		near, far := shift[axis[0]], shift[axis[1]]
		if !leader && near.set && far.set && near.amount != far.amount {
			continue
		}
		moved := out
		if near.set {
			moved = moved.MoveEdge(axis[0], near.amount)
		}
		if far.set {
			moved = moved.MoveEdge(axis[1], far.amount)
		}
		if moved.Width <= 0 || moved.Height <= 0 {
			continue
		}
		out = moved
	}
	return out
}

// connectedEdges walks every edge glued, directly or through other glued
// edges, to the seed edge. The seed is always the first member.
func connectedEdges(rects []types.Rect, seed edge, amount int) []edge {
	visited := map[edge]bool{seed: true}
	members := []edge{seed}
	queue := []edge{seed}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for j, r := range rects {
			if j == cur.index {
				continue
			}
			next := edge{index: j, side: cur.side.Opposite()}
			if visited[next] || !Touching(rects[cur.index], cur.side, r) {
				continue
			}
			visited[next] = true

			moved := r.MoveEdge(next.side, amount)
			if moved.Width <= 0 || moved.Height <= 0 {
				continue
			}
			members = append(members, next)
			queue = append(queue, next)
		}
	}

	return members
}

// Touching reports whether other's facing edge lies exactly on a's edge on
// side, sharing a segment of positive length. Corner contact does not count.
func Touching(a types.Rect, side types.Direction, other types.Rect) bool {
	if other.Edge(side.Opposite()) != a.Edge(side) {
		return false
	}
	if side.Horizontal() {
		return a.OverlapsVertically(other)
	}
	return a.OverlapsHorizontally(other)
}

// Neighbors returns, per side, the indexes of the rectangles touching rects[i].
func Neighbors(rects []types.Rect, i int) map[types.Direction][]int {
	result := make(map[types.Direction][]int)
	if i < 0 || i >= len(rects) {
		return result
	}
	for _, side := range sides {
		for j, r := range rects {
			if j != i && Touching(rects[i], side, r) {
				result[side] = append(result[side], j)
			}
		}
	}
	return result
}

// clampToLimits reduces amount so every member stays within its size limits.
// It returns 0 when the move cannot be absorbed in the requested direction.
func clampToLimits(rects []types.Rect, limits []types.Constraints, members []edge, leaderIndex, amount int) int {
	lowest, highest := math.MinInt, math.MaxInt

	for _, e := range members {
		var c types.Constraints
		if e.index < len(limits) {
			c = limits[e.index]
		}
		if e.index != leaderIndex && c.AspectRatio > 0 {
			return 0
		}

		horizontal := e.side.Horizontal()
		size := rects[e.index].Height
		if horizontal {
			size = rects[e.index].Width
		}
		lo, hi := c.SizeRange(horizontal)

		// Near edges (left/top) shrink the rect as they advance; far edges grow it.
		if e.side == types.DirLeft || e.side == types.DirUp {
			highest = min(highest, size-lo)
			if hi > 0 {
				lowest = max(lowest, size-hi)
			}
		} else {
			lowest = max(lowest, lo-size)
			if hi > 0 {
				highest = min(highest, hi-size)
			}
		}
	}

	clamped := amount
	if clamped > highest {
		clamped = highest
	}
	if clamped < lowest {
		clamped = lowest
	}
	if (clamped > 0) != (amount > 0) {
		return 0
	}
	return clamped
}
