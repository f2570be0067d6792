package group

import (
	"errors"
	"fmt"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/layout"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// MoveResult is the outcome of an explicit move or resize.
type MoveResult struct {
	Bounds types.Rect       // leader's visible bounds after the move
	Moved  []types.WindowID // every window whose bounds changed, leader first
}

// pass is one computed propagation: every member's native rect before and
// after, with the leader at index leader.
type pass struct {
	leader int
	before []window.Move
	after  []window.Move
}

// moves returns the members whose rect changed, leader first.
func (p pass) moves() []window.Move {
	var out []window.Move
	if p.after[p.leader].Rect != p.before[p.leader].Rect {
		out = append(out, p.after[p.leader])
	}
	for i := range p.after {
		if i != p.leader && p.after[i].Rect != p.before[i].Rect {
			out = append(out, p.after[i])
		}
	}
	return out
}

// members returns the tracked windows moving with id: its group, or just
// itself when ungrouped.
func (c *Coordinator) members(id types.WindowID) []types.WindowID {
	if siblings := c.registry.Siblings(id); siblings != nil {
		return siblings
	}
	return []types.WindowID{id}
}

// computePass reads the current rect of every tracked member and works out
// where each one goes when the leader changes by delta. leaderRect, when
// non-nil, replaces the leader's native rect as the starting point. It
// returns a nil pass when the leader is gone.
func (c *Coordinator) computePass(leaderID types.WindowID, leaderRect *types.Rect, delta types.Rect, interactive bool) (*pass, error) {
	p := &pass{leader: -1}
	for _, id := range c.members(leaderID) {
		w, ok := c.windows[id]
		if !ok {
			continue
		}
		var (
			m   window.Move
			err error
		)
		if id == leaderID && leaderRect != nil {
			m = window.Move{Window: w, Rect: *leaderRect, Offset: w.Offset}
		} else if m, err = window.MoveFromWindow(c.native, w); err != nil {
			if !errors.Is(err, window.ErrWindowGone) {
				return nil, err
			}
			if id == leaderID {
				return nil, nil
			}
			logging.Debug().Uint32("window", uint32(id)).Msg("Skipping destroyed group member")
			continue
		}
		if id == leaderID {
			p.leader = len(p.before)
		}
		p.before = append(p.before, m)
	}
	if p.leader < 0 {
		return nil, nil
	}

	resize, translate := decompose(delta, interactive)

	rects := make([]types.Rect, len(p.before))
	limits := make([]types.Constraints, len(p.before))
	for i, m := range p.before {
		rects[i] = m.Rect
		limits[i] = m.Window.Constraints
	}

	start := rects[p.leader]
	result := rects
	if !resize.IsZero() {
		result = layout.PropagateMove(p.leader, start, resize, rects, limits)
		if !sane(start, result[p.leader]) {
			logging.Debug().
				Uint32("leader", uint32(leaderID)).
				Str("delta", delta.String()).
				Msg("Discarding resize that moved the leader without resizing it")
			result = rects
		}
	}

	p.after = make([]window.Move, len(p.before))
	for i, m := range p.before {
		p.after[i] = window.Move{Window: m.Window, Rect: result[i], Offset: m.Offset}.Translate(translate)
	}
	return p, nil
}

// decompose splits delta into a resize, propagated along shared edges, and
// a translation applied to the whole group. Native drag events that both
// move and resize are treated as just a resize, because the native layer
// reports a move alongside every left or top edge resize.
func decompose(delta types.Rect, interactive bool) (resize, translate types.Rect) {
	if interactive && types.ClassifyDelta(delta) == types.ChangePositionAndSize {
		return delta, types.Rect{}
	}

	var xShift, yShift int
	if delta.X != 0 {
		xShift = delta.X + delta.Width
	}
	if delta.Y != 0 {
		yShift = delta.Y + delta.Height
	}
	resize = types.Rect{
		X:      delta.X - xShift,
		Y:      delta.Y - yShift,
		Width:  delta.Width,
		Height: delta.Height,
	}
	return resize, types.Rect{X: xShift, Y: yShift}
}

// sane rejects a resize result whose origin moved on an axis whose size did not change.
func sane(before, after types.Rect) bool {
	if after.X != before.X && after.Width == before.Width {
		return false
	}
	if after.Y != before.Y && after.Height == before.Height {
		return false
	}
	return true
}

// UpdateGroupedWindowBounds moves or resizes id by delta and carries its
// group along. It returns nil when nothing was applied because the window is
// gone or delta is empty. The move is rejected as a whole with
// ErrConstraintViolation when the window cannot get exactly the requested
// bounds, and with ErrSessionActive while its group is being dragged.
func (c *Coordinator) UpdateGroupedWindowBounds(id types.WindowID, delta types.Rect) (*MoveResult, error) {
	if _, ok := c.windows[id]; !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrNotTracked)
	}
	if gid, ok := c.registry.GroupOf(id); ok && c.tracker.IsChanging(gid) {
		return nil, fmt.Errorf("window %d: %w", id, ErrSessionActive)
	}
	if delta.IsZero() {
		return nil, nil
	}

	p, err := c.computePass(id, nil, delta, false)
	if err != nil {
		return nil, err
	}
	if p == nil {
		logging.Debug().Uint32("window", uint32(id)).Msg("Move target is gone, nothing to do")
		return nil, nil
	}

	leader := p.after[p.leader]
	if requested := p.before[p.leader].Rect.Shift(delta); leader.Rect != requested {
		logging.Info().
			Uint32("window", uint32(id)).
			Str("requested", requested.String()).
			Str("result", leader.Rect.String()).
			Msg("Rejecting move that violates group constraints")
		return nil, ErrConstraintViolation
	}

	moves := p.moves()
	if err := c.exec.Apply(moves, false); err != nil {
		logging.Error().Err(err).Uint32("window", uint32(id)).Int("moves", len(moves)).Msg("Failed to apply group move")
		if errors.Is(err, window.ErrWindowGone) {
			moves = c.live(moves)
		}
	}

	res := &MoveResult{Bounds: leader.Visible()}
	for i, m := range moves {
		res.Moved = append(res.Moved, m.Window.ID)
		reason := events.ReasonGroup
		if i == 0 && m.Window.ID == id {
			reason = events.ReasonSelf
		}
		before := c.beforeRect(p, m.Window.ID)
		c.outbox = append(c.outbox, events.NewBoundsEvent(
			events.BoundsChanged, m.Window.Identity, m.Visible(), before.Delta(m.Rect), reason, true))
	}
	return res, nil
}

// SetNewGroupedWindowBounds sets id's visible bounds. Nil components of
// bounds keep their current value.
func (c *Coordinator) SetNewGroupedWindowBounds(id types.WindowID, bounds types.PartialRect) (*MoveResult, error) {
	w, ok := c.windows[id]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrNotTracked)
	}

	current, err := c.native.Bounds(id)
	if err != nil {
		if errors.Is(err, window.ErrWindowGone) {
			return nil, nil
		}
		return nil, err
	}

	requested := bounds.Over(window.ApplyOffset(current, w.Offset))
	native := window.NormalizeExternalBounds(requested, current, w.Offset)
	return c.UpdateGroupedWindowBounds(id, current.Delta(native))
}

func (c *Coordinator) beforeRect(p *pass, id types.WindowID) types.Rect {
	for _, m := range p.before {
		if m.Window.ID == id {
			return m.Rect
		}
	}
	return types.Rect{}
}

// live drops the moves of windows that no longer exist.
func (c *Coordinator) live(moves []window.Move) []window.Move {
	out := moves[:0]
	for _, m := range moves {
		if _, err := c.native.Bounds(m.Window.ID); errors.Is(err, window.ErrWindowGone) {
			continue
		}
		out = append(out, m)
	}
	return out
}
