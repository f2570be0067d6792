package group

import (
	"errors"
	"fmt"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// NativeEventKind distinguishes an in-progress drag from its end.
type NativeEventKind int

const (
	NativeChanging NativeEventKind = iota
	NativeChanged
)

// String returns "changing" or "changed"
func (k NativeEventKind) String() string {
	if k == NativeChanged {
		return "changed"
	}
	return "changing"
}

// NativeEvent is a bounds notification from the native layer.
type NativeEvent struct {
	Kind   NativeEventKind
	Window types.WindowID
	Bounds types.Rect // native bounds the user dragged to
	// Previous is the native rect before the drag, when the backend knows
	// it. Backends that let the OS move the leader must set it.
	Previous types.Rect
}

// HandleNativeEvent feeds a native drag event into the group's state machine.
// Events for windows that are not in a group are ignored.
func (c *Coordinator) HandleNativeEvent(ev NativeEvent) {
	if !c.listening[ev.Window] {
		return
	}
	gid, ok := c.registry.GroupOf(ev.Window)
	if !ok {
		return
	}

	var start types.Rect
	if !c.tracker.IsChanging(gid) {
		start = ev.Previous
		if start.IsZero() {
			current, err := c.native.Bounds(ev.Window)
			if err != nil {
				logging.Warn().Err(err).Uint32("window", uint32(ev.Window)).Msg("Dropping native event for unreadable window")
				return
			}
			start = current
		}
		c.sessions[gid] = &session{
			leaderRect: start,
			start:      make(map[types.WindowID]types.Rect),
		}
	}

	switch ev.Kind {
	case NativeChanging:
		c.tracker.Changing(gid, ev.Window, start, ev.Bounds)
	case NativeChanged:
		c.tracker.Changed(gid, ev.Window, start, ev.Bounds)
	}
}

// Propagate implements tracker.Handler.
func (c *Coordinator) Propagate(gid types.GroupID, leader types.WindowID, delta types.Rect, bringToFront bool) ([]types.WindowID, error) {
	s := c.sessions[gid]
	if s == nil {
		return nil, fmt.Errorf("no session for group %s", gid)
	}

	leaderRect := s.leaderRect
	p, err := c.computePass(leader, &leaderRect, delta, true)
	if err != nil || p == nil {
		return nil, err
	}

	s.leaderRect = p.after[p.leader].Rect
	for _, m := range p.before {
		if _, ok := s.start[m.Window.ID]; !ok {
			s.start[m.Window.ID] = m.Rect
		}
	}

	moves := p.moves()
	if err := c.exec.Apply(moves, bringToFront); err != nil {
		if !errors.Is(err, window.ErrWindowGone) {
			return nil, err
		}
		logging.Warn().Err(err).Str("group", string(gid)).Msg("Group member went away during batch")
		moves = c.live(moves)
	}

	ids := make([]types.WindowID, len(moves))
	for i, m := range moves {
		ids[i] = m.Window.ID
	}
	return ids, nil
}

// BeginSession implements tracker.Handler.
func (c *Coordinator) BeginSession(gid types.GroupID, leader types.WindowID) {
	if ev, ok := c.userBoundsEvent(gid, leader, events.BeginUserBoundsChanging); ok {
		c.dispatch([]events.Event{ev})
	}
}

// userBoundsEvent builds a begin/end event for a session leader that is
// still tracked.
func (c *Coordinator) userBoundsEvent(gid types.GroupID, leader types.WindowID, name events.Name) (events.Event, bool) {
	w, ok := c.windows[leader]
	s := c.sessions[gid]
	if !ok || s == nil {
		return events.Event{}, false
	}
	visible := window.ApplyOffset(s.leaderRect, w.Offset)
	state := window.ReadState(c.native, leader)
	return events.NewUserBoundsEvent(name, w.Identity, visible, string(state)), true
}

// Progress implements tracker.Handler.
func (c *Coordinator) Progress(gid types.GroupID, leader types.WindowID, moved []types.WindowID) {
	c.dispatch(c.boundsEvents(gid, leader, moved, events.BoundsChanging))
}

// EndSession implements tracker.Handler.
func (c *Coordinator) EndSession(gid types.GroupID, leader types.WindowID, moved []types.WindowID) {
	evs := c.boundsEvents(gid, leader, moved, events.BoundsChanged)
	if ev, ok := c.userBoundsEvent(gid, leader, events.EndUserBoundsChanging); ok {
		evs = append(evs, ev)
	}
	c.dispatch(evs)
	delete(c.sessions, gid)

	c.applyPending(gid)
	c.dispatch(c.TakeEvents())
}

// boundsEvents builds one event per moved window that is still tracked. The
// change type covers the whole session so far.
func (c *Coordinator) boundsEvents(gid types.GroupID, leader types.WindowID, moved []types.WindowID, name events.Name) []events.Event {
	s := c.sessions[gid]
	var out []events.Event
	for _, id := range moved {
		w, ok := c.windows[id]
		if !ok {
			continue
		}
		var current types.Rect
		if id == leader && s != nil {
			current = s.leaderRect
		} else {
			r, err := c.native.Bounds(id)
			if err != nil {
				continue
			}
			current = r
		}
		var delta types.Rect
		if s != nil {
			if start, ok := s.start[id]; ok {
				delta = start.Delta(current)
			}
		}
		reason := events.ReasonGroup
		if id == leader {
			reason = events.ReasonSelf
		}
		out = append(out, events.NewBoundsEvent(name, w.Identity, window.ApplyOffset(current, w.Offset), delta, reason, false))
	}
	return out
}
