package tracker

import (
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/types"
)

// DefaultInterval is the coalescing cadence of an interactive session.
const DefaultInterval = 60 * time.Millisecond

// Handler does the work the tracker schedules. Every method is called on the
// tracker's goroutine.
type Handler interface {
	// Propagate moves the leader by delta, carries the group along, applies
	// the batch and returns the windows whose bounds changed.
	Propagate(gid types.GroupID, leader types.WindowID, delta types.Rect, bringToFront bool) ([]types.WindowID, error)
	// BeginSession announces the start of an interactive session.
	BeginSession(gid types.GroupID, leader types.WindowID)
	// Progress reports the windows moved by one processed tick.
	Progress(gid types.GroupID, leader types.WindowID, moved []types.WindowID)
	// EndSession reports every window moved during the session.
	EndSession(gid types.GroupID, leader types.WindowID, moved []types.WindowID)
}

// GroupInfo is the interactive state of one group.
type GroupInfo struct {
	BoundsChanging bool
	Leader         types.WindowID
	LastPayload    *types.Rect  // set only while BoundsChanging
	PayloadCache   []types.Rect // raw payloads not yet processed

	moved     []types.WindowID
	movedSeen map[types.WindowID]bool
	stop      func()
}

// Moved returns the windows moved so far in the current session
func (g *GroupInfo) Moved() []types.WindowID {
	return append([]types.WindowID(nil), g.moved...)
}

func (g *GroupInfo) addMoved(ids []types.WindowID) {
	for _, id := range ids {
		if !g.movedSeen[id] {
			g.movedSeen[id] = true
			g.moved = append(g.moved, id)
		}
	}
}

// Tracker runs the Idle -> Changing -> Idle state machine for every group.
// It is not safe for concurrent use; all calls, ticks included, must happen
// on one goroutine.
type Tracker struct {
	handler      Handler
	sched        Scheduler
	interval     time.Duration
	raiseOnStart bool
	groups       map[types.GroupID]*GroupInfo
}

// Option configures a Tracker
type Option func(*Tracker)

// WithInterval sets the coalescing cadence
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithRaiseOnStart controls whether the first batch of a session raises the
// moved windows.
func WithRaiseOnStart(raise bool) Option {
	return func(t *Tracker) { t.raiseOnStart = raise }
}

// New creates a tracker
func New(h Handler, sched Scheduler, opts ...Option) *Tracker {
	t := &Tracker{
		handler:      h,
		sched:        sched,
		interval:     DefaultInterval,
		raiseOnStart: true,
		groups:       make(map[types.GroupID]*GroupInfo),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Info returns a group's state, nil if the group has had no activity
func (t *Tracker) Info(gid types.GroupID) *GroupInfo {
	return t.groups[gid]
}

// IsChanging reports whether gid is in an interactive session
func (t *Tracker) IsChanging(gid types.GroupID) bool {
	info := t.groups[gid]
	return info != nil && info.BoundsChanging
}

func (t *Tracker) info(gid types.GroupID) *GroupInfo {
	info, ok := t.groups[gid]
	if !ok {
		info = &GroupInfo{}
		t.groups[gid] = info
	}
	return info
}

// Changing handles a native bounds-changing event. start is the leader's
// native rect before the event, raw the rect the event reports.
func (t *Tracker) Changing(gid types.GroupID, leader types.WindowID, start, raw types.Rect) {
	info := t.info(gid)

	if info.BoundsChanging {
		if leader != info.Leader {
			logging.Debug().
				Str("group", string(gid)).
				Uint32("window", uint32(leader)).
				Uint32("leader", uint32(info.Leader)).
				Msg("Ignoring bounds-changing from non-leader during session")
			return
		}
		info.PayloadCache = append(info.PayloadCache, raw)
		return
	}

	t.begin(gid, info, leader, start, raw)
}

func (t *Tracker) begin(gid types.GroupID, info *GroupInfo, leader types.WindowID, start, raw types.Rect) {
	moved, err := t.propagate(gid, leader, start.Delta(raw), t.raiseOnStart)
	if err != nil {
		logging.Error().
			Err(err).
			Str("group", string(gid)).
			Uint32("leader", uint32(leader)).
			Msg("Failed to apply first move of session")
	}

	last := raw
	info.BoundsChanging = true
	info.Leader = leader
	info.LastPayload = &last
	info.PayloadCache = nil
	info.moved = nil
	info.movedSeen = make(map[types.WindowID]bool)
	info.addMoved(moved)
	info.stop = t.sched.Every(t.interval, func() { t.Tick(gid) })

	logging.Debug().
		Str("group", string(gid)).
		Uint32("leader", uint32(leader)).
		Str("from", start.String()).
		Str("to", raw.String()).
		Msg("Bounds session started")

	t.handler.BeginSession(gid, leader)
}

// Tick processes the most recent cached payload and discards older ones.
func (t *Tracker) Tick(gid types.GroupID) {
	info := t.groups[gid]
	if info == nil || !info.BoundsChanging || len(info.PayloadCache) == 0 {
		return
	}

	raw := info.PayloadCache[len(info.PayloadCache)-1]
	info.PayloadCache = info.PayloadCache[:0]
	delta := info.LastPayload.Delta(raw)
	info.LastPayload = &raw
	if delta.IsZero() {
		return
	}

	moved, err := t.propagate(gid, info.Leader, delta, false)
	if err != nil {
		logging.Error().
			Err(err).
			Str("group", string(gid)).
			Uint32("leader", uint32(info.Leader)).
			Msg("Failed to process bounds tick")
		return
	}
	if len(moved) == 0 {
		return
	}
	info.addMoved(moved)
	t.handler.Progress(gid, info.Leader, moved)
}

// Changed handles the native end-of-drag event. A drag end for an idle group
// is processed as a complete one-step session.
func (t *Tracker) Changed(gid types.GroupID, leader types.WindowID, start, raw types.Rect) {
	info := t.info(gid)
	if !info.BoundsChanging {
		t.begin(gid, info, leader, start, raw)
		t.finish(gid, info, nil)
		return
	}
	if leader != info.Leader {
		logging.Debug().
			Str("group", string(gid)).
			Uint32("window", uint32(leader)).
			Msg("Ignoring bounds-changed from non-leader during session")
		return
	}
	t.finish(gid, info, &raw)
}

// Abort ends a running session without a final move, e.g. because its
// leader went away.
func (t *Tracker) Abort(gid types.GroupID) {
	info := t.groups[gid]
	if info == nil || !info.BoundsChanging {
		return
	}
	t.finish(gid, info, nil)
}

// Exclude drops a window from the current session's moved set.
func (t *Tracker) Exclude(gid types.GroupID, w types.WindowID) {
	info := t.groups[gid]
	if info == nil || !info.movedSeen[w] {
		return
	}
	delete(info.movedSeen, w)
	for i, id := range info.moved {
		if id == w {
			info.moved = append(info.moved[:i], info.moved[i+1:]...)
			break
		}
	}
}

// Forget discards a group's state when it disbands.
func (t *Tracker) Forget(gid types.GroupID) {
	info := t.groups[gid]
	if info == nil {
		return
	}
	if info.stop != nil {
		info.stop()
	}
	delete(t.groups, gid)
}

// finish applies the final payload, if any, and always returns the group to
// Idle before reporting the session end.
func (t *Tracker) finish(gid types.GroupID, info *GroupInfo, final *types.Rect) {
	leader := info.Leader

	func() {
		defer func() {
			if info.stop != nil {
				info.stop()
				info.stop = nil
			}
			info.BoundsChanging = false
			info.LastPayload = nil
			info.PayloadCache = nil
		}()

		if final == nil {
			return
		}
		delta := info.LastPayload.Delta(*final)
		if delta.IsZero() {
			return
		}
		moved, err := t.propagate(gid, leader, delta, false)
		if err != nil {
			logging.Error().
				Err(err).
				Str("group", string(gid)).
				Uint32("leader", uint32(leader)).
				Msg("Failed to apply final move of session")
			return
		}
		info.addMoved(moved)
	}()

	moved := info.moved
	info.moved = nil
	info.movedSeen = nil

	logging.Debug().
		Str("group", string(gid)).
		Uint32("leader", uint32(leader)).
		Int("moved", len(moved)).
		Msg("Bounds session ended")

	t.handler.EndSession(gid, leader, moved)
}

// propagate calls the handler and turns a panic into an error.
func (t *Tracker) propagate(gid types.GroupID, leader types.WindowID, delta types.Rect, front bool) (moved []types.WindowID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during propagation: %v", r)
		}
	}()
	return t.handler.Propagate(gid, leader, delta, front)
}
