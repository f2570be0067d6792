package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/grid-dock/internal/batch"
	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/state"
	"github.com/yourusername/grid-dock/internal/tracker"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

var (
	// ErrConstraintViolation is returned when propagation cannot give the
	// requested window the exact bounds it asked for.
	ErrConstraintViolation = errors.New("attempted move violates group constraints")
	// ErrNotTracked is returned for windows the coordinator does not know.
	ErrNotTracked = errors.New("window is not tracked")
	// ErrSessionActive is returned for an explicit move of a window whose
	// group is being dragged.
	ErrSessionActive = errors.New("group is being moved interactively")
)

// remoteEmitTimeout bounds a forwarded event sent from the interactive path,
// where nobody waits for the result.
const remoteEmitTimeout = 5 * time.Second

// remoteChecker is implemented by sinks that forward some identities to
// another runtime.
type remoteChecker interface {
	IsRemote(id types.Identity) bool
}

// Coordinator owns all group state: tracked windows, membership, the
// per-group interactive sessions and the membership operations deferred
// until a session ends. It is not safe for concurrent use; drive it from a
// Loop.
type Coordinator struct {
	native   window.Native
	exec     batch.Executor
	registry *state.Registry
	tracker  *tracker.Tracker
	sink     events.Sink

	windows   map[types.WindowID]*window.Window
	listening map[types.WindowID]bool
	sessions  map[types.GroupID]*session
	pending   map[types.GroupID][]membershipOp
	outbox    []events.Event
}

// session is the coordinator's view of one interactive drag.
type session struct {
	leaderRect types.Rect                    // leader's native rect as last propagated
	start      map[types.WindowID]types.Rect // native rect before the first move
}

// NewCoordinator creates a coordinator. opts configure the interactive
// state tracker.
func NewCoordinator(native window.Native, sink events.Sink, sched tracker.Scheduler, opts ...tracker.Option) *Coordinator {
	if sink == nil {
		sink = events.Discard
	}
	c := &Coordinator{
		native:    native,
		exec:      batch.New(native),
		registry:  state.NewRegistry(),
		sink:      sink,
		windows:   make(map[types.WindowID]*window.Window),
		listening: make(map[types.WindowID]bool),
		sessions:  make(map[types.GroupID]*session),
		pending:   make(map[types.GroupID][]membershipOp),
	}
	c.tracker = tracker.New(c, sched, opts...)
	return c
}

// Registry exposes group membership for read-only queries
func (c *Coordinator) Registry() *state.Registry {
	return c.registry
}

// Executor returns the batch executor in use
func (c *Coordinator) Executor() batch.Executor {
	return c.exec
}

// Window returns a tracked window
func (c *Coordinator) Window(id types.WindowID) (*window.Window, bool) {
	w, ok := c.windows[id]
	return w, ok
}

// IsChanging reports whether the group has an interactive session running
func (c *Coordinator) IsChanging(gid types.GroupID) bool {
	return c.tracker.IsChanging(gid)
}

// TakeEvents returns and clears the events produced by API calls since the
// last call. The caller is responsible for emitting them.
func (c *Coordinator) TakeEvents() []events.Event {
	out := c.outbox
	c.outbox = nil
	return out
}

// Register starts tracking a window. Registering a known window replaces
// its description.
func (c *Coordinator) Register(w *window.Window) {
	c.windows[w.ID] = w
	logging.Info().
		Uint32("window", uint32(w.ID)).
		Str("identity", w.Identity.String()).
		Str("offset", w.Offset.String()).
		Msg("Window tracked")
}

// AddWindowToGroup hands the window's interactive moves to the coordinator:
// OS user movement is disabled and native events for it are processed.
func (c *Coordinator) AddWindowToGroup(id types.WindowID) error {
	if _, ok := c.windows[id]; !ok {
		return ErrNotTracked
	}
	if c.listening[id] {
		return nil
	}
	if err := c.native.SetUserMovementEnabled(id, false); err != nil {
		return fmt.Errorf("disable user movement for window %d: %w", id, err)
	}
	c.listening[id] = true
	return nil
}

// RemoveWindowFromGroup gives interactive moves back to the OS. It is a
// no-op for windows that are not listening.
func (c *Coordinator) RemoveWindowFromGroup(id types.WindowID) {
	if !c.listening[id] {
		return
	}
	delete(c.listening, id)
	err := c.native.SetUserMovementEnabled(id, true)
	if err != nil && !errors.Is(err, window.ErrWindowGone) {
		logging.Warn().Err(err).Uint32("window", uint32(id)).Msg("Failed to re-enable user movement")
	}
}

// Unregister stops tracking a window. It is excluded from every batch at
// once; when its group is mid-session the membership change itself is
// deferred until the session ends. The result reports whether it was.
func (c *Coordinator) Unregister(id types.WindowID) (bool, error) {
	if _, ok := c.windows[id]; !ok {
		return false, ErrNotTracked
	}
	c.RemoveWindowFromGroup(id)
	delete(c.windows, id)
	logging.Info().Uint32("window", uint32(id)).Msg("Window untracked")
	return c.detach(id), nil
}

// WindowDestroyed drops a window whose native handle is gone.
func (c *Coordinator) WindowDestroyed(id types.WindowID) {
	if _, ok := c.windows[id]; !ok {
		return
	}
	delete(c.listening, id)
	delete(c.windows, id)
	logging.Info().Uint32("window", uint32(id)).Msg("Tracked window destroyed")
	c.detach(id)
}

// detach removes an already forgotten window from its group, deferring the
// registry change if the group is mid-session.
func (c *Coordinator) detach(id types.WindowID) bool {
	gid, grouped := c.registry.GroupOf(id)
	if !grouped {
		return false
	}

	op := membershipOp{action: state.ActionLeave, window: id}
	if !c.tracker.IsChanging(gid) {
		c.applyMembership(op, false)
		return false
	}

	c.tracker.Exclude(gid, id)
	c.pending[gid] = append(c.pending[gid], op)
	if info := c.tracker.Info(gid); info != nil && info.Leader == id {
		// Ending the session applies the queued leave.
		c.tracker.Abort(gid)
		return false
	}
	return true
}

// membershipOp is a join, merge or leave, possibly waiting for a session to end.
type membershipOp struct {
	action state.Action
	window types.WindowID
	target types.WindowID
}

// JoinGroup puts window into target's group
func (c *Coordinator) JoinGroup(window, target types.WindowID) (types.GroupID, bool, error) {
	return c.membership(membershipOp{action: state.ActionJoin, window: window, target: target})
}

// MergeGroups merges window's group into target's group
func (c *Coordinator) MergeGroups(window, target types.WindowID) (types.GroupID, bool, error) {
	return c.membership(membershipOp{action: state.ActionMerge, window: window, target: target})
}

// LeaveGroup removes window from its group
func (c *Coordinator) LeaveGroup(window types.WindowID) (types.GroupID, bool, error) {
	return c.membership(membershipOp{action: state.ActionLeave, window: window})
}

// membership applies op now, or queues it when one of the groups involved
// is mid-session. It returns the resulting group and whether op was queued.
func (c *Coordinator) membership(op membershipOp) (types.GroupID, bool, error) {
	if _, ok := c.windows[op.window]; !ok {
		return "", false, fmt.Errorf("window %d: %w", op.window, ErrNotTracked)
	}
	involved := []types.WindowID{op.window}
	if op.action != state.ActionLeave {
		if _, ok := c.windows[op.target]; !ok {
			return "", false, fmt.Errorf("window %d: %w", op.target, ErrNotTracked)
		}
		involved = append(involved, op.target)
	} else if _, ok := c.registry.GroupOf(op.window); !ok {
		return "", false, state.ErrNotGrouped
	}

	for _, w := range involved {
		if gid, ok := c.registry.GroupOf(w); ok && c.tracker.IsChanging(gid) {
			c.pending[gid] = append(c.pending[gid], op)
			logging.Info().
				Str("action", string(op.action)).
				Uint32("window", uint32(op.window)).
				Str("group", string(gid)).
				Msg("Membership change deferred until bounds session ends")
			return gid, true, nil
		}
	}

	change, err := c.applyMembership(op, false)
	if err != nil {
		return "", false, err
	}
	return change.Target, false, nil
}

// applyMembership performs op on the registry, updates listening windows and
// queues group-changed events.
func (c *Coordinator) applyMembership(op membershipOp, deferred bool) (state.Change, error) {
	var (
		change state.Change
		err    error
	)
	switch op.action {
	case state.ActionJoin:
		change, err = c.registry.JoinGroup(op.window, op.target)
	case state.ActionMerge:
		change, err = c.registry.MergeGroups(op.window, op.target)
	default:
		change, err = c.registry.LeaveGroup(op.window)
	}
	if err != nil {
		return state.Change{}, err
	}

	if change.Target != "" {
		for _, w := range change.Members {
			if err := c.AddWindowToGroup(w); err != nil && !errors.Is(err, ErrNotTracked) {
				logging.Warn().Err(err).Uint32("window", uint32(w)).Msg("Failed to start tracking window moves")
			}
		}
	}
	for _, w := range change.Ungrouped {
		c.RemoveWindowFromGroup(w)
	}
	if change.Action == state.ActionDisband || change.Action == state.ActionMerge {
		if change.Source != "" && c.registry.GetGroup(change.Source) == nil {
			c.tracker.Forget(change.Source)
			delete(c.sessions, change.Source)
		}
	}

	logging.Info().
		Str("action", string(change.Action)).
		Uint32("window", uint32(change.Window)).
		Str("source", string(change.Source)).
		Str("target", string(change.Target)).
		Int("members", len(change.Members)).
		Bool("deferred", deferred).
		Msg("Group membership changed")

	c.outbox = append(c.outbox, c.groupChangedEvents(change, deferred)...)
	return change, nil
}

// groupChangedEvents builds one group-changed event per tracked window the
// change touched.
func (c *Coordinator) groupChangedEvents(change state.Change, deferred bool) []events.Event {
	var members []types.Identity
	for _, id := range change.Members {
		if w, ok := c.windows[id]; ok {
			members = append(members, w.Identity)
		}
	}

	notify := append([]types.WindowID{change.Window}, change.Members...)
	notify = append(notify, change.Ungrouped...)
	seen := make(map[types.WindowID]bool)

	var out []events.Event
	now := time.Now()
	for _, id := range notify {
		w, ok := c.windows[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, events.Event{
			Key: events.Key{Kind: events.KindWindow, Identity: w.Identity, Name: events.GroupChanged},
			Payload: events.Payload{
				Type:        events.KindWindow,
				Topic:       events.GroupChanged,
				UUID:        w.Identity.UUID,
				Name:        w.Identity.Name,
				Deferred:    deferred,
				Action:      string(change.Action),
				SourceGroup: change.Source,
				TargetGroup: change.Target,
				Members:     members,
			},
			Timestamp: now,
		})
	}
	return out
}

// applyPending runs the membership operations queued while gid was mid-session.
func (c *Coordinator) applyPending(gid types.GroupID) {
	ops := c.pending[gid]
	delete(c.pending, gid)
	for _, op := range ops {
		if _, err := c.applyMembership(op, true); err != nil {
			logging.Warn().
				Err(err).
				Str("action", string(op.action)).
				Uint32("window", uint32(op.window)).
				Msg("Deferred membership change failed")
		}
	}
}

// dispatch emits events from the interactive path. Local delivery happens
// in order on the loop; forwarded events run in the background.
func (c *Coordinator) dispatch(evs []events.Event) {
	rc, _ := c.sink.(remoteChecker)
	for _, ev := range evs {
		if rc != nil && rc.IsRemote(ev.Key.Identity) {
			go func(ev events.Event) {
				ctx, cancel := context.WithTimeout(context.Background(), remoteEmitTimeout)
				defer cancel()
				if err := c.sink.Emit(ctx, ev); err != nil {
					logging.Warn().Err(err).Str("event", ev.Key.String()).Msg("Failed to forward event")
				}
			}(ev)
			continue
		}
		if err := c.sink.Emit(context.Background(), ev); err != nil {
			logging.Warn().Err(err).Str("event", ev.Key.String()).Msg("Failed to emit event")
		}
	}
}
