package group

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// Service is the goroutine-safe entry point to a Coordinator. Every call is
// run on the loop; events produced by a call are emitted after it returns,
// off the loop, and awaited when they go to a remote runtime.
type Service struct {
	loop  *Loop
	coord *Coordinator
	sink  events.Sink
}

// NewService wraps coord, which must only be driven by loop from now on
func NewService(loop *Loop, coord *Coordinator) *Service {
	return &Service{loop: loop, coord: coord, sink: coord.sink}
}

// do runs fn on the loop, then emits whatever events it produced.
func (s *Service) do(ctx context.Context, fn func()) error {
	var evs []events.Event
	err := s.loop.Do(ctx, func() {
		fn()
		evs = s.coord.TakeEvents()
	})
	if err != nil {
		return err
	}
	if err := emitAll(ctx, s.sink, evs); err != nil {
		logging.Warn().Err(err).Int("events", len(evs)).Msg("Failed to deliver events")
	}
	return nil
}

// emitAll delivers local events in order, then waits for every forwarded one.
func emitAll(ctx context.Context, sink events.Sink, evs []events.Event) error {
	rc, _ := sink.(remoteChecker)
	g, gctx := errgroup.WithContext(ctx)

	var localErr error
	for _, ev := range evs {
		ev := ev
		if rc != nil && rc.IsRemote(ev.Key.Identity) {
			g.Go(func() error { return sink.Emit(gctx, ev) })
			continue
		}
		if err := sink.Emit(ctx, ev); err != nil && localErr == nil {
			localErr = err
		}
	}
	return errors.Join(localErr, g.Wait())
}

// Track starts tracking a window. rules are merged over its native size hints.
func (s *Service) Track(ctx context.Context, id types.WindowID, identity types.Identity, rules types.Constraints) error {
	var err error
	doErr := s.do(ctx, func() {
		var w *window.Window
		w, err = window.Describe(s.coord.native, id, identity, rules)
		if err == nil {
			s.coord.Register(w)
		}
	})
	return errors.Join(doErr, err)
}

// Untrack stops tracking a window
func (s *Service) Untrack(ctx context.Context, id types.WindowID) (bool, error) {
	var (
		deferred bool
		err      error
	)
	doErr := s.do(ctx, func() { deferred, err = s.coord.Unregister(id) })
	return deferred, errors.Join(doErr, err)
}

// JoinGroup puts window into target's group
func (s *Service) JoinGroup(ctx context.Context, window, target types.WindowID) (types.GroupID, bool, error) {
	return s.membership(ctx, func() (types.GroupID, bool, error) { return s.coord.JoinGroup(window, target) })
}

// MergeGroups merges window's group into target's group
func (s *Service) MergeGroups(ctx context.Context, window, target types.WindowID) (types.GroupID, bool, error) {
	return s.membership(ctx, func() (types.GroupID, bool, error) { return s.coord.MergeGroups(window, target) })
}

// LeaveGroup removes window from its group
func (s *Service) LeaveGroup(ctx context.Context, window types.WindowID) (types.GroupID, bool, error) {
	return s.membership(ctx, func() (types.GroupID, bool, error) { return s.coord.LeaveGroup(window) })
}

func (s *Service) membership(ctx context.Context, op func() (types.GroupID, bool, error)) (types.GroupID, bool, error) {
	var (
		gid      types.GroupID
		deferred bool
		err      error
	)
	doErr := s.do(ctx, func() { gid, deferred, err = op() })
	if doErr != nil {
		return "", false, doErr
	}
	return gid, deferred, err
}

// UpdateBounds moves or resizes a window by delta, carrying its group along
func (s *Service) UpdateBounds(ctx context.Context, id types.WindowID, delta types.Rect) (*MoveResult, error) {
	var (
		res *MoveResult
		err error
	)
	if doErr := s.do(ctx, func() { res, err = s.coord.UpdateGroupedWindowBounds(id, delta) }); doErr != nil {
		return nil, doErr
	}
	return res, err
}

// SetBounds sets a window's visible bounds, carrying its group along
func (s *Service) SetBounds(ctx context.Context, id types.WindowID, bounds types.PartialRect) (*MoveResult, error) {
	var (
		res *MoveResult
		err error
	)
	if doErr := s.do(ctx, func() { res, err = s.coord.SetNewGroupedWindowBounds(id, bounds) }); doErr != nil {
		return nil, doErr
	}
	return res, err
}

// Groups reports every group and the tracked windows outside any group
func (s *Service) Groups(ctx context.Context) (*models.GroupsResult, error) {
	var res *models.GroupsResult
	if err := s.loop.Do(ctx, func() { res = s.coord.Snapshot() }); err != nil {
		return nil, err
	}
	return res, nil
}

// Tracked returns the ids of every tracked window
func (s *Service) Tracked(ctx context.Context) ([]types.WindowID, error) {
	var ids []types.WindowID
	err := s.loop.Do(ctx, func() {
		for id := range s.coord.windows {
			ids = append(ids, id)
		}
	})
	return ids, err
}

// HandleNativeEvent queues a native drag event
func (s *Service) HandleNativeEvent(ev NativeEvent) {
	s.loop.Post(func() { s.coord.HandleNativeEvent(ev) })
}

// WindowDestroyed queues the removal of a destroyed window
func (s *Service) WindowDestroyed(id types.WindowID) {
	s.loop.Post(func() {
		s.coord.WindowDestroyed(id)
		s.coord.dispatch(s.coord.TakeEvents())
	})
}
