package group

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/tracker"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
	"github.com/yourusername/grid-dock/internal/window/windowtest"
)

// lockedSink records events from any goroutine. Identities whose UUID is in
// remote are reported as forwarded.
type lockedSink struct {
	mu     sync.Mutex
	events []events.Event
	remote map[string]bool
	fail   error
}

func (s *lockedSink) Emit(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if s.remote[ev.Key.Identity.UUID] {
		return s.fail
	}
	return nil
}

func (s *lockedSink) IsRemote(id types.Identity) bool {
	return s.remote[id.UUID]
}

func (s *lockedSink) snapshot() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func newTestService(t *testing.T, sink events.Sink) (*Service, *windowtest.Fake) {
	t.Helper()
	native := windowtest.New()
	loop := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Serve(ctx)
	t.Cleanup(cancel)

	sched := tracker.NewTickerScheduler(loop.Post)
	return NewService(loop, NewCoordinator(native, sink, sched)), native
}

func TestServiceMoveEmitsEvents(t *testing.T) {
	sink := &lockedSink{}
	svc, native := newTestService(t, sink)
	ctx := context.Background()

	native.Add(1, rect(0, 0, 200, 200))
	native.Add(2, rect(200, 0, 200, 200))
	for _, id := range []types.WindowID{1, 2} {
		if err := svc.Track(ctx, id, identity(id), types.Constraints{}); err != nil {
			t.Fatalf("Track(%d): %v", id, err)
		}
	}
	gid, deferred, err := svc.JoinGroup(ctx, 2, 1)
	if err != nil || deferred || gid == "" {
		t.Fatalf("JoinGroup = (%q, %v, %v)", gid, deferred, err)
	}
	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("group-changed events = %d, want 2", got)
	}

	res, err := svc.UpdateBounds(ctx, 1, types.Rect{Width: 50})
	if err != nil {
		t.Fatalf("UpdateBounds: %v", err)
	}
	if len(res.Moved) != 2 {
		t.Errorf("Moved = %v", res.Moved)
	}
	if native.Rect(2) != rect(250, 0, 150, 200) {
		t.Errorf("window 2 = %v", native.Rect(2))
	}

	evs := sink.snapshot()[2:]
	if len(evs) != 2 || evs[0].Key.Identity != identity(1) || evs[1].Key.Identity != identity(2) {
		t.Errorf("bounds events = %+v", evs)
	}

	groups, err := svc.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups.Groups) != 1 || groups.Groups[0].ID != gid {
		t.Errorf("Groups = %+v", groups)
	}
}

func TestServiceTrackMissingWindow(t *testing.T) {
	svc, _ := newTestService(t, nil)

	err := svc.Track(context.Background(), 42, identity(42), types.Constraints{})
	if !errors.Is(err, window.ErrWindowGone) {
		t.Errorf("Track = %v, want ErrWindowGone", err)
	}
	ids, err := svc.Tracked(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("Tracked = (%v, %v)", ids, err)
	}
}

func TestServiceErrors(t *testing.T) {
	svc, native := newTestService(t, nil)
	ctx := context.Background()
	native.Add(1, rect(0, 0, 10, 10))
	if err := svc.Track(ctx, 1, identity(1), types.Constraints{}); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.JoinGroup(ctx, 1, 7); !errors.Is(err, ErrNotTracked) {
		t.Errorf("JoinGroup untracked target = %v", err)
	}
	if _, err := svc.UpdateBounds(ctx, 7, types.Rect{X: 1}); !errors.Is(err, ErrNotTracked) {
		t.Errorf("UpdateBounds untracked = %v", err)
	}
	if _, err := svc.Untrack(ctx, 7); !errors.Is(err, ErrNotTracked) {
		t.Errorf("Untrack untracked = %v", err)
	}
	deferred, err := svc.Untrack(ctx, 1)
	if err != nil || deferred {
		t.Errorf("Untrack = (%v, %v)", deferred, err)
	}
}

func TestEmitAll(t *testing.T) {
	ev := func(uuid string) events.Event {
		id := types.Identity{UUID: uuid, Name: "main"}
		return events.NewBoundsEvent(events.BoundsChanged, id, rect(0, 0, 1, 1), types.Rect{X: 1}, events.ReasonSelf, true)
	}

	t.Run("local events in order", func(t *testing.T) {
		sink := &lockedSink{}
		in := []events.Event{ev("a"), ev("b"), ev("c")}

		if err := emitAll(context.Background(), sink, in); err != nil {
			t.Fatalf("emitAll: %v", err)
		}
		got := sink.snapshot()
		for i := range in {
			if got[i].Key != in[i].Key {
				t.Errorf("event %d = %v, want %v", i, got[i].Key, in[i].Key)
			}
		}
	})

	t.Run("remote failures reported", func(t *testing.T) {
		boom := errors.New("unreachable")
		sink := &lockedSink{remote: map[string]bool{"r": true}, fail: boom}

		err := emitAll(context.Background(), sink, []events.Event{ev("a"), ev("r")})
		if !errors.Is(err, boom) {
			t.Errorf("emitAll = %v, want %v", err, boom)
		}
		if len(sink.snapshot()) != 2 {
			t.Errorf("delivered %d events, want 2", len(sink.snapshot()))
		}
	})
}

func TestServiceNativeDrag(t *testing.T) {
	sink := &lockedSink{}
	svc, native := newTestService(t, sink)
	ctx := context.Background()

	native.Add(1, rect(0, 0, 200, 200))
	native.Add(2, rect(200, 0, 200, 200))
	for _, id := range []types.WindowID{1, 2} {
		if err := svc.Track(ctx, id, identity(id), types.Constraints{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := svc.JoinGroup(ctx, 2, 1); err != nil {
		t.Fatal(err)
	}

	svc.HandleNativeEvent(NativeEvent{Kind: NativeChanging, Window: 1, Bounds: rect(10, 0, 200, 200)})
	svc.HandleNativeEvent(NativeEvent{Kind: NativeChanging, Window: 1, Bounds: rect(20, 0, 200, 200)})
	time.Sleep(3 * tracker.DefaultInterval)
	svc.HandleNativeEvent(NativeEvent{Kind: NativeChanged, Window: 1, Bounds: rect(30, 0, 200, 200)})

	// Groups runs on the loop after every queued event.
	groups, err := svc.Groups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if groups.Groups[0].BoundsChanging {
		t.Error("session still running")
	}
	if native.Rect(2) != rect(230, 0, 200, 200) {
		t.Errorf("window 2 = %v, want it to follow the drag", native.Rect(2))
	}

	svc.WindowDestroyed(2)
	groups, _ = svc.Groups(ctx)
	if len(groups.Groups) != 0 || len(groups.Ungrouped) != 1 {
		t.Errorf("after destroy = %+v", groups)
	}
}
