package server

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/grid-dock/internal/client"
	"github.com/yourusername/grid-dock/internal/events"
	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/tracker"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window/windowtest"
)

type harness struct {
	socket string
	native *windowtest.Fake
	bus    *events.Bus
}

func startServer(t *testing.T, rules RuleSource) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	native := windowtest.New()
	bus := events.NewBus()
	loop := group.NewLoop(16)
	go loop.Serve(ctx)
	coord := group.NewCoordinator(native, bus, tracker.NewTickerScheduler(loop.Post))
	svc := group.NewService(loop, coord)

	socket := filepath.Join(t.TempDir(), "gd.sock")
	srv := New(socket, svc, bus, rules)
	go srv.Serve(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return &harness{socket: socket, native: native, bus: bus}
}

func (h *harness) client(t *testing.T) *client.Client {
	t.Helper()
	c := client.NewClient(h.socket, 2*time.Second)
	t.Cleanup(func() { c.Close() })
	return c
}

func errCode(err error) int {
	var se *client.ServerError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func TestServerPing(t *testing.T) {
	h := startServer(t, nil)
	res, err := h.client(t).Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if res["pong"] != true {
		t.Errorf("Ping = %v", res)
	}
}

func TestServerGroupFlow(t *testing.T) {
	h := startServer(t, nil)
	c := h.client(t)
	ctx := context.Background()

	h.native.Add(1, types.Rect{X: 0, Y: 0, Width: 200, Height: 200})
	h.native.Add(2, types.Rect{X: 200, Y: 0, Width: 200, Height: 200})

	for _, id := range []uint32{1, 2} {
		if err := c.Track(ctx, id, "app", "main"); err != nil {
			t.Fatalf("Track(%d): %v", id, err)
		}
	}
	joined, err := c.Join(ctx, 2, 1)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.Group == "" || joined.Deferred {
		t.Errorf("Join = %+v", joined)
	}

	res, err := c.UpdateBounds(ctx, 1, map[string]interface{}{"width": 50})
	if err != nil {
		t.Fatalf("UpdateBounds: %v", err)
	}
	if !res.Applied || res.Moved != 2 || res.Bounds != (types.Rect{X: 0, Y: 0, Width: 250, Height: 200}) {
		t.Errorf("UpdateBounds = %+v", res)
	}
	if got := h.native.Rect(2); got != (types.Rect{X: 250, Y: 0, Width: 150, Height: 200}) {
		t.Errorf("window 2 = %v", got)
	}

	res, err = c.SetBounds(ctx, 2, map[string]interface{}{"x": 300})
	if err != nil {
		t.Fatalf("SetBounds: %v", err)
	}
	if res.Bounds.X != 300 {
		t.Errorf("SetBounds = %+v", res)
	}

	groups, err := c.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups.Groups) != 1 || len(groups.Groups[0].Members) != 2 {
		t.Fatalf("Groups = %+v", groups)
	}

	left, err := c.Leave(ctx, 2)
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if left.Deferred {
		t.Errorf("Leave deferred with no drag in progress")
	}
}

func TestServerErrorCodes(t *testing.T) {
	h := startServer(t, nil)
	c := h.client(t)
	ctx := context.Background()

	h.native.Add(1, types.Rect{X: 0, Y: 0, Width: 200, Height: 200})
	h.native.Add(2, types.Rect{X: 200, Y: 0, Width: 200, Height: 200})
	h.native.SetConstraints(2, types.Constraints{MaxWidth: 220})
	for _, id := range []uint32{1, 2} {
		if err := c.Track(ctx, id, "app", "main"); err != nil {
			t.Fatalf("Track(%d): %v", id, err)
		}
	}

	tests := []struct {
		name string
		call func() error
		want int
	}{
		{"leave while ungrouped", func() error {
			_, err := c.Leave(ctx, 1)
			return err
		}, models.CodeBadRequest},
		{"untracked window", func() error {
			_, err := c.UpdateBounds(ctx, 9, map[string]interface{}{"x": 1})
			return err
		}, models.CodeNotFound},
		{"missing window id", func() error {
			_, err := c.CallMethod(ctx, models.MethodUpdateBounds, map[string]interface{}{"delta": map[string]interface{}{"x": 1}})
			return err
		}, models.CodeBadRequest},
		{"unknown method", func() error {
			_, err := c.CallMethod(ctx, "window.explode", nil)
			return err
		}, models.CodeBadRequest},
		{"track destroyed window", func() error {
			return c.Track(ctx, 7, "app", "gone")
		}, models.CodeNotFound},
		{"join itself", func() error {
			_, err := c.Join(ctx, 1, 1)
			return err
		}, models.CodeBadRequest},
		{"constraint violation", func() error {
			if _, err := c.Join(ctx, 2, 1); err != nil {
				return err
			}
			_, err := c.UpdateBounds(ctx, 1, map[string]interface{}{"width": -50})
			return err
		}, models.CodeConstraintConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if got := errCode(err); got != tt.want {
				t.Errorf("code = %d (%v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestServerTrackAppliesRules(t *testing.T) {
	var (
		mu   sync.Mutex
		seen types.Identity
	)
	h := startServer(t, func(id types.Identity) types.Constraints {
		mu.Lock()
		defer mu.Unlock()
		seen = id
		return types.Constraints{MaxWidth: 220}
	})
	c := h.client(t)
	ctx := context.Background()

	h.native.Add(1, types.Rect{X: 0, Y: 0, Width: 200, Height: 200})
	h.native.Add(2, types.Rect{X: 200, Y: 0, Width: 200, Height: 200})
	for _, id := range []uint32{1, 2} {
		if err := c.Track(ctx, id, "app", "panel"); err != nil {
			t.Fatalf("Track(%d): %v", id, err)
		}
	}
	mu.Lock()
	if seen != (types.Identity{UUID: "app", Name: "panel"}) {
		t.Errorf("rules looked up for %v", seen)
	}
	mu.Unlock()
	if _, err := c.Join(ctx, 2, 1); err != nil {
		t.Fatalf("Join: %v", err)
	}

	_, err := c.UpdateBounds(ctx, 1, map[string]interface{}{"width": 50})
	if got := errCode(err); got != models.CodeConstraintConflict {
		t.Errorf("code = %d (%v), want %d", got, err, models.CodeConstraintConflict)
	}
}

func TestServerSubscribe(t *testing.T) {
	h := startServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *models.Event, 4)
	done := make(chan error, 1)
	sub := h.client(t)
	go func() {
		done <- sub.Subscribe(ctx, map[string]interface{}{"uuid": "app"}, func(ev *models.Event) {
			received <- ev
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for h.bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c := h.client(t)
	for _, uuid := range []string{"other", "app"} {
		err := c.RaiseEvent(ctx, map[string]interface{}{
			"eventName": string(events.BoundsChanged),
			"eventArgs": map[string]interface{}{"uuid": uuid, "name": "main"},
		})
		if err != nil {
			t.Fatalf("RaiseEvent(%s): %v", uuid, err)
		}
	}

	select {
	case ev := <-received:
		if ev.EventType != string(events.BoundsChanged) || ev.Data["uuid"] != "app" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
}

func TestSubscribeFilter(t *testing.T) {
	key := events.Key{Kind: events.KindWindow, Identity: types.Identity{UUID: "app", Name: "main"}, Name: events.BoundsChanged}

	tests := []struct {
		name   string
		filter subscribeFilter
		want   bool
	}{
		{"empty", subscribeFilter{}, true},
		{"uuid", subscribeFilter{UUID: "app"}, true},
		{"other uuid", subscribeFilter{UUID: "x"}, false},
		{"name and event", subscribeFilter{Name: "main", Event: "bounds-changed"}, true},
		{"other event", subscribeFilter{Event: "group-changed"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.match(key); got != tt.want {
				t.Errorf("match = %v, want %v", got, tt.want)
			}
		})
	}
}
