package platform

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// fakeGridServer answers dump, updateWindow, window.focus and window.raise
// for an in-memory set of windows.
type fakeGridServer struct {
	mu        sync.Mutex
	frames    map[int]types.Rect
	minimized map[int]bool
	methods   []string
}

func startFakeGridServer(t *testing.T, frames map[int]types.Rect) (*fakeGridServer, string) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "grid.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	s := &fakeGridServer{frames: frames, minimized: make(map[int]bool)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s, socket
}

func (s *fakeGridServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}
		var env models.MessageEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			return
		}
		resp, _ := json.Marshal(s.handle(env.Request))
		conn.Write(append(resp, '\n'))
	}
}

func (s *fakeGridServer) handle(req *models.Request) *models.MessageEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods = append(s.methods, req.Method)

	switch req.Method {
	case "dump":
		windows := map[string]interface{}{}
		for id, f := range s.frames {
			windows[fmt.Sprint(id)] = map[string]interface{}{
				"id":          id,
				"frame":       [][]interface{}{{f.X, f.Y}, {f.Width, f.Height}},
				"isMinimized": s.minimized[id],
			}
		}
		return models.NewResponse(req.ID, map[string]interface{}{"windows": windows})
	case "updateWindow", "window.raise":
		id := int(req.Params["windowId"].(float64))
		f, ok := s.frames[id]
		if !ok {
			return models.NewErrorResponse(req.ID, models.CodeNotFound, "window not found")
		}
		if req.Method == "updateWindow" {
			f.X = int(req.Params["x"].(float64))
			f.Y = int(req.Params["y"].(float64))
			f.Width = int(req.Params["width"].(float64))
			f.Height = int(req.Params["height"].(float64))
			s.frames[id] = f
		}
		return models.NewResponse(req.ID, map[string]interface{}{"ok": true})
	default:
		return models.NewErrorResponse(req.ID, models.CodeBadRequest, "unknown method")
	}
}

func (s *fakeGridServer) calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.methods {
		if m == method {
			n++
		}
	}
	return n
}

func TestGridServerBounds(t *testing.T) {
	srv, socket := startFakeGridServer(t, map[int]types.Rect{
		1: {X: 10, Y: 20, Width: 300, Height: 200},
		2: {X: 310, Y: 20, Width: 300, Height: 200},
	})
	g := NewGridServer(socket, time.Second)
	defer g.Close()
	frozen := time.Now()
	g.now = func() time.Time { return frozen }

	r, err := g.Bounds(1)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if r != (types.Rect{X: 10, Y: 20, Width: 300, Height: 200}) {
		t.Errorf("Bounds(1) = %v", r)
	}
	if _, err := g.Bounds(2); err != nil {
		t.Fatalf("Bounds(2): %v", err)
	}
	if srv.calls("dump") != 1 {
		t.Errorf("dump calls = %d, want one dump for back-to-back reads", srv.calls("dump"))
	}

	if _, err := g.Bounds(9); !errors.Is(err, window.ErrWindowGone) {
		t.Errorf("Bounds(9) = %v, want ErrWindowGone", err)
	}
}

func TestGridServerSetBounds(t *testing.T) {
	srv, socket := startFakeGridServer(t, map[int]types.Rect{1: {X: 0, Y: 0, Width: 100, Height: 100}})
	g := NewGridServer(socket, time.Second)
	defer g.Close()
	frozen := time.Now()
	g.now = func() time.Time { return frozen }

	if _, err := g.Bounds(1); err != nil {
		t.Fatal(err)
	}
	want := types.Rect{X: -20, Y: 5, Width: 150, Height: 90}
	if err := g.SetBounds(1, want); err != nil {
		t.Fatalf("SetBounds: %v", err)
	}

	// The cached dump is dropped after a change.
	got, err := g.Bounds(1)
	if err != nil || got != want {
		t.Errorf("Bounds after set = %v, %v, want %v", got, err, want)
	}
	if srv.calls("dump") != 2 {
		t.Errorf("dump calls = %d, want 2", srv.calls("dump"))
	}

	if err := g.SetBounds(7, want); !errors.Is(err, window.ErrWindowGone) {
		t.Errorf("SetBounds(7) = %v, want ErrWindowGone", err)
	}
}

func TestGridServerBringToFrontFallsBack(t *testing.T) {
	srv, socket := startFakeGridServer(t, map[int]types.Rect{1: {Width: 10, Height: 10}})
	g := NewGridServer(socket, time.Second)
	defer g.Close()

	if err := g.BringToFront(1); err != nil {
		t.Fatalf("BringToFront: %v", err)
	}
	if srv.calls("window.focus") != 1 || srv.calls("window.raise") != 1 {
		t.Errorf("methods = %v", srv.methods)
	}
	if err := g.BringToFront(5); !errors.Is(err, window.ErrWindowGone) {
		t.Errorf("BringToFront(5) = %v, want ErrWindowGone", err)
	}
}

func TestGridServerWindowState(t *testing.T) {
	srv, socket := startFakeGridServer(t, map[int]types.Rect{1: {Width: 10, Height: 10}})
	srv.minimized[1] = true
	g := NewGridServer(socket, time.Second)
	defer g.Close()

	s, err := g.WindowState(1)
	if err != nil || s != window.StateMinimized {
		t.Errorf("WindowState = %v, %v", s, err)
	}
	if err := g.SetUserMovementEnabled(1, false); err != nil {
		t.Errorf("SetUserMovementEnabled: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("wayland", Options{}); err == nil {
		t.Error("expected error for unknown backend")
	}
	b, err := Open(BackendGridServer, Options{GridServerSocket: "/nonexistent.sock"})
	if err != nil || b.Name() != BackendGridServer {
		t.Errorf("Open gridserver = %v, %v", b, err)
	}
}
