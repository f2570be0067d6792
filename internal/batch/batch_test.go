package batch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
	"github.com/yourusername/grid-dock/internal/window/windowtest"
)

func moves(ws []*window.Window, rects ...types.Rect) []window.Move {
	out := make([]window.Move, len(rects))
	for i, r := range rects {
		out[i] = window.Move{Window: ws[i], Rect: r}
	}
	return out
}

func windows(n int) []*window.Window {
	ws := make([]*window.Window, n)
	for i := range ws {
		ws[i] = &window.Window{ID: types.WindowID(i + 1)}
	}
	return ws
}

func TestNewSelectsByCapability(t *testing.T) {
	tests := []struct {
		name   string
		native window.Native
		want   string
	}{
		{"transactional backend", windowtest.NewTransactor(), "transaction"},
		{"plain backend", windowtest.New(), "sequential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.native).Name(); got != tt.want {
				t.Errorf("New().Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionExecutor(t *testing.T) {
	native := windowtest.NewTransactor()
	native.Add(1, types.Rect{Width: 100, Height: 100})
	native.Add(2, types.Rect{X: 100, Width: 100, Height: 100})
	ws := windows(2)

	err := New(native).Apply(moves(ws,
		types.Rect{Width: 150, Height: 100},
		types.Rect{X: 150, Width: 50, Height: 100},
	), false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if native.Commits() != 1 {
		t.Errorf("Commits() = %d, want 1", native.Commits())
	}
	if got := native.Rect(2); got != (types.Rect{X: 150, Width: 50, Height: 100}) {
		t.Errorf("window 2 = %v", got)
	}
	want := []window.PositionFlags{window.NoZOrder | window.NoActivate, window.NoZOrder | window.NoActivate}
	if !reflect.DeepEqual(native.Flags(), want) {
		t.Errorf("Flags() = %v, want %v", native.Flags(), want)
	}
	if len(native.Raised()) != 0 {
		t.Errorf("Raised() = %v, want none", native.Raised())
	}
}

func TestTransactionExecutorBringToFront(t *testing.T) {
	native := windowtest.NewTransactor()
	native.Add(1, types.Rect{Width: 100, Height: 100})
	native.Add(2, types.Rect{X: 100, Width: 100, Height: 100})

	if err := New(native).Apply(moves(windows(2), types.Rect{Width: 10, Height: 10}, types.Rect{Width: 20, Height: 20}), true); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(native.Raised(), []types.WindowID{1, 2}) {
		t.Errorf("Raised() = %v", native.Raised())
	}
}

func TestTransactionExecutorEmpty(t *testing.T) {
	native := windowtest.NewTransactor()
	if err := New(native).Apply(nil, false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if native.Commits() != 0 {
		t.Error("empty batch should not open a transaction")
	}
}

func TestSequentialExecutorContinuesOnError(t *testing.T) {
	native := windowtest.New()
	native.Add(1, types.Rect{Width: 100, Height: 100})
	native.Add(3, types.Rect{Width: 100, Height: 100})
	// window 2 was destroyed mid-batch

	err := New(native).Apply(moves(windows(3),
		types.Rect{X: 1, Width: 100, Height: 100},
		types.Rect{X: 2, Width: 100, Height: 100},
		types.Rect{X: 3, Width: 100, Height: 100},
	), true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if native.Rect(1).X != 1 || native.Rect(3).X != 3 {
		t.Errorf("live windows not updated: %v %v", native.Rect(1), native.Rect(3))
	}
	if native.SetCalls() != 2 {
		t.Errorf("SetCalls() = %d, want 2", native.SetCalls())
	}
	if !reflect.DeepEqual(native.Raised(), []types.WindowID{1, 3}) {
		t.Errorf("Raised() = %v, want [1 3]", native.Raised())
	}
}

func TestSequentialExecutorAllFailed(t *testing.T) {
	native := windowtest.New()
	native.Add(1, types.Rect{Width: 100, Height: 100})
	native.FailSetBounds(1, errors.New("bad match"))

	if err := New(native).Apply(moves(windows(1), types.Rect{Width: 5, Height: 5}), false); err == nil {
		t.Error("expected error when no window could be updated")
	}
}

func TestExecutorsUseNativeBounds(t *testing.T) {
	// The offset only affects visible bounds; native rects are passed through.
	native := windowtest.New()
	native.Add(1, types.Rect{Width: 100, Height: 100})
	w := &window.Window{ID: 1, Offset: types.Rect{X: 7, Y: 7, Width: -14, Height: -14}}

	m := window.Move{Window: w, Rect: types.Rect{X: 50, Y: 60, Width: 70, Height: 80}, Offset: w.Offset}
	if err := New(native).Apply([]window.Move{m}, false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if native.Rect(1) != m.Rect {
		t.Errorf("native bounds = %v, want %v", native.Rect(1), m.Rect)
	}
}
