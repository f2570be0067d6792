package platform

import (
	"sync"
	"time"

	"github.com/yourusername/grid-dock/internal/group"
	"github.com/yourusername/grid-dock/internal/types"
)

// afterFunc schedules fn after d and returns a func that cancels it.
type afterFunc func(d time.Duration, fn func()) (cancel func())

func realAfter(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// DragDetector turns the geometry notifications of watched windows into a
// native drag stream: every change is reported as changing, and once a
// window stays still for the quiet period its drag is reported as changed.
type DragDetector struct {
	quiet time.Duration
	emit  func(group.NativeEvent)
	after afterFunc

	mu      sync.Mutex
	settled map[types.WindowID]types.Rect
	drags   map[types.WindowID]*drag
}

type drag struct {
	previous types.Rect
	current  types.Rect
	cancel   func()
}

// NewDragDetector creates a detector that reports through emit
func NewDragDetector(quiet time.Duration, emit func(group.NativeEvent)) *DragDetector {
	return &DragDetector{
		quiet:   quiet,
		emit:    emit,
		after:   realAfter,
		settled: make(map[types.WindowID]types.Rect),
		drags:   make(map[types.WindowID]*drag),
	}
}

// Watch starts reporting drags of id, which currently sits at r
func (d *DragDetector) Watch(id types.WindowID, r types.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settled[id] = r
}

// Unwatch stops reporting drags of id and drops any drag in progress
func (d *DragDetector) Unwatch(id types.WindowID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dr := d.drags[id]; dr != nil {
		dr.cancel()
	}
	delete(d.drags, id)
	delete(d.settled, id)
}

// Watching reports whether id is watched
func (d *DragDetector) Watching(id types.WindowID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.settled[id]
	return ok
}

// Settle records r as id's resting rect without reporting it. Used for moves
// this process made itself.
func (d *DragDetector) Settle(id types.WindowID, r types.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.settled[id]; ok && d.drags[id] == nil {
		d.settled[id] = r
	}
}

// Observe reports a new rect for id.
func (d *DragDetector) Observe(id types.WindowID, r types.Rect) {
	d.mu.Lock()
	last, ok := d.settled[id]
	if !ok {
		d.mu.Unlock()
		return
	}

	dr := d.drags[id]
	if dr == nil {
		if r == last {
			d.mu.Unlock()
			return
		}
		dr = &drag{previous: last}
		d.drags[id] = dr
	} else {
		dr.cancel()
	}
	dr.current = r
	dr.cancel = d.after(d.quiet, func() { d.end(id, dr) })
	ev := group.NativeEvent{Kind: group.NativeChanging, Window: id, Bounds: r, Previous: dr.previous}
	d.mu.Unlock()

	d.emit(ev)
}

func (d *DragDetector) end(id types.WindowID, dr *drag) {
	d.mu.Lock()
	if d.drags[id] != dr {
		d.mu.Unlock()
		return
	}
	delete(d.drags, id)
	d.settled[id] = dr.current
	ev := group.NativeEvent{Kind: group.NativeChanged, Window: id, Bounds: dr.current, Previous: dr.previous}
	d.mu.Unlock()

	d.emit(ev)
}
