// Package windowtest provides an in-memory native backend for tests.
package windowtest

import (
	"fmt"
	"sync"

	"github.com/yourusername/grid-dock/internal/types"
	"github.com/yourusername/grid-dock/internal/window"
)

// Fake is an in-memory window.Native. It is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	rects    map[types.WindowID]types.Rect
	offsets  map[types.WindowID]types.Rect
	hints    map[types.WindowID]types.Constraints
	states   map[types.WindowID]window.State
	movable  map[types.WindowID]bool
	failSet  map[types.WindowID]error
	raised   []types.WindowID
	setCalls int
}

// New creates an empty fake backend
func New() *Fake {
	return &Fake{
		rects:   make(map[types.WindowID]types.Rect),
		offsets: make(map[types.WindowID]types.Rect),
		hints:   make(map[types.WindowID]types.Constraints),
		states:  make(map[types.WindowID]window.State),
		movable: make(map[types.WindowID]bool),
		failSet: make(map[types.WindowID]error),
	}
}

// Add creates a live window with the given native bounds
func (f *Fake) Add(id types.WindowID, r types.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rects[id] = r
	f.movable[id] = true
}

// Destroy makes id behave like a closed window
func (f *Fake) Destroy(id types.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rects, id)
}

// FailSetBounds makes SetBounds for id return err
func (f *Fake) FailSetBounds(id types.WindowID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[id] = err
}

// SetState sets the state reported by WindowState
func (f *Fake) SetState(id types.WindowID, s window.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = s
}

// SetOffset sets the native-minus-visible offset reported for id
func (f *Fake) SetOffset(id types.WindowID, offset types.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets[id] = offset
}

// SetConstraints sets the size hints reported for id
func (f *Fake) SetConstraints(id types.WindowID, c types.Constraints) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hints[id] = c
}

// Rect returns the current bounds of id, zero if it does not exist
func (f *Fake) Rect(id types.WindowID) types.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rects[id]
}

// Movable reports the last user-movement flag set for id
func (f *Fake) Movable(id types.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.movable[id]
}

// Raised returns every BringToFront target, in call order
func (f *Fake) Raised() []types.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.WindowID(nil), f.raised...)
}

// SetCalls returns the number of successful SetBounds calls
func (f *Fake) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

// Bounds implements window.Native.
func (f *Fake) Bounds(id types.WindowID) (types.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rects[id]
	if !ok {
		return types.Rect{}, fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	return r, nil
}

// SetBounds implements window.Native.
func (f *Fake) SetBounds(id types.WindowID, r types.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSet[id]; err != nil {
		return err
	}
	if _, ok := f.rects[id]; !ok {
		return fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	f.rects[id] = r
	f.setCalls++
	return nil
}

// BringToFront implements window.Native.
func (f *Fake) BringToFront(id types.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rects[id]; !ok {
		return fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	f.raised = append(f.raised, id)
	return nil
}

// SetUserMovementEnabled implements window.Native.
func (f *Fake) SetUserMovementEnabled(id types.WindowID, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rects[id]; !ok {
		return fmt.Errorf("window %d: %w", id, window.ErrWindowGone)
	}
	f.movable[id] = enabled
	return nil
}

// WindowState implements window.StateReader.
func (f *Fake) WindowState(id types.WindowID) (window.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[id]; ok {
		return s, nil
	}
	return window.StateNormal, nil
}

// Offset implements window.OffsetReader.
func (f *Fake) Offset(id types.WindowID) (types.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offsets[id], nil
}

// Constraints implements window.ConstraintReader.
func (f *Fake) Constraints(id types.WindowID) (types.Constraints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hints[id], nil
}

// Transactor is a Fake that also supports atomic transactions.
type Transactor struct {
	*Fake
	commits      int
	flags        []window.PositionFlags
	beforeCommit func()
}

// NewTransactor creates an empty transactional fake backend
func NewTransactor() *Transactor {
	return &Transactor{Fake: New()}
}

// Commits returns the number of committed transactions
func (t *Transactor) Commits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commits
}

// Flags returns the flags of every SetWindowPos call, in order
func (t *Transactor) Flags() []window.PositionFlags {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]window.PositionFlags(nil), t.flags...)
}

// BeforeCommit registers fn to run once, at the start of the next commit
func (t *Transactor) BeforeCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.beforeCommit = fn
}

// BeginTransaction implements window.Transactor.
func (t *Transactor) BeginTransaction() (window.Transaction, error) {
	return &fakeTx{owner: t}, nil
}

type fakeTx struct {
	owner *Transactor
	ops   []txOp
}

type txOp struct {
	id    types.WindowID
	rect  types.Rect
	flags window.PositionFlags
}

func (tx *fakeTx) SetWindowPos(id types.WindowID, r types.Rect, flags window.PositionFlags) {
	tx.ops = append(tx.ops, txOp{id: id, rect: r, flags: flags})
}

// Commit applies every live window and reports the first destroyed one.
func (tx *fakeTx) Commit() error {
	t := tx.owner
	t.mu.Lock()
	hook := t.beforeCommit
	t.beforeCommit = nil
	t.mu.Unlock()
	if hook != nil {
		hook()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.commits++
	var firstErr error
	for _, op := range tx.ops {
		t.flags = append(t.flags, op.flags)
		if _, ok := t.rects[op.id]; !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("window %d: %w", op.id, window.ErrWindowGone)
			}
			continue
		}
		t.rects[op.id] = op.rect
		if op.flags&window.NoZOrder == 0 {
			t.raised = append(t.raised, op.id)
		}
	}
	return firstErr
}
