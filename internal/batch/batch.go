package batch

import (
	"fmt"

	"github.com/yourusername/grid-dock/internal/logging"
	"github.com/yourusername/grid-dock/internal/window"
)

// Executor applies a list of moves to the native windowing layer.
type Executor interface {
	Apply(moves []window.Move, bringToFront bool) error
	Name() string
}

// New picks the transaction executor when the backend can reposition many
// windows atomically, and the sequential one otherwise.
func New(native window.Native) Executor {
	if tx, ok := native.(window.Transactor); ok {
		return &TransactionExecutor{native: tx}
	}
	return &SequentialExecutor{native: native}
}

// TransactionExecutor repositions every window in one native transaction.
type TransactionExecutor struct {
	native window.Transactor
}

// Name implements Executor.
func (e *TransactionExecutor) Name() string { return "transaction" }

// Apply implements Executor. Nothing is committed when the transaction
// cannot be opened.
func (e *TransactionExecutor) Apply(moves []window.Move, bringToFront bool) error {
	if len(moves) == 0 {
		return nil
	}

	tx, err := e.native.BeginTransaction()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	flags := window.NoZOrder | window.NoActivate
	if bringToFront {
		flags = 0
	}
	for _, m := range moves {
		tx.SetWindowPos(m.Window.ID, m.Rect, flags)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %d moves: %w", len(moves), err)
	}
	return nil
}

// SequentialExecutor sets each window's bounds one call at a time, in list
// order. A failing window does not stop the rest of the batch.
type SequentialExecutor struct {
	native window.Native
}

// Name implements Executor.
func (e *SequentialExecutor) Name() string { return "sequential" }

// Apply implements Executor. It fails only if no window could be updated.
func (e *SequentialExecutor) Apply(moves []window.Move, bringToFront bool) error {
	successCount := 0
	errorCount := 0

	for _, m := range moves {
		id := m.Window.ID
		if err := e.native.SetBounds(id, m.Rect); err != nil {
			logging.Warn().
				Err(err).
				Uint32("window", uint32(id)).
				Str("bounds", m.Rect.String()).
				Msg("Failed to set window bounds")
			errorCount++
			continue
		}
		successCount++

		if bringToFront {
			if err := e.native.BringToFront(id); err != nil {
				logging.Warn().Err(err).Uint32("window", uint32(id)).Msg("Failed to raise window")
			}
		}
	}

	// Only fail if NO windows could be updated
	if successCount == 0 && errorCount > 0 {
		return fmt.Errorf("failed to update all %d windows", errorCount)
	}
	return nil
}
