package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/grid-dock/internal/logging"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("coordinator loop stopped")

// Loop serializes every coordinator operation onto a single goroutine.
// Native events, coalescing ticks and API calls are all queued here, so no
// two of them ever run at the same time.
type Loop struct {
	ops  chan func()
	done chan struct{}
}

// NewLoop creates a loop with the given queue depth
func NewLoop(buffer int) *Loop {
	return &Loop{
		ops:  make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Serve runs queued operations until ctx is cancelled. It implements
// suture.Service.
func (l *Loop) Serve(ctx context.Context) error {
	defer close(l.done)

	logging.Info().Msg("Coordinator loop started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Coordinator loop stopped")
			return ctx.Err()
		case fn := <-l.ops:
			l.run(fn)
		}
	}
}

// run executes one operation. A panic is logged and the loop keeps going.
func (l *Loop) run(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			logging.Error().Str("panic", fmt.Sprint(err)).Msg("Coordinator operation panicked")
		}
	}()
	fn()
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.ops <- wrapped:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting for it to run. It drops fn if the loop has
// exited.
func (l *Loop) Post(fn func()) {
	select {
	case l.ops <- fn:
	case <-l.done:
	}
}
