package tracker

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned stop func is called.
// Implementations must deliver fn on the same goroutine that drives the
// Tracker.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

// TickerScheduler drives ticks from a time.Ticker and hands each one to post,
// which is expected to queue fn on the coordinator loop.
type TickerScheduler struct {
	post func(fn func())
}

// NewTickerScheduler creates a scheduler that delivers ticks through post
func NewTickerScheduler(post func(fn func())) *TickerScheduler {
	return &TickerScheduler{post: post}
}

// Every implements Scheduler.
func (s *TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.post(fn)
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualScheduler fires ticks only when Fire is called. It lets callers step
// a drag session deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	next   int
	active map[int]func()
}

// NewManualScheduler creates a scheduler with no active timers
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{active: make(map[int]func())}
}

// Every implements Scheduler.
func (s *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.active[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.active, id)
	}
}

// Fire runs every active timer once
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.active))
	for _, fn := range s.active {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active returns the number of running timers
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
