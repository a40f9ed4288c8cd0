// Package uiloop is the single-threaded task queue that stands in for a
// toolkit main loop. Workers hand results to the UI by posting closures; the
// loop goroutine runs them one at a time in post order.
package uiloop

import (
	"context"
	"sync"
)

// Loop runs posted tasks sequentially on the goroutine that calls Run.
// The queue is unbounded so that tasks may post further tasks without
// blocking the loop.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post schedules fn and never blocks. It reports false once the loop has
// been stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if fn, ok := l.pop(); ok {
			fn()
			if l.stopped() {
				return nil
			}
			continue
		}
		select {
		case <-l.wake:
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunPending executes queued tasks without waiting and returns how many ran.
// Tasks posted while draining are run too.
func (l *Loop) RunPending() int {
	n := 0
	for !l.stopped() {
		fn, ok := l.pop()
		if !ok {
			break
		}
		fn()
		n++
	}
	return n
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn, true
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Stop makes Run return after the current task and rejects further posts.
// Queued tasks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed after Stop.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
