// Package eventloop is the single-threaded cooperative scheduler the map
// widget runs on. Every model mutation and view update happens inside a task
// on the loop; blocking work (geolocation, network) runs off-loop via Async and
// resumes with a continuation posted back to the loop.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop runs posted tasks one at a time in FIFO order.
type Loop struct {
	mu          sync.Mutex
	idle        *sync.Cond
	queue       []func()
	outstanding int // queued tasks plus in-flight Async work
	wake        chan struct{}
}

// New creates an empty loop. Call Run to start draining it.
func New() *Loop {
	l := &Loop{wake: make(chan struct{}, 1)}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn. Safe to call from any goroutine, including from inside a task.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.outstanding++
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Async runs work on its own goroutine. If work returns a non-nil
// continuation, it is posted back to the loop. The loop is not idle until the
// continuation has run.
func (l *Loop) Async(work func() func()) {
	l.mu.Lock()
	l.outstanding++
	l.mu.Unlock()

	go func() {
		defer l.done()
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

// Run drains tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Wait blocks until no task is queued and no Async work is in flight.
func (l *Loop) Wait() {
	l.mu.Lock()
	for l.outstanding > 0 {
		l.idle.Wait()
	}
	l.mu.Unlock()
}

// Call posts fn and blocks until it has run on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Post(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) run(fn func()) {
	defer l.done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) done() {
	l.mu.Lock()
	l.outstanding--
	if l.outstanding == 0 {
		l.idle.Broadcast()
	}
	l.mu.Unlock()
}
