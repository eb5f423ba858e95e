// Package bridge runs context-driven operations to completion on behalf of
// blocking call sites that own no scheduling of their own.
//
// A Bridge owns one dedicated worker goroutine, started lazily on first use
// and reused for the lifetime of the owning client. Every *Blocking method
// in this SDK is a thin call through a Bridge; the context-taking methods
// hold the single implementation of each operation.
package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

var (
	// ErrNestedBlockingContext is returned when a blocking call is issued
	// from an operation already executing on the same Bridge's worker.
	// Nesting one blocking wait inside another would deadlock the worker,
	// so the call fails fast instead.
	ErrNestedBlockingContext = errors.New("blocking call issued from inside an active bridge context")

	// ErrClosed is returned for runs submitted after Close.
	ErrClosed = errors.New("bridge is closed")
)

// Bridge executes operations serially on a dedicated worker goroutine,
// blocking each submitting goroutine until its operation completes.
type Bridge struct {
	start    sync.Once
	stop     sync.Once
	jobs     chan func()
	closed   chan struct{}
	workerID atomic.Int64
}

// New creates a Bridge. The worker goroutine is not started until the
// first Run.
func New() *Bridge {
	return &Bridge{
		jobs:   make(chan func()),
		closed: make(chan struct{}),
	}
}

// Run executes op on b's worker goroutine and blocks the calling goroutine
// until op returns, handing back its result or error.
//
// Run fails with ErrNestedBlockingContext when called from an operation
// already running on this Bridge, and with ErrClosed after Close.
func Run[T any](b *Bridge, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if goid.Get() == b.workerID.Load() {
		return zero, ErrNestedBlockingContext
	}

	select {
	case <-b.closed:
		return zero, ErrClosed
	default:
	}

	b.start.Do(func() {
		go b.worker()
	})

	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	job := func() {
		value, err := op(context.Background())
		done <- result{value: value, err: err}
	}

	select {
	case b.jobs <- job:
	case <-b.closed:
		return zero, ErrClosed
	}

	res := <-done
	return res.value, res.err
}

// Close stops the worker goroutine. In-flight operations finish; runs
// submitted afterwards fail with ErrClosed. Safe to call more than once.
func (b *Bridge) Close() {
	b.stop.Do(func() {
		close(b.closed)
	})
}

// worker is the bridge's single scheduling context. Its goroutine id is
// recorded so Run can detect re-entrant blocking calls.
func (b *Bridge) worker() {
	b.workerID.Store(goid.Get())

	for {
		select {
		case job := <-b.jobs:
			job()
		case <-b.closed:
			return
		}
	}
}
