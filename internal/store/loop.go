package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"stitchcast/internal/logging"
)

// ErrLoopStopped is returned when work is submitted after the loop exited.
var ErrLoopStopped = errors.New("store loop stopped")

// Loop runs every top-level store interaction on one goroutine.
type Loop struct {
	store  *Store
	logger *slog.Logger
	work   chan func()

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewLoop creates a loop for s with the given queue capacity.
func NewLoop(s *Store, buffer int, logger *slog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		store:   s,
		logger:  logging.NewComponentLogger(logger, "store-loop"),
		work:    make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
}

// Store returns the underlying store.
func (l *Loop) Store() *Store { return l.store }

// Run processes submitted work in order until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-l.work:
			l.run(job)
		}
	}
}

func (l *Loop) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(l.logger, "store loop job panicked", "store_loop_panic",
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	job()
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Store) error) error {
	result := make(chan error, 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("store loop job panicked: %v", r)
				panic(r)
			}
		}()
		result <- fn(l.store)
	}

	if l.isStopped() {
		return ErrLoopStopped
	}
	select {
	case l.work <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	}
}

// Post enqueues a dispatch of action without waiting for it to run.
func (l *Loop) Post(action Action) error {
	job := func() {
		if err := l.store.Dispatch(action); err != nil {
			logging.ErrorWithContext(l.logger, "posted dispatch failed", "store_post_failed",
				logging.String("action", action.Type()),
				logging.Error(err),
			)
		}
	}
	if l.isStopped() {
		return ErrLoopStopped
	}
	select {
	case l.work <- job:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}

func (l *Loop) isStopped() bool {
	select {
	case <-l.stopped:
		return true
	default:
		return false
	}
}

// Dispatcher returns a Dispatcher that posts onto the loop. Use it from
// goroutines other than the loop itself.
func (l *Loop) Dispatcher() Dispatcher {
	return loopDispatcher{loop: l}
}

type loopDispatcher struct {
	loop *Loop
}

func (d loopDispatcher) Dispatch(action Action) error {
	return d.loop.Post(action)
}
