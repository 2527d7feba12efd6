package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"stitchcast/internal/logging"
)

// MaxDispatchDepth bounds how deeply subscribers may dispatch re-entrantly.
const MaxDispatchDepth = 8

// ErrDispatchDepth is returned when a re-entrant dispatch exceeds MaxDispatchDepth.
var ErrDispatchDepth = errors.New("dispatch depth exceeded")

// Dispatcher is the write capability handed to collaborators.
type Dispatcher interface {
	Dispatch(Action) error
}

// Store owns the application state. Dispatch is re-entrant but must not be
// called from more than one goroutine at a time; use a Loop for that.
type Store struct {
	logger *slog.Logger

	mu     sync.RWMutex
	state  State
	commit uint64

	subsMu sync.Mutex
	subs   []subscription
	nextID int

	depth atomic.Int32
}

type subscription struct {
	id int
	fn func()
}

// New creates a store seeded with initial.
func New(initial State, logger *slog.Logger) *Store {
	return &Store{
		state:  initial,
		logger: logging.NewComponentLogger(logger, "store"),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Commit returns the number of committed state changes so far.
func (s *Store) Commit() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commit
}

// Subscribe registers fn to run after every committed change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch reduces action into the state and, if anything changed, notifies
// every subscriber before returning. Subscribers run outside the state lock
// and may dispatch again.
func (s *Store) Dispatch(action Action) error {
	if action == nil {
		return errors.New("dispatch: nil action")
	}
	depth := s.depth.Add(1)
	defer s.depth.Add(-1)
	if depth > MaxDispatchDepth {
		logging.ErrorWithContext(s.logger, "dispatch refused", "dispatch_depth_exceeded",
			logging.String("action", action.Type()),
			logging.Int("depth", int(depth)),
			logging.String(logging.FieldErrorHint, "a subscriber is dispatching in a cycle"),
		)
		return fmt.Errorf("%w: %s at depth %d", ErrDispatchDepth, action.Type(), depth)
	}

	s.mu.Lock()
	prev := s.state
	next, handled := Reduce(prev, action)
	changed := handled && !next.Equal(prev)
	if changed {
		s.state = next
		s.commit++
	}
	s.mu.Unlock()

	if !handled {
		s.logger.Debug("ignoring unknown action", logging.String("action", action.Type()))
		return nil
	}
	if !changed {
		return nil
	}

	s.logger.Debug("action committed",
		logging.String("action", action.Type()),
		logging.Int("depth", int(depth)),
	)
	s.notify()
	return nil
}

func (s *Store) notify() {
	s.subsMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}
