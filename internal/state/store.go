package state

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/matrixise/coinfolio/internal/logger"
)

// Listener is notified with the committed state after every dispatch
type Listener func(State)

// Store is the application state container. Dispatches are serialized; reads
// never block on a running reducer. Listeners run on the dispatching
// goroutine after the state is committed and must not call Dispatch.
type Store struct {
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	reducer   Reducer
	listeners map[uint64]Listener
	nextID    uint64

	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithReducer replaces the root reducer
func WithReducer(r Reducer) Option {
	return func(s *Store) { s.reducer = r }
}

// WithLogger sets the logger used for dispatch tracing
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store holding initial
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		state:     initial,
		reducer:   Reduce,
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger)
	return s
}

// GetState returns the current state
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces a into the current state, notifies listeners and
// returns the new state
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	next := s.reducer(s.state, a)
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	s.logger.Debug("Action dispatched", "type", a.Type(), "watchlist", next.Watchlist.Len(), "holdings", next.Holdings.Len())

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Subscribe registers l and returns a function removing it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Sequencer issues increasing request numbers per operation
type Sequencer struct {
	refresh atomic.Uint64
	catalog atomic.Uint64
	search  atomic.Uint64
}

// Next returns a new sequence number for op; numbers start at 1
func (q *Sequencer) Next(op Operation) uint64 {
	switch op {
	case OpRefresh:
		return q.refresh.Add(1)
	case OpCatalog:
		return q.catalog.Add(1)
	case OpSearch:
		return q.search.Add(1)
	}
	return 0
}
