package store

import (
	"sync"

	"github.com/MrSnakeDoc/itour/internal/domain"
)

// LiveQuery holds the result of a query and keeps it current.
//
// The store recomputes the result inside every mutation's critical section, so
// Results called after a mutation returned always reflects it. Updates gets a
// coalesced signal per recomputation; a slow reader sees one pending signal,
// never a backlog.
type LiveQuery struct {
	store *Store
	query domain.Query

	mu       sync.RWMutex
	results  []domain.Destination
	revision uint64

	updates chan struct{}
	once    sync.Once
}

// Watch opens a live query. Close it when done.
func (s *Store) Watch(q domain.Query) *LiveQuery {
	lq := &LiveQuery{
		store:   s,
		query:   q,
		updates: make(chan struct{}, 1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lq.results = s.queryLocked(q)
	lq.revision = s.revision
	if s.closed {
		lq.stop()
		return lq
	}
	s.lives[lq] = struct{}{}
	return lq
}

// refreshLocked recomputes every live query; callers hold s.mu.
func (s *Store) refreshLocked() {
	for lq := range s.lives {
		lq.set(s.queryLocked(lq.query), s.revision)
	}
}

func (lq *LiveQuery) set(results []domain.Destination, rev uint64) {
	lq.mu.Lock()
	lq.results = results
	lq.revision = rev
	lq.mu.Unlock()

	select {
	case lq.updates <- struct{}{}:
	default:
	}
}

// Query returns the query this live result tracks.
func (lq *LiveQuery) Query() domain.Query { return lq.query }

// Results returns a copy of the current result.
func (lq *LiveQuery) Results() []domain.Destination {
	lq.mu.RLock()
	defer lq.mu.RUnlock()

	out := make([]domain.Destination, len(lq.results))
	for i, d := range lq.results {
		out[i] = d.Clone()
	}
	return out
}

// Revision is the store revision the current result was computed at.
func (lq *LiveQuery) Revision() uint64 {
	lq.mu.RLock()
	defer lq.mu.RUnlock()
	return lq.revision
}

// Updates is signalled after each recomputation and closed by Close.
func (lq *LiveQuery) Updates() <-chan struct{} { return lq.updates }

// Close unregisters the live query and closes Updates.
func (lq *LiveQuery) Close() {
	lq.store.mu.Lock()
	delete(lq.store.lives, lq)
	lq.store.mu.Unlock()
	lq.stop()
}

func (lq *LiveQuery) stop() {
	lq.once.Do(func() { close(lq.updates) })
}

// Subscribe registers fn to receive every change. fn runs on the mutating
// goroutine after the store lock is released; it may read from the store.
// The returned func unsubscribes.
func (s *Store) Subscribe(fn func(domain.Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(changes []domain.Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.RLock()
	subs := make([]func(domain.Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
}
