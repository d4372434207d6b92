// Package memory is an in-process store.Backend. It keeps the last saved
// snapshot in memory and is used for previews and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/itour/internal/store"
)

var _ store.Backend = (*Backend)(nil)

// ErrInjected is returned by Save while a failure is armed with FailSaves.
var ErrInjected = errors.New("memory backend: injected save failure")

// Backend holds one snapshot.
type Backend struct {
	mu        sync.Mutex
	snap      store.Snapshot
	saves     int
	failSaves bool
	closed    bool
}

// New returns an empty backend.
func New() *Backend { return &Backend{} }

// NewWithSnapshot returns a backend preloaded with snap.
func NewWithSnapshot(snap store.Snapshot) *Backend {
	return &Backend{snap: clone(snap)}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Load(_ context.Context) (store.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.snap), nil
}

func (b *Backend) Save(_ context.Context, snap store.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSaves {
		return ErrInjected
	}
	b.snap = clone(snap)
	b.saves++
	return nil
}

func (b *Backend) Ping(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("memory backend closed")
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Saves returns how many snapshots were written.
func (b *Backend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// FailSaves makes every following Save fail (or succeed again with false).
func (b *Backend) FailSaves(fail bool) {
	b.mu.Lock()
	b.failSaves = fail
	b.mu.Unlock()
}

func clone(s store.Snapshot) store.Snapshot {
	out := store.Snapshot{
		Destinations: make([]store.DestinationRecord, len(s.Destinations)),
		Sights:       make([]store.SightRecord, len(s.Sights)),
	}
	for i, d := range s.Destinations {
		d.SightIDs = append([]string(nil), d.SightIDs...)
		out.Destinations[i] = d
	}
	copy(out.Sights, s.Sights)
	return out
}
