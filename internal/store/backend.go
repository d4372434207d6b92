package store

import "context"

// Backend is the durable storage behind the Store.
//
// A backend only ever sees full snapshots: Save replaces whatever was stored
// before, and Load returns the last saved snapshot (or an empty one).
type Backend interface {
	Name() string
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}
