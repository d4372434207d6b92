package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no destination or sight has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrIdentityCollision is returned by Insert when the id is already taken.
	ErrIdentityCollision = errors.New("identity collision")
	// ErrDeleteDenied is returned by Delete when a deny rule blocks the deletion.
	ErrDeleteDenied = errors.New("delete denied: destination still owns sights")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store closed")
)

// CommitError reports a failed write of pending changes to the backend.
// The pending changes stay in memory and the store stays dirty.
type CommitError struct {
	Trigger Trigger
	Backend string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit (%s) to %s failed: %v", e.Trigger, e.Backend, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
