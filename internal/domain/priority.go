package domain

import (
	"errors"
	"fmt"
)

// Priority ranks how much a destination matters to the traveller.
type Priority int

const (
	PriorityMeh   Priority = 1
	PriorityMaybe Priority = 2
	PriorityMust  Priority = 3

	DefaultPriority = PriorityMaybe
)

// ErrInvalidPriority is returned when a priority is outside {1, 2, 3}.
var ErrInvalidPriority = errors.New("invalid priority")

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	return p >= PriorityMeh && p <= PriorityMust
}

// Validate returns ErrInvalidPriority (wrapped with the value) when p is unknown.
func (p Priority) Validate() error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d (want 1, 2 or 3)", ErrInvalidPriority, int(p))
	}
	return nil
}

// String returns the label shown to users.
func (p Priority) String() string {
	switch p {
	case PriorityMeh:
		return "Meh"
	case PriorityMaybe:
		return "Maybe"
	case PriorityMust:
		return "Must"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}
