package domain

import (
	"time"

	"github.com/google/uuid"
)

// Destination is the top-level travel-plan record.
//
// A Destination exclusively owns its Sights: they are created through it,
// ordered by insertion, and deleted together with it.
type Destination struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is a UUIDv7 string, so lexical order is creation order.
	ID string `json:"id"`

	// ─────────────────────────────
	// Editable fields
	// ─────────────────────────────

	Name    string    `json:"name"`
	Details string    `json:"details"`
	Date    time.Time `json:"date"`

	// Priority is one of PriorityMeh, PriorityMaybe, PriorityMust.
	Priority Priority `json:"priority"`

	// ─────────────────────────────
	// Composition
	// ─────────────────────────────

	// Sights is the ordered sequence of owned sights.
	Sights []Sight `json:"sights"`
}

// Sight is a named point of interest belonging to exactly one Destination.
type Sight struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewID returns a fresh time-ordered identity.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewDestination builds a Destination with every field at its default:
// empty name and details, date = now, priority Maybe, no sights.
func NewDestination(now time.Time) Destination {
	return Destination{
		ID:       NewID(),
		Date:     now,
		Priority: DefaultPriority,
		Sights:   []Sight{},
	}
}

// NewSight builds a Sight with a fresh identity.
func NewSight(name string) Sight {
	return Sight{ID: NewID(), Name: name}
}

// Clone returns a deep copy; the sight slice is never shared.
func (d Destination) Clone() Destination {
	cp := d
	cp.Sights = make([]Sight, len(d.Sights))
	copy(cp.Sights, d.Sights)
	return cp
}

// SightIndex returns the position of the first sight with the given id, or -1.
func (d Destination) SightIndex(id string) int {
	for i, s := range d.Sights {
		if s.ID == id {
			return i
		}
	}
	return -1
}
