package planner

import (
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
)

// Patch lists field assignments for a destination. Nil fields are left alone.
type Patch struct {
	Name     *string          `json:"name,omitempty"`
	Details  *string          `json:"details,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
	Priority *domain.Priority `json:"priority,omitempty"`
}

// Empty reports whether the patch assigns nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Details == nil && p.Date == nil && p.Priority == nil
}

// Validate checks the assigned values without touching any destination.
func (p Patch) Validate() error {
	if p.Priority != nil {
		return p.Priority.Validate()
	}
	return nil
}

// Apply assigns the non-nil fields to d.
func (p Patch) Apply(d *domain.Destination) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Details != nil {
		d.Details = *p.Details
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
}
