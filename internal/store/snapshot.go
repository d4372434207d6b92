package store

import (
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
)

// Snapshot is the full persisted state, split in one record list per entity.
// Sight order inside a destination is carried by DestinationRecord.SightIDs.
type Snapshot struct {
	Destinations []DestinationRecord `json:"destinations"`
	Sights       []SightRecord       `json:"sights"`
}

// DestinationRecord is the stored form of a destination.
type DestinationRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Details  string          `json:"details"`
	Date     time.Time       `json:"date"`
	Priority domain.Priority `json:"priority"`
	SightIDs []string        `json:"sight_ids"`
}

// SightRecord is the stored form of a sight. DestinationID is empty for a
// sight detached by a nullify rule.
type SightRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DestinationID string `json:"destination_id,omitempty"`
}

// Empty reports whether the snapshot holds no records at all.
func (s Snapshot) Empty() bool {
	return len(s.Destinations) == 0 && len(s.Sights) == 0
}

func recordOf(d *domain.Destination) DestinationRecord {
	ids := make([]string, len(d.Sights))
	for i, sight := range d.Sights {
		ids[i] = sight.ID
	}
	return DestinationRecord{
		ID:       d.ID,
		Name:     d.Name,
		Details:  d.Details,
		Date:     d.Date,
		Priority: d.Priority,
		SightIDs: ids,
	}
}
