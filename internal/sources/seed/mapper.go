package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
)

// Mapper converts a seed File to destination templates
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper; destinations without a date get now().
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

// MapDestinations converts the file to destinations, in file order.
// Identities are left empty; the planner assigns them when seeding.
func (m *Mapper) MapDestinations(f File) ([]domain.Destination, error) {
	var out []domain.Destination

	for _, group := range f {
		for _, entries := range group {
			for _, entry := range entries {
				for name, props := range entry {
					name = strings.TrimSpace(name)
					if name == "" {
						continue
					}
					d, err := m.mapOne(name, props)
					if err != nil {
						return nil, fmt.Errorf("destination %q: %w", name, err)
					}
					out = append(out, d)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no destinations found in seed file")
	}
	return out, nil
}

func (m *Mapper) mapOne(name string, p DestinationProps) (domain.Destination, error) {
	d := domain.Destination{
		Name:     name,
		Details:  p.Details,
		Date:     m.now(),
		Priority: domain.DefaultPriority,
		Sights:   make([]domain.Sight, 0, len(p.Sights)),
	}

	if p.Date != "" {
		date, err := parseDate(p.Date)
		if err != nil {
			return d, err
		}
		d.Date = date
	}
	if p.Priority != "" {
		prio, err := parsePriority(p.Priority)
		if err != nil {
			return d, err
		}
		d.Priority = prio
	}
	for _, s := range p.Sights {
		if s = strings.TrimSpace(s); s != "" {
			d.Sights = append(d.Sights, domain.Sight{Name: s})
		}
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func parsePriority(s string) (domain.Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range []domain.Priority{domain.PriorityMeh, domain.PriorityMaybe, domain.PriorityMust} {
		if s == strings.ToLower(p.String()) {
			return p, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, s)
	}
	p := domain.Priority(n)
	return p, p.Validate()
}
