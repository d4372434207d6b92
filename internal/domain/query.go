package domain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// SortKey selects the single ordering applied to a destination listing.
type SortKey int

const (
	SortByName     SortKey = iota // ascending, locale-aware
	SortByPriority                // descending
	SortByDate                    // ascending
)

// ErrInvalidSortKey is returned by ParseSortKey for unknown keys.
var ErrInvalidSortKey = errors.New("invalid sort key")

// ParseSortKey accepts "name", "priority" or "date". Empty means name.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortByName, nil
	case "priority":
		return SortByPriority, nil
	case "date":
		return SortByDate, nil
	default:
		return SortByName, fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
}

func (k SortKey) String() string {
	switch k {
	case SortByPriority:
		return "priority"
	case SortByDate:
		return "date"
	default:
		return "name"
	}
}

// Query is a (sort key, search text) pair over destinations.
//
// An empty Search matches everything; otherwise a destination matches when its
// name contains Search, ignoring case and diacritics under the store locale.
// Ties on the sort key are broken by ID, which for UUIDv7 is creation order.
type Query struct {
	Sort   SortKey
	Search string
}

// Apply filters and orders destinations. The input slice is not modified.
func (q Query) Apply(loc Locale, all []Destination) []Destination {
	out := make([]Destination, 0, len(all))

	var m *search.Matcher
	if q.Search != "" {
		m = loc.matcher()
	}

	for _, d := range all {
		if m != nil {
			if start, _ := m.IndexString(d.Name, q.Search); start < 0 {
				continue
			}
		}
		out = append(out, d)
	}

	slices.SortFunc(out, q.compare(loc.collator()))
	return out
}

func (q Query) compare(c *collate.Collator) func(a, b Destination) int {
	return func(a, b Destination) int {
		var r int
		switch q.Sort {
		case SortByPriority:
			r = cmp.Compare(b.Priority, a.Priority)
		case SortByDate:
			r = a.Date.Compare(b.Date)
		default:
			r = c.CompareString(a.Name, b.Name)
		}
		if r != 0 {
			return r
		}
		return strings.Compare(a.ID, b.ID)
	}
}

// Locale carries the language used for name collation and search.
// Collators and matchers keep internal buffers, so a fresh one is built per Apply.
type Locale struct {
	tag language.Tag
}

// DefaultLocale is English.
func DefaultLocale() Locale {
	return Locale{tag: language.English}
}

// ParseLocale parses a BCP 47 tag such as "en", "it" or "fr-CA".
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Locale{}, fmt.Errorf("parse locale %q: %w", s, err)
	}
	return Locale{tag: tag}, nil
}

func (l Locale) String() string { return l.tag.String() }

func (l Locale) collator() *collate.Collator {
	return collate.New(l.tag, collate.IgnoreCase, collate.Numeric)
}

func (l Locale) matcher() *search.Matcher {
	return search.New(l.tag, search.IgnoreCase, search.IgnoreDiacritics)
}
