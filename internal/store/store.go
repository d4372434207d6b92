package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/logger"
)

// Store is the process-wide entity store for destinations and their sights.
//
// Every read and mutation is serialised behind one mutex. Mutations mark the
// store dirty, recompute every live query inside the same critical section,
// then publish their changes to subscribers. Persist writes a full snapshot to
// the backend when the store is dirty.
type Store struct {
	mu      sync.Mutex
	backend Backend
	rules   domain.OwnershipRules
	locale  domain.Locale
	logger  logger.Logger
	now     func() time.Time

	destinations map[string]*domain.Destination // ID -> Destination (owns its sights)
	owners       map[string]string              // sight ID -> destination ID
	orphans      map[string]domain.Sight        // sights detached by a nullify rule

	dirty      bool
	revision   uint64
	lastCommit time.Time
	closed     bool

	lives map[*LiveQuery]struct{}

	subMu       sync.RWMutex
	subscribers map[int]func(domain.Change)
	nextSub     int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger (default: no-op).
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLocale sets the locale used for name ordering and search.
func WithLocale(loc domain.Locale) Option {
	return func(s *Store) { s.locale = loc }
}

// WithOwnershipRules replaces the default ownership table.
func WithOwnershipRules(r domain.OwnershipRules) Option {
	return func(s *Store) { s.rules = r }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open builds a Store and hydrates it from the backend's last snapshot.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:      backend,
		rules:        domain.DefaultOwnershipRules(),
		locale:       domain.DefaultLocale(),
		logger:       logger.NewNop(),
		now:          time.Now,
		destinations: make(map[string]*domain.Destination),
		owners:       make(map[string]string),
		orphans:      make(map[string]domain.Sight),
		lives:        make(map[*LiveQuery]struct{}),
		subscribers:  make(map[int]func(domain.Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.rules.Validate(); err != nil {
		return nil, err
	}
	if _, ok := s.rules.RuleFor(domain.EntityDestination, domain.EntitySight); !ok {
		return nil, fmt.Errorf("ownership rules: no delete rule declared for %s -> %s",
			domain.EntityDestination, domain.EntitySight)
	}

	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", backend.Name(), err)
	}
	if err := s.hydrate(snap); err != nil {
		return nil, fmt.Errorf("hydrate from %s: %w", backend.Name(), err)
	}

	s.logger.Info("store opened",
		logger.String("backend", backend.Name()),
		logger.Int("destinations", len(s.destinations)),
		logger.Int("sights", len(s.owners)+len(s.orphans)),
		logger.Bool("dirty", s.dirty))

	return s, nil
}

// hydrate fills an empty store from a snapshot. Records written by older
// versions get defaults for missing fields; anything that would break the
// ownership invariant is dropped and the store is left dirty so the next
// commit rewrites a clean snapshot.
func (s *Store) hydrate(snap Snapshot) error {
	sights := make(map[string]SightRecord, len(snap.Sights))
	for _, rec := range snap.Sights {
		if _, dup := sights[rec.ID]; dup {
			return fmt.Errorf("sight %s: %w", rec.ID, ErrIdentityCollision)
		}
		sights[rec.ID] = rec
	}

	placed := make(map[string]bool, len(sights))
	for _, rec := range snap.Destinations {
		if _, dup := s.destinations[rec.ID]; dup {
			return fmt.Errorf("destination %s: %w", rec.ID, ErrIdentityCollision)
		}
		d := &domain.Destination{
			ID:       rec.ID,
			Name:     rec.Name,
			Details:  rec.Details,
			Date:     rec.Date,
			Priority: rec.Priority,
			Sights:   make([]domain.Sight, 0, len(rec.SightIDs)),
		}
		if d.Priority == 0 {
			d.Priority = domain.DefaultPriority
		} else if !d.Priority.Valid() {
			s.logger.Warn("normalising invalid stored priority",
				logger.String("destination_id", d.ID),
				logger.Int("priority", int(d.Priority)))
			d.Priority = domain.DefaultPriority
			s.dirty = true
		}
		for _, sid := range rec.SightIDs {
			sr, ok := sights[sid]
			if !ok || placed[sid] {
				s.logger.Warn("dropping dangling sight reference",
					logger.String("destination_id", d.ID),
					logger.String("sight_id", sid))
				s.dirty = true
				continue
			}
			d.Sights = append(d.Sights, domain.Sight{ID: sr.ID, Name: sr.Name})
			s.owners[sid] = d.ID
			placed[sid] = true
		}
		s.destinations[d.ID] = d
	}

	// Sights that name an owner but are missing from its ordered list are
	// appended; sights whose owner is gone are dropped.
	for _, rec := range snap.Sights {
		if placed[rec.ID] {
			continue
		}
		if rec.DestinationID == "" {
			s.orphans[rec.ID] = domain.Sight{ID: rec.ID, Name: rec.Name}
			continue
		}
		d, ok := s.destinations[rec.DestinationID]
		if !ok {
			s.logger.Warn("dropping sight of a missing destination",
				logger.String("sight_id", rec.ID),
				logger.String("destination_id", rec.DestinationID))
			s.dirty = true
			continue
		}
		d.Sights = append(d.Sights, domain.Sight{ID: rec.ID, Name: rec.Name})
		s.owners[rec.ID] = d.ID
		s.dirty = true
	}
	return nil
}

// ─────────────────────────────
// Mutations
// ─────────────────────────────

// mutate runs fn under the store lock. Non-empty changes mark the store dirty,
// bump the revision and refresh every live query before the lock is released;
// subscribers are called after.
func (s *Store) mutate(fn func() ([]domain.Change, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	changes, err := fn()
	if err == nil && len(changes) > 0 {
		s.dirty = true
		s.revision++
		s.refreshLocked()
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.emit(changes)
	return nil
}

// Insert adds a new destination together with any sights it carries.
func (s *Store) Insert(d domain.Destination) (domain.Destination, error) {
	d = d.Clone()
	if d.ID == "" {
		return domain.Destination{}, fmt.Errorf("insert destination: empty id")
	}
	if err := d.Priority.Validate(); err != nil {
		return domain.Destination{}, fmt.Errorf("insert destination %s: %w", d.ID, err)
	}

	err := s.mutate(func() ([]domain.Change, error) {
		if _, exists := s.destinations[d.ID]; exists {
			return nil, fmt.Errorf("destination %s: %w", d.ID, ErrIdentityCollision)
		}
		for _, sight := range d.Sights {
			if s.sightExistsLocked(sight.ID) {
				return nil, fmt.Errorf("sight %s: %w", sight.ID, ErrIdentityCollision)
			}
		}

		s.destinations[d.ID] = &d
		changes := []domain.Change{{Entity: domain.EntityDestination, Action: domain.ActionCreate, ID: d.ID}}
		for _, sight := range d.Sights {
			s.owners[sight.ID] = d.ID
			changes = append(changes, domain.Change{
				Entity: domain.EntitySight, Action: domain.ActionCreate, ID: sight.ID, ParentID: d.ID,
			})
		}
		return changes, nil
	})
	if err != nil {
		return domain.Destination{}, err
	}
	return d.Clone(), nil
}

// Update applies field assignments to a destination. The identity and the
// sight sequence are preserved whatever fn does to them.
func (s *Store) Update(id string, fn func(d *domain.Destination) error) (domain.Destination, error) {
	var out domain.Destination
	err := s.mutate(func() ([]domain.Change, error) {
		cur, ok := s.destinations[id]
		if !ok {
			return nil, fmt.Errorf("destination %s: %w", id, ErrNotFound)
		}

		next := cur.Clone()
		if err := fn(&next); err != nil {
			return nil, err
		}
		next.ID = cur.ID
		next.Sights = cur.Sights
		if err := next.Priority.Validate(); err != nil {
			return nil, fmt.Errorf("update destination %s: %w", id, err)
		}

		*cur = next
		out = cur.Clone()
		return []domain.Change{{Entity: domain.EntityDestination, Action: domain.ActionUpdate, ID: id}}, nil
	})
	return out, err
}

// AppendSight adds sight at the end of the destination's sequence.
func (s *Store) AppendSight(destinationID string, sight domain.Sight) (domain.Sight, error) {
	err := s.mutate(func() ([]domain.Change, error) {
		d, ok := s.destinations[destinationID]
		if !ok {
			return nil, fmt.Errorf("destination %s: %w", destinationID, ErrNotFound)
		}
		if s.sightExistsLocked(sight.ID) {
			return nil, fmt.Errorf("sight %s: %w", sight.ID, ErrIdentityCollision)
		}

		d.Sights = append(d.Sights, sight)
		s.owners[sight.ID] = destinationID
		return []domain.Change{
			{Entity: domain.EntitySight, Action: domain.ActionCreate, ID: sight.ID, ParentID: destinationID},
			{Entity: domain.EntityDestination, Action: domain.ActionUpdate, ID: destinationID},
		}, nil
	})
	if err != nil {
		return domain.Sight{}, err
	}
	return sight, nil
}

// RemoveSight removes the first sight with the given id from the destination.
// It reports false, without error, when the destination does not own it.
func (s *Store) RemoveSight(destinationID, sightID string) (bool, error) {
	removed := false
	err := s.mutate(func() ([]domain.Change, error) {
		d, ok := s.destinations[destinationID]
		if !ok {
			return nil, fmt.Errorf("destination %s: %w", destinationID, ErrNotFound)
		}
		i := d.SightIndex(sightID)
		if i < 0 {
			return nil, nil
		}

		d.Sights = slices.Delete(d.Sights, i, i+1)
		delete(s.owners, sightID)
		removed = true
		return []domain.Change{
			{Entity: domain.EntitySight, Action: domain.ActionDelete, ID: sightID, ParentID: destinationID},
			{Entity: domain.EntityDestination, Action: domain.ActionUpdate, ID: destinationID},
		}, nil
	})
	return removed, err
}

// Delete removes a destination and applies the ownership rules to its sights:
// cascade deletes them, nullify detaches them, deny refuses the deletion while
// any remain.
func (s *Store) Delete(id string) error {
	return s.mutate(func() ([]domain.Change, error) {
		d, ok := s.destinations[id]
		if !ok {
			return nil, fmt.Errorf("destination %s: %w", id, ErrNotFound)
		}

		rules := s.rules.For(domain.EntityDestination)
		for _, r := range rules {
			if r.Child == domain.EntitySight && r.Rule == domain.DeleteDeny && len(d.Sights) > 0 {
				return nil, fmt.Errorf("destination %s: %w", id, ErrDeleteDenied)
			}
		}

		var changes []domain.Change
		for _, r := range rules {
			if r.Child != domain.EntitySight {
				continue
			}
			for _, sight := range d.Sights {
				delete(s.owners, sight.ID)
				switch r.Rule {
				case domain.DeleteCascade:
					changes = append(changes, domain.Change{
						Entity: domain.EntitySight, Action: domain.ActionDelete, ID: sight.ID, ParentID: id,
					})
				case domain.DeleteNullify:
					s.orphans[sight.ID] = sight
					changes = append(changes, domain.Change{
						Entity: domain.EntitySight, Action: domain.ActionUpdate, ID: sight.ID,
					})
				}
			}
		}

		delete(s.destinations, id)
		changes = append(changes, domain.Change{Entity: domain.EntityDestination, Action: domain.ActionDelete, ID: id})
		return changes, nil
	})
}

func (s *Store) sightExistsLocked(id string) bool {
	if _, ok := s.owners[id]; ok {
		return true
	}
	_, ok := s.orphans[id]
	return ok
}

// ─────────────────────────────
// Reads
// ─────────────────────────────

// Get returns a copy of the destination with the given id.
func (s *Store) Get(id string) (domain.Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.destinations[id]
	if !ok {
		return domain.Destination{}, fmt.Errorf("destination %s: %w", id, ErrNotFound)
	}
	return d.Clone(), nil
}

// Sight returns the sight with the given id and the id of its owning
// destination ("" for a detached sight).
func (s *Store) Sight(id string) (domain.Sight, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.owners[id]; ok {
		d := s.destinations[owner]
		if i := d.SightIndex(id); i >= 0 {
			return d.Sights[i], owner, nil
		}
	}
	if sight, ok := s.orphans[id]; ok {
		return sight, "", nil
	}
	return domain.Sight{}, "", fmt.Errorf("sight %s: %w", id, ErrNotFound)
}

// Count returns the number of destinations.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.destinations)
}

// Query runs q once over the current state.
func (s *Store) Query(q domain.Query) []domain.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(q)
}

func (s *Store) queryLocked(q domain.Query) []domain.Destination {
	all := make([]domain.Destination, 0, len(s.destinations))
	for _, d := range s.destinations {
		all = append(all, d.Clone())
	}
	return q.Apply(s.locale, all)
}

// Locale returns the locale used for ordering and search.
func (s *Store) Locale() domain.Locale { return s.locale }

// Revision is incremented by every mutation.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Dirty reports whether there are changes not yet committed.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// LastCommit returns the time of the last successful commit (zero if none).
func (s *Store) LastCommit() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommit
}

// BackendName returns the name of the durable backend.
func (s *Store) BackendName() string { return s.backend.Name() }

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

// ─────────────────────────────
// Commit
// ─────────────────────────────

// Persist writes a full snapshot to the backend if there are pending changes.
// It is a no-op on a clean store. The lock is held while saving, so reads made
// after Persist returns observe the committed state.
func (s *Store) Persist(ctx context.Context, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.dirty {
		s.logger.Debug("persist skipped, store clean", logger.String("trigger", string(trigger)))
		return nil
	}

	start := s.now()
	if err := s.backend.Save(ctx, s.snapshotLocked()); err != nil {
		return &CommitError{Trigger: trigger, Backend: s.backend.Name(), Err: err}
	}
	s.dirty = false
	s.lastCommit = s.now()

	s.logger.Debug("store committed",
		logger.String("trigger", string(trigger)),
		logger.String("backend", s.backend.Name()),
		logger.Duration("took", s.lastCommit.Sub(start)))
	return nil
}

// Snapshot returns the state as it would be committed.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	ids := make([]string, 0, len(s.destinations))
	for id := range s.destinations {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	snap := Snapshot{
		Destinations: make([]DestinationRecord, 0, len(ids)),
		Sights:       make([]SightRecord, 0, len(s.owners)+len(s.orphans)),
	}
	for _, id := range ids {
		d := s.destinations[id]
		snap.Destinations = append(snap.Destinations, recordOf(d))
		for _, sight := range d.Sights {
			snap.Sights = append(snap.Sights, SightRecord{ID: sight.ID, Name: sight.Name, DestinationID: d.ID})
		}
	}

	orphans := make([]SightRecord, 0, len(s.orphans))
	for _, sight := range s.orphans {
		orphans = append(orphans, SightRecord{ID: sight.ID, Name: sight.Name})
	}
	slices.SortFunc(orphans, func(a, b SightRecord) int { return strings.Compare(a.ID, b.ID) })
	snap.Sights = append(snap.Sights, orphans...)

	return snap
}

// Close stops every live query and closes the backend. Pending changes are
// not committed; callers persist with TriggerShutdown first.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	lives := make([]*LiveQuery, 0, len(s.lives))
	for lq := range s.lives {
		lives = append(lives, lq)
	}
	clear(s.lives)
	s.mu.Unlock()

	for _, lq := range lives {
		lq.stop()
	}
	return s.backend.Close()
}
