// Package planner is the mutation façade used by every consumer of the store.
// Each mutating operation ends with a commit; a failed commit is fatal.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/metrics"
	"github.com/MrSnakeDoc/itour/internal/store"
)

// FatalHandler receives unrecoverable errors: failed commits and identity
// collisions. The default logs at fatal level, which exits the process.
type FatalHandler func(err error)

type Planner struct {
	store   *store.Store
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	fatal   FatalHandler
}

type Option func(*Planner)

// WithClock overrides time.Now for new destinations.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithFatalHandler replaces the default fatal path.
func WithFatalHandler(h FatalHandler) Option {
	return func(p *Planner) { p.fatal = h }
}

// WithMetrics records changes and commits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// New wires a planner on top of s.
func New(s *store.Store, log logger.Logger, opts ...Option) *Planner {
	p := &Planner{
		store:  s,
		logger: log,
		now:    time.Now,
	}
	p.fatal = func(err error) {
		p.logger.Fatal("unrecoverable store error", logger.Error(err))
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics != nil {
		s.Subscribe(p.metrics.ObserveChange)
		p.metrics.TrackDestinations(s.Count)
	}
	return p
}

// Store returns the underlying store.
func (p *Planner) Store() *store.Store { return p.store }

// ─────────────────────────────
// Mutations
// ─────────────────────────────

// AddDestination creates a destination with every field at its default.
func (p *Planner) AddDestination(ctx context.Context) (domain.Destination, error) {
	d, err := p.store.Insert(domain.NewDestination(p.now()))
	if err != nil {
		return domain.Destination{}, p.check(err)
	}
	p.logger.Debug("destination added", logger.String("destination_id", d.ID))
	return d, p.commit(ctx)
}

// UpdateDestination applies patch to the destination.
func (p *Planner) UpdateDestination(ctx context.Context, id string, patch Patch) (domain.Destination, error) {
	if err := patch.Validate(); err != nil {
		return domain.Destination{}, err
	}
	d, err := p.store.Update(id, func(d *domain.Destination) error {
		patch.Apply(d)
		return nil
	})
	if err != nil {
		return domain.Destination{}, err
	}
	return d, p.commit(ctx)
}

// AddSight appends a sight named name (trimmed). An empty name is a silent
// no-op and reports false.
func (p *Planner) AddSight(ctx context.Context, destinationID, name string) (domain.Sight, bool, error) {
	if _, err := p.store.Get(destinationID); err != nil {
		return domain.Sight{}, false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Sight{}, false, nil
	}

	sight, err := p.store.AppendSight(destinationID, domain.NewSight(name))
	if err != nil {
		return domain.Sight{}, false, p.check(err)
	}
	p.logger.Debug("sight added",
		logger.String("destination_id", destinationID),
		logger.String("sight_id", sight.ID))
	return sight, true, p.commit(ctx)
}

// RemoveSight removes the first sight with sightID. An absent sight is a
// silent no-op and reports false.
func (p *Planner) RemoveSight(ctx context.Context, destinationID, sightID string) (bool, error) {
	removed, err := p.store.RemoveSight(destinationID, sightID)
	if err != nil {
		return false, err
	}
	return removed, p.commit(ctx)
}

// DeleteDestination deletes the destination and, per the ownership rules, its sights.
func (p *Planner) DeleteDestination(ctx context.Context, id string) error {
	if err := p.store.Delete(id); err != nil {
		return err
	}
	p.logger.Debug("destination deleted", logger.String("destination_id", id))
	return p.commit(ctx)
}

// Seed inserts templates when the store holds no destination yet. Each
// template gets fresh identities. It returns how many were inserted.
func (p *Planner) Seed(ctx context.Context, templates []domain.Destination) (int, error) {
	if p.store.Count() > 0 || len(templates) == 0 {
		return 0, nil
	}
	for _, t := range templates {
		d := t.Clone()
		d.ID = domain.NewID()
		for i := range d.Sights {
			d.Sights[i].ID = domain.NewID()
		}
		if d.Priority == 0 {
			d.Priority = domain.DefaultPriority
		}
		if _, err := p.store.Insert(d); err != nil {
			return 0, p.check(fmt.Errorf("seed %q: %w", t.Name, err))
		}
	}
	p.logger.Info("store seeded", logger.Int("destinations", len(templates)))
	return len(templates), p.commit(ctx)
}

// ─────────────────────────────
// Reads
// ─────────────────────────────

func (p *Planner) Destination(id string) (domain.Destination, error) {
	return p.store.Get(id)
}

func (p *Planner) Sight(id string) (domain.Sight, string, error) {
	return p.store.Sight(id)
}

func (p *Planner) List(q domain.Query) []domain.Destination {
	return p.store.Query(q)
}

func (p *Planner) Watch(q domain.Query) *store.LiveQuery {
	return p.store.Watch(q)
}

// ─────────────────────────────
// Commit
// ─────────────────────────────

// Persist commits pending changes for trigger. A failure goes to the fatal handler.
// The commit outlives a cancelled caller, such as a client that hung up.
func (p *Planner) Persist(ctx context.Context, trigger store.Trigger) error {
	start := time.Now()
	err := p.store.Persist(context.WithoutCancel(ctx), trigger)
	p.metrics.ObserveCommit(string(trigger), time.Since(start), err)
	if err != nil {
		p.fatal(err)
		return err
	}
	return nil
}

func (p *Planner) commit(ctx context.Context) error {
	return p.Persist(ctx, store.TriggerOperationEnd)
}

// check forwards identity collisions to the fatal handler.
func (p *Planner) check(err error) error {
	if errors.Is(err, store.ErrIdentityCollision) {
		p.fatal(err)
	}
	return err
}
