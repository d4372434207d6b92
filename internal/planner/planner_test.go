package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/metrics"
	"github.com/MrSnakeDoc/itour/internal/store"
	"github.com/MrSnakeDoc/itour/internal/store/memory"
)

var now = time.Date(2024, 7, 14, 8, 30, 0, 0, time.UTC)

type fatalRecorder struct{ errs []error }

func (f *fatalRecorder) handle(err error) { f.errs = append(f.errs, err) }

func newPlanner(t *testing.T, opts ...Option) (*Planner, *memory.Backend, *fatalRecorder) {
	t.Helper()
	b := memory.New()
	s, err := store.Open(context.Background(), b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rec := &fatalRecorder{}
	opts = append([]Option{WithClock(func() time.Time { return now }), WithFatalHandler(rec.handle)}, opts...)
	return New(s, logger.NewNop(), opts...), b, rec
}

func ptr[T any](v T) *T { return &v }

func TestAddDestination_DefaultsAndCommit(t *testing.T) {
	p, b, _ := newPlanner(t)

	d, err := p.AddDestination(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Empty(t, d.Name)
	assert.Empty(t, d.Details)
	assert.Equal(t, now, d.Date)
	assert.Equal(t, domain.PriorityMaybe, d.Priority)
	assert.Empty(t, d.Sights)

	assert.Equal(t, 1, b.Saves(), "every operation ends with a commit")
	assert.False(t, p.Store().Dirty())
}

func TestEndToEnd_RomeAndColosseum(t *testing.T) {
	p, b, _ := newPlanner(t)
	ctx := context.Background()

	rome, err := p.AddDestination(ctx)
	require.NoError(t, err)
	rome, err = p.UpdateDestination(ctx, rome.ID, Patch{Name: ptr("Rome"), Priority: ptr(domain.PriorityMaybe)})
	require.NoError(t, err)

	sight, added, err := p.AddSight(ctx, rome.ID, "Colosseum")
	require.NoError(t, err)
	require.True(t, added)

	got := p.List(domain.Query{Sort: domain.SortByName})
	require.Len(t, got, 1)
	assert.Equal(t, "Rome", got[0].Name)
	assert.Equal(t, []domain.Sight{sight}, got[0].Sights)

	require.NoError(t, p.DeleteDestination(ctx, rome.ID))
	assert.Empty(t, p.List(domain.Query{Sort: domain.SortByName}))

	_, _, err = p.Sight(sight.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	snap, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestAddSight_EmptyNameIsNoop(t *testing.T) {
	p, b, _ := newPlanner(t)
	ctx := context.Background()
	d, err := p.AddDestination(ctx)
	require.NoError(t, err)
	saves := b.Saves()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, added, err := p.AddSight(ctx, d.ID, name)
		require.NoError(t, err)
		assert.False(t, added)
	}

	got, err := p.Destination(d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Sights)
	assert.Equal(t, saves, b.Saves())
}

func TestAddSight_TrimsName(t *testing.T) {
	p, _, _ := newPlanner(t)
	ctx := context.Background()
	d, _ := p.AddDestination(ctx)

	sight, added, err := p.AddSight(ctx, d.ID, "  Trevi Fountain ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Trevi Fountain", sight.Name)

	_, _, err = p.AddSight(ctx, "missing", "Trevi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemoveSight_AbsentIsNoop(t *testing.T) {
	p, _, _ := newPlanner(t)
	ctx := context.Background()
	d, _ := p.AddDestination(ctx)
	a, _, _ := p.AddSight(ctx, d.ID, "Colosseum")
	c, _, _ := p.AddSight(ctx, d.ID, "Pantheon")

	removed, err := p.RemoveSight(ctx, d.ID, domain.NewID())
	require.NoError(t, err)
	assert.False(t, removed)

	got, _ := p.Destination(d.ID)
	assert.Equal(t, []domain.Sight{a, c}, got.Sights)

	removed, err = p.RemoveSight(ctx, d.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	got, _ = p.Destination(d.ID)
	assert.Equal(t, []domain.Sight{c}, got.Sights)
}

func TestUpdateDestination(t *testing.T) {
	p, _, _ := newPlanner(t)
	ctx := context.Background()
	d, _ := p.AddDestination(ctx)

	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := p.UpdateDestination(ctx, d.ID, Patch{Details: ptr("pasta"), Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "pasta", got.Details)
	assert.Equal(t, date, got.Date)
	assert.Equal(t, domain.PriorityMaybe, got.Priority, "untouched fields keep their value")

	_, err = p.UpdateDestination(ctx, d.ID, Patch{Priority: ptr(domain.Priority(9))})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	_, err = p.UpdateDestination(ctx, "missing", Patch{Name: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommitFailureIsFatal(t *testing.T) {
	p, b, rec := newPlanner(t)
	b.FailSaves(true)

	_, err := p.AddDestination(context.Background())

	var ce *store.CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, store.TriggerOperationEnd, ce.Trigger)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], memory.ErrInjected)
}

func TestPersist_ExplicitTrigger(t *testing.T) {
	m := metrics.New()
	p, b, rec := newPlanner(t, WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, p.Persist(ctx, store.TriggerExplicit))
	assert.Zero(t, b.Saves())

	_, err := p.AddDestination(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.errs)

	reg := m.Registry()
	n, err := testutil.GatherAndCount(reg, "itour_store_commits_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per trigger/result pair")

	n, err = testutil.GatherAndCount(reg, "itour_store_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeed(t *testing.T) {
	p, _, _ := newPlanner(t)
	ctx := context.Background()
	templates := []domain.Destination{
		{ID: "fixed", Name: "Rome", Sights: []domain.Sight{{ID: "fixed-sight", Name: "Colosseum"}}},
		{Name: "Florence", Priority: domain.PriorityMust},
	}

	n, err := p.Seed(ctx, templates)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := p.List(domain.Query{})
	require.Len(t, got, 2)
	assert.Equal(t, "Florence", got[0].Name)
	assert.NotEqual(t, "fixed", got[1].ID, "templates get fresh identities")
	assert.Equal(t, domain.DefaultPriority, got[1].Priority)
	assert.Equal(t, "fixed-sight", templates[0].Sights[0].ID, "templates are not modified")

	n, err = p.Seed(ctx, templates)
	require.NoError(t, err)
	assert.Zero(t, n, "non-empty store is not seeded")
}
