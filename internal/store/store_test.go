package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/store"
	"github.com/MrSnakeDoc/itour/internal/store/memory"
)

var day = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T, opts ...store.Option) (*store.Store, *memory.Backend) {
	t.Helper()
	b := memory.New()
	s, err := store.Open(context.Background(), b, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, b
}

func insert(t *testing.T, s *store.Store, name string, p domain.Priority, sights ...string) domain.Destination {
	t.Helper()
	d := domain.NewDestination(day)
	d.Name = name
	d.Priority = p
	for _, n := range sights {
		d.Sights = append(d.Sights, domain.NewSight(n))
	}
	got, err := s.Insert(d)
	require.NoError(t, err)
	return got
}

func names(ds []domain.Destination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestInsert_IdentityCollision(t *testing.T) {
	s, _ := openStore(t)
	d := insert(t, s, "Rome", domain.PriorityMaybe)

	_, err := s.Insert(d)
	assert.ErrorIs(t, err, store.ErrIdentityCollision)
	assert.Equal(t, 1, s.Count())
}

func TestInsert_RejectsInvalidPriority(t *testing.T) {
	s, _ := openStore(t)
	d := domain.NewDestination(day)
	d.Priority = 7

	_, err := s.Insert(d)
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	assert.Zero(t, s.Count())
}

func TestUpdate_PreservesIdentityAndSights(t *testing.T) {
	s, _ := openStore(t)
	d := insert(t, s, "Rome", domain.PriorityMaybe, "Colosseum")

	got, err := s.Update(d.ID, func(x *domain.Destination) error {
		x.ID = "hijack"
		x.Name = "Roma"
		x.Sights = nil
		x.Priority = domain.PriorityMust
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "Roma", got.Name)
	assert.Equal(t, domain.PriorityMust, got.Priority)
	require.Len(t, got.Sights, 1)

	_, err = s.Update(d.ID, func(x *domain.Destination) error { x.Priority = 0; return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	_, err = s.Update("missing", func(*domain.Destination) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSights_AppendAndRemove(t *testing.T) {
	s, _ := openStore(t)
	d := insert(t, s, "Florence", domain.PriorityMaybe)

	uffizi, err := s.AppendSight(d.ID, domain.NewSight("Uffizi"))
	require.NoError(t, err)
	duomo, err := s.AppendSight(d.ID, domain.NewSight("Duomo"))
	require.NoError(t, err)

	got, err := s.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Sight{uffizi, duomo}, got.Sights)

	removed, err := s.RemoveSight(d.ID, "absent")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveSight(d.ID, uffizi.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, _ = s.Get(d.ID)
	assert.Equal(t, []domain.Sight{duomo}, got.Sights)

	_, _, err = s.Sight(uffizi.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.AppendSight("missing", domain.NewSight("x"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_CascadesToSights(t *testing.T) {
	s, b := openStore(t)
	rome := insert(t, s, "Rome", domain.PriorityMaybe, "Colosseum", "Pantheon")
	naples := insert(t, s, "Naples", domain.PriorityMeh, "Pompeii")

	require.NoError(t, s.Delete(rome.ID))

	for _, sight := range rome.Sights {
		_, _, err := s.Sight(sight.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	sight, owner, err := s.Sight(naples.Sights[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pompeii", sight.Name)
	assert.Equal(t, naples.ID, owner)

	require.NoError(t, s.Persist(context.Background(), store.TriggerExplicit))
	snap, err := b.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Destinations, 1)
	require.Len(t, snap.Sights, 1)
	assert.Equal(t, naples.Sights[0].ID, snap.Sights[0].ID)

	assert.ErrorIs(t, s.Delete(rome.ID), store.ErrNotFound)
}

func TestDelete_NullifyAndDenyRules(t *testing.T) {
	t.Run("nullify detaches sights", func(t *testing.T) {
		s, _ := openStore(t, store.WithOwnershipRules(domain.OwnershipRules{
			domain.EntityDestination: {{Child: domain.EntitySight, Rule: domain.DeleteNullify}},
		}))
		d := insert(t, s, "Rome", domain.PriorityMaybe, "Colosseum")

		require.NoError(t, s.Delete(d.ID))
		sight, owner, err := s.Sight(d.Sights[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Colosseum", sight.Name)
		assert.Empty(t, owner)
		assert.Len(t, s.Snapshot().Sights, 1)
	})

	t.Run("deny refuses while sights remain", func(t *testing.T) {
		s, _ := openStore(t, store.WithOwnershipRules(domain.OwnershipRules{
			domain.EntityDestination: {{Child: domain.EntitySight, Rule: domain.DeleteDeny}},
		}))
		d := insert(t, s, "Rome", domain.PriorityMaybe, "Colosseum")

		assert.ErrorIs(t, s.Delete(d.ID), store.ErrDeleteDenied)
		assert.Equal(t, 1, s.Count())

		_, err := s.RemoveSight(d.ID, d.Sights[0].ID)
		require.NoError(t, err)
		assert.NoError(t, s.Delete(d.ID))
	})
}

func TestOpen_RequiresDestinationSightRule(t *testing.T) {
	_, err := store.Open(context.Background(), memory.New(), store.WithOwnershipRules(domain.OwnershipRules{}))
	assert.Error(t, err)

	_, err = store.Open(context.Background(), memory.New(), store.WithOwnershipRules(domain.OwnershipRules{
		domain.EntityDestination: {{Child: domain.EntitySight, Rule: "explode"}},
	}))
	assert.Error(t, err)
}

func TestOpen_HydratesAndNormalises(t *testing.T) {
	b := memory.NewWithSnapshot(store.Snapshot{
		Destinations: []store.DestinationRecord{
			{ID: "d1", Name: "Rome", Date: day, SightIDs: []string{"s1", "ghost"}},
			{ID: "d2", Name: "Naples", Date: day, Priority: domain.PriorityMust},
		},
		Sights: []store.SightRecord{
			{ID: "s1", Name: "Colosseum", DestinationID: "d1"},
			{ID: "s2", Name: "Pantheon", DestinationID: "d1"},
			{ID: "s3", Name: "Uffizi", DestinationID: "gone"},
		},
	})

	s, err := store.Open(context.Background(), b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rome, err := s.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPriority, rome.Priority, "missing priority takes the default")
	assert.Equal(t, []domain.Sight{{ID: "s1", Name: "Colosseum"}, {ID: "s2", Name: "Pantheon"}}, rome.Sights)

	_, _, err = s.Sight("s3")
	assert.ErrorIs(t, err, store.ErrNotFound, "sight of a missing destination is dropped")
	assert.True(t, s.Dirty())
}

func TestPersist(t *testing.T) {
	s, b := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, store.TriggerInterval))
	assert.Zero(t, b.Saves(), "clean store does not write")

	insert(t, s, "Rome", domain.PriorityMaybe)
	assert.True(t, s.Dirty())
	require.NoError(t, s.Persist(ctx, store.TriggerOperationEnd))
	require.NoError(t, s.Persist(ctx, store.TriggerOperationEnd))
	assert.Equal(t, 1, b.Saves())
	assert.False(t, s.Dirty())
	assert.False(t, s.LastCommit().IsZero())

	b.FailSaves(true)
	insert(t, s, "Naples", domain.PriorityMaybe)
	err := s.Persist(ctx, store.TriggerShutdown)

	var ce *store.CommitError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, store.TriggerShutdown, ce.Trigger)
	assert.Equal(t, "memory", ce.Backend)
	assert.ErrorIs(t, err, memory.ErrInjected)
	assert.True(t, s.Dirty(), "failed commit keeps pending changes")
}

func TestQuery_UsesStoreLocale(t *testing.T) {
	s, _ := openStore(t)
	insert(t, s, "Zurich", domain.PriorityMaybe)
	insert(t, s, "Ålesund", domain.PriorityMaybe)
	insert(t, s, "Berlin", domain.PriorityMaybe)

	got := s.Query(domain.Query{Sort: domain.SortByName})
	assert.Equal(t, []string{"Ålesund", "Berlin", "Zurich"}, names(got))

	got = s.Query(domain.Query{Search: "ales"})
	assert.Equal(t, []string{"Ålesund"}, names(got))
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	s, _ := openStore(t)

	var changes []domain.Change
	unsubscribe := s.Subscribe(func(c domain.Change) { changes = append(changes, c) })

	d := insert(t, s, "Rome", domain.PriorityMaybe, "Colosseum")
	require.NoError(t, s.Delete(d.ID))

	assert.Equal(t, []domain.Change{
		{Entity: domain.EntityDestination, Action: domain.ActionCreate, ID: d.ID},
		{Entity: domain.EntitySight, Action: domain.ActionCreate, ID: d.Sights[0].ID, ParentID: d.ID},
		{Entity: domain.EntitySight, Action: domain.ActionDelete, ID: d.Sights[0].ID, ParentID: d.ID},
		{Entity: domain.EntityDestination, Action: domain.ActionDelete, ID: d.ID},
	}, changes)

	unsubscribe()
	insert(t, s, "Naples", domain.PriorityMaybe)
	assert.Len(t, changes, 4)
}

func TestClose(t *testing.T) {
	s, _ := openStore(t)
	lq := s.Watch(domain.Query{})
	require.NoError(t, s.Close())

	_, ok := <-lq.Updates()
	assert.False(t, ok, "live queries are stopped on close")

	_, err := s.Insert(domain.NewDestination(day))
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Persist(context.Background(), store.TriggerShutdown), store.ErrClosed)
}
