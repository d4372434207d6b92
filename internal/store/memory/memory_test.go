package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/itour/internal/store"
)

func TestBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	empty, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	snap := store.Snapshot{
		Destinations: []store.DestinationRecord{{
			ID: "d1", Name: "Rome", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Priority: 2, SightIDs: []string{"s1"},
		}},
		Sights: []store.SightRecord{{ID: "s1", Name: "Colosseum", DestinationID: "d1"}},
	}
	require.NoError(t, b.Save(ctx, snap))
	assert.Equal(t, 1, b.Saves())

	// the stored copy is not aliased with the caller's slices
	snap.Destinations[0].SightIDs[0] = "mutated"

	got, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Destinations, 1)
	assert.Equal(t, []string{"s1"}, got.Destinations[0].SightIDs)
	assert.Equal(t, "Colosseum", got.Sights[0].Name)
}

func TestBackend_FailSaves(t *testing.T) {
	b := New()
	b.FailSaves(true)
	assert.ErrorIs(t, b.Save(context.Background(), store.Snapshot{}), ErrInjected)
	b.FailSaves(false)
	assert.NoError(t, b.Save(context.Background(), store.Snapshot{}))
}

func TestBackend_PingAfterClose(t *testing.T) {
	b := New()
	require.NoError(t, b.Ping(context.Background()))
	require.NoError(t, b.Close())
	assert.Error(t, b.Ping(context.Background()))
}
