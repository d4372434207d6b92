package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/store"
)

func sampleSnapshot() store.Snapshot {
	return store.Snapshot{
		Destinations: []store.DestinationRecord{
			{
				ID:       "0190a000-0000-7000-8000-000000000001",
				Name:     "Rome",
				Details:  "Eternal city",
				Date:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				Priority: domain.PriorityMust,
				SightIDs: []string{"s1", "s2"},
			},
		},
		Sights: []store.SightRecord{
			{ID: "s1", Name: "Colosseum", DestinationID: "0190a000-0000-7000-8000-000000000001"},
			{ID: "s2", Name: "Pantheon", DestinationID: "0190a000-0000-7000-8000-000000000001"},
		},
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "itour.db")

	b, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", b.Name())

	empty, err := b.Load(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	require.NoError(t, b.Save(ctx, sampleSnapshot()))
	require.NoError(t, b.Close())

	// reopen from disk
	b, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	got, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Destinations, 1)
	assert.Equal(t, "Rome", got.Destinations[0].Name)
	assert.Equal(t, domain.PriorityMust, got.Destinations[0].Priority)
	assert.True(t, got.Destinations[0].Date.Equal(sampleSnapshot().Destinations[0].Date))
	assert.Equal(t, []string{"s1", "s2"}, got.Destinations[0].SightIDs)
	require.Len(t, got.Sights, 2)
	assert.Equal(t, "Pantheon", got.Sights[1].Name)
}

func TestSQLite_SaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "itour.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Save(ctx, sampleSnapshot()))
	require.NoError(t, b.Save(ctx, store.Snapshot{}))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Destinations)
	assert.Empty(t, got.Sights)

	var rows int
	require.NoError(t, b.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&rows))
	assert.Equal(t, 2, rows)
}

func TestSQLite_Ping(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "itour.db"))
	require.NoError(t, err)
	require.NoError(t, b.Ping(ctx))
	require.NoError(t, b.Close())
	assert.Error(t, b.Ping(ctx))
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), "")
	assert.Error(t, err)
}
