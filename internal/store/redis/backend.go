package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/itour/internal/store"
)

var _ store.Backend = (*Backend)(nil)

// Backend stores one JSON value per record plus a set of IDs per entity.
// Keys have no TTL; records are removed when a snapshot no longer holds them.
type Backend struct {
	client *redis.Client
}

// NewBackend creates a Redis backend on an already connected client.
func NewBackend(client *redis.Client) *Backend {
	return &Backend{
		client: client,
	}
}

func (b *Backend) Name() string { return "redis" }

// Load reads every destination and sight listed in the ID sets.
// IDs whose record key is missing are skipped.
func (b *Backend) Load(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot

	destinations, err := loadAll[store.DestinationRecord](ctx, b.client, KeyAllDestinations, DestinationKey)
	if err != nil {
		return snap, fmt.Errorf("failed to load destinations: %w", err)
	}
	sights, err := loadAll[store.SightRecord](ctx, b.client, KeyAllSights, SightKey)
	if err != nil {
		return snap, fmt.Errorf("failed to load sights: %w", err)
	}

	snap.Destinations = destinations
	snap.Sights = sights
	return snap, nil
}

func loadAll[T any](ctx context.Context, c *redis.Client, setKey string, keyOf func(string) string) ([]T, error) {
	ids, err := c.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get IDs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyOf(id)
	}
	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	out := make([]T, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip records that expired or were deleted out of band
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save writes the snapshot in one MULTI/EXEC block and removes records that
// are no longer part of it.
func (b *Backend) Save(ctx context.Context, snap store.Snapshot) error {
	staleDestinations, err := b.stale(ctx, KeyAllDestinations, destinationIDs(snap))
	if err != nil {
		return err
	}
	staleSights, err := b.stale(ctx, KeyAllSights, sightIDs(snap))
	if err != nil {
		return err
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range snap.Destinations {
			data, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("failed to marshal destination %s: %w", d.ID, err)
			}
			pipe.Set(ctx, DestinationKey(d.ID), data, 0)
			pipe.SAdd(ctx, KeyAllDestinations, d.ID)
		}
		for _, s := range snap.Sights {
			data, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to marshal sight %s: %w", s.ID, err)
			}
			pipe.Set(ctx, SightKey(s.ID), data, 0)
			pipe.SAdd(ctx, KeyAllSights, s.ID)
		}
		for _, id := range staleDestinations {
			pipe.Del(ctx, DestinationKey(id))
			pipe.SRem(ctx, KeyAllDestinations, id)
		}
		for _, id := range staleSights {
			pipe.Del(ctx, SightKey(id))
			pipe.SRem(ctx, KeyAllSights, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// stale returns the IDs in setKey that are not in keep.
func (b *Backend) stale(ctx context.Context, setKey string, keep map[string]struct{}) ([]string, error) {
	existing, err := b.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", setKey, err)
	}
	var out []string
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Backend) Close() error {
	return b.client.Close()
}

func destinationIDs(snap store.Snapshot) map[string]struct{} {
	ids := make(map[string]struct{}, len(snap.Destinations))
	for _, d := range snap.Destinations {
		ids[d.ID] = struct{}{}
	}
	return ids
}

func sightIDs(snap store.Snapshot) map[string]struct{} {
	ids := make(map[string]struct{}, len(snap.Sights))
	for _, s := range snap.Sights {
		ids[s.ID] = struct{}{}
	}
	return ids
}
