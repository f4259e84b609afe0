package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotEntry is the latest value for one parameter, cached per vehicle.
type SnapshotEntry struct {
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store mirrors the latest telemetry reading per parameter into a redis hash
// keyed by vehicle so the live dashboard never has to touch Postgres.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(vehicleID int64) string {
	return fmt.Sprintf("livelink:snapshot:%d", vehicleID)
}

// Save updates one parameter in the vehicle's snapshot and refreshes the TTL.
func (s *Store) Save(ctx context.Context, vehicleID int64, paramKey string, entry SnapshotEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := s.key(vehicleID)
	if err := s.client.HSet(ctx, key, paramKey, data).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// Get returns the full snapshot for a vehicle. A missing key yields an empty map.
func (s *Store) Get(ctx context.Context, vehicleID int64) (map[string]SnapshotEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(vehicleID)).Result()
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]SnapshotEntry, len(fields))
	for param, raw := range fields {
		var entry SnapshotEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue // skip corrupt fields rather than failing the whole read
		}
		snapshot[param] = entry
	}
	return snapshot, nil
}

// Delete drops the snapshot, used when a vehicle is removed.
func (s *Store) Delete(ctx context.Context, vehicleID int64) error {
	return s.client.Del(ctx, s.key(vehicleID)).Err()
}
