// Package bolt persists session snapshots in a single bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

const bucketSnapshots = "snapshots"

// Store implements ports.SnapshotStore on a bbolt database.
// Values are JSON-encoded snapshots keyed by session ID.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize bolt store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists the snapshot.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Put([]byte(snapshot.SessionID), data)
	})
}

// Load retrieves the snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSnapshots)).Get([]byte(sessionID))
		if v == nil {
			return domain.ErrSnapshotNotFound
		}
		// v is only valid inside the transaction; Unmarshal copies
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the snapshot. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Delete([]byte(sessionID))
	})
}

// List returns the stored session IDs in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	sessions := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).ForEach(func(k, _ []byte) error {
			sessions = append(sessions, string(k))
			return nil
		})
	})
	return sessions, err
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
