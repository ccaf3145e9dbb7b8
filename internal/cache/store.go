// Package cache provides the append-only on-disk event store the relay
// client writes into and the proposal index reads from.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nbd-wtf/go-nostr"
	bolt "go.etcd.io/bbolt"
)

var eventsBucket = []byte("events")

// Store is an append-only event cache backed by bbolt. Events are keyed
// by id, so re-inserting an event the cache already holds is a no-op;
// this is what makes re-publishing a series idempotent from the cache's
// point of view.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open event cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise event cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put appends an event to the cache. It reports whether the event was new.
func (s *Store) Put(e *nostr.Event) (bool, error) {
	fresh := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		key := []byte(e.ID)
		if b.Get(key) != nil {
			return nil
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.ID, err)
		}
		fresh = true
		return b.Put(key, raw)
	})
	return fresh, err
}

// Query returns a snapshot of every cached event matching any of the
// filters. The result is safe to hold across later appends.
func (s *Store) Query(filters ...nostr.Filter) ([]nostr.Event, error) {
	var matched []nostr.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(eventsBucket).ForEach(func(_, raw []byte) error {
			var e nostr.Event
			if err := json.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("corrupt event in cache: %w", err)
			}
			for _, f := range filters {
				if f.Matches(&e) {
					matched = append(matched, e)
					break
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return matched, nil
}

// Len returns the number of cached events.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(eventsBucket).Stats().KeyN
		return nil
	})
	return n, err
}
