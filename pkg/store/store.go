// Package store owns the single bbolt database file backing every
// component: hash directory, change log, and blob store each get their
// own bucket inside it.
package store

import (
	"fmt"
	"path/filepath"

	"github.com/cuemby/triplestore/pkg/blobstore"
	"github.com/cuemby/triplestore/pkg/changelog"
	"github.com/cuemby/triplestore/pkg/hashdir"
	bolt "go.etcd.io/bbolt"
)

// Store wraps the bbolt handle shared by the revision API.
type Store struct {
	DB *bolt.DB
}

// Open opens (creating if absent) the database file at dataDir/revstore.db
// and ensures all three buckets exist.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "revstore.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{hashdir.Bucket, changelog.Bucket, blobstore.Bucket}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Update runs fn inside a single read-write transaction, committing on a
// nil return and rolling back otherwise. bbolt serializes all writers, so
// this is also the engine's per-key write serialization boundary: no two
// Update calls ever interleave their bucket reads and writes.
func (s *Store) Update(fn func(tx *bolt.Tx) error) error {
	return s.DB.Update(fn)
}

// View runs fn inside a read-only transaction observing a single
// consistent snapshot of the store.
func (s *Store) View(fn func(tx *bolt.Tx) error) error {
	return s.DB.View(fn)
}
