package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/avikom/catersync/internal/models"
)

var (
	// BoltDB bucket names
	bucketAuth     = []byte("auth")
	bucketQueue    = []byte("queue")
	bucketMetadata = []byte("metadata")
)

// entityBucket returns the bucket name holding records of the kind.
func entityBucket(kind models.Kind) []byte {
	return []byte(kind)
}

// indexBucket returns the bucket name of the serverID -> localID index
// for the kind.
func indexBucket(kind models.Kind) []byte {
	return []byte("idx_" + kind)
}

// Storage represents BoltDB storage implementation for the client.
// One bucket per entity kind plus queue, metadata and auth buckets.
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets creates all required buckets if they don't exist
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAuth, bucketQueue, bucketMetadata} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}

		for _, kind := range models.Kinds() {
			if _, err := tx.CreateBucketIfNotExists(entityBucket(kind)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", kind, err)
			}
			if _, err := tx.CreateBucketIfNotExists(indexBucket(kind)); err != nil {
				return fmt.Errorf("failed to create %s index bucket: %w", kind, err)
			}
		}

		return nil
	})
}
