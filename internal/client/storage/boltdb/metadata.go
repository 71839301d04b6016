package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/avikom/catersync/internal/models"
)

const keyLastSyncAt = "last_sync_at"

// refreshKey returns the metadata key holding a kind's last full
// refresh time.
func refreshKey(kind models.Kind) []byte {
	return []byte("last_refresh_" + kind)
}

// putTime stores a time as unix nanoseconds under the key.
func (s *Storage) putTime(key []byte, at time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(at.UnixNano()))

		if err := bucket.Put(key, buf); err != nil {
			return fmt.Errorf("failed to save timestamp: %w", err)
		}

		return nil
	})
}

// getTime loads a time stored by putTime. Returns the zero time when
// the key was never written.
func (s *Storage) getTime(key []byte) (time.Time, error) {
	var at time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		buf := bucket.Get(key)
		if buf == nil {
			return nil
		}

		at = time.Unix(0, int64(binary.BigEndian.Uint64(buf)))
		return nil
	})

	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get timestamp: %w", err)
	}

	return at, nil
}

// SaveLastRefresh records when a full collection fetch last succeeded
func (s *Storage) SaveLastRefresh(ctx context.Context, kind models.Kind, at time.Time) error {
	return s.putTime(refreshKey(kind), at)
}

// GetLastRefresh returns the last full refresh time for the kind
// Returns the zero time if the collection was never fetched
func (s *Storage) GetLastRefresh(ctx context.Context, kind models.Kind) (time.Time, error) {
	return s.getTime(refreshKey(kind))
}

// SaveLastSyncAt records when a queue run last completed
func (s *Storage) SaveLastSyncAt(ctx context.Context, at time.Time) error {
	return s.putTime([]byte(keyLastSyncAt), at)
}

// GetLastSyncAt returns the last completed run time
func (s *Storage) GetLastSyncAt(ctx context.Context) (time.Time, error) {
	return s.getTime([]byte(keyLastSyncAt))
}
