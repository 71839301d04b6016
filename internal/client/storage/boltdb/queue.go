package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

// queueKey encodes a queue id as a sortable 8-byte key, so bucket
// iteration order is insertion order.
func queueKey(queueID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, queueID)
	return key
}

// AppendItem durably appends a mutation and assigns its QueueID from
// the bucket sequence.
func (s *Storage) AppendItem(ctx context.Context, item *models.QueueItem) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate queue id: %w", err)
		}
		item.QueueID = seq

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		if err := bucket.Put(queueKey(item.QueueID), data); err != nil {
			return fmt.Errorf("failed to append queue item: %w", err)
		}

		return nil
	})
}

// UpdateItem rewrites an existing item in place
func (s *Storage) UpdateItem(ctx context.Context, item *models.QueueItem) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		if bucket.Get(queueKey(item.QueueID)) == nil {
			return storage.ErrItemNotFound
		}

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		if err := bucket.Put(queueKey(item.QueueID), data); err != nil {
			return fmt.Errorf("failed to update queue item: %w", err)
		}

		return nil
	})
}

// DeleteItem removes a single item
func (s *Storage) DeleteItem(ctx context.Context, queueID uint64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		if err := bucket.Delete(queueKey(queueID)); err != nil {
			return fmt.Errorf("failed to delete queue item: %w", err)
		}

		return nil
	})
}

// ListItems returns all items in queue order
func (s *Storage) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var items []*models.QueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			item := &models.QueueItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}
			items = append(items, item)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return items, nil
}

// ListItemsByLocalID returns the outstanding lineage of one record
func (s *Storage) ListItemsByLocalID(ctx context.Context, kind models.Kind, localID string) ([]*models.QueueItem, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.QueueItem
	for _, item := range items {
		if item.Kind == kind && item.LocalID == localID {
			matched = append(matched, item)
		}
	}

	return matched, nil
}

// DeleteItemsByLocalID purges every item of one record's lineage
func (s *Storage) DeleteItemsByLocalID(ctx context.Context, kind models.Kind, localID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			item := &models.QueueItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}
			if item.Kind == kind && item.LocalID == localID {
				if err := cursor.Delete(); err != nil {
					return fmt.Errorf("failed to delete queue item: %w", err)
				}
			}
		}

		return nil
	})
}

// PendingCount returns the number of items eligible for the next run
func (s *Storage) PendingCount(ctx context.Context) (int, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range items {
		if !item.Permanent {
			count++
		}
	}

	return count, nil
}
