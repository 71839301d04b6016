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

// serverIDKey encodes a server id as a sortable 8-byte index key.
func serverIDKey(serverID int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(serverID))
	return key
}

// SaveRecord stores or replaces a record, keyed by its LocalID.
// The ServerID index is maintained in the same transaction.
func (s *Storage) SaveRecord(ctx context.Context, rec *models.Record) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(entityBucket(rec.Kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", rec.Kind)
		}

		if err := bucket.Put([]byte(rec.LocalID), data); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}

		if rec.ServerID != 0 {
			index := tx.Bucket(indexBucket(rec.Kind))
			if index == nil {
				return fmt.Errorf("%s index bucket not found", rec.Kind)
			}
			if err := index.Put(serverIDKey(rec.ServerID), []byte(rec.LocalID)); err != nil {
				return fmt.Errorf("failed to update server id index: %w", err)
			}
		}

		return nil
	})
}

// GetByLocalID retrieves a record by its client-generated id
func (s *Storage) GetByLocalID(ctx context.Context, kind models.Kind, localID string) (*models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var rec *models.Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(entityBucket(kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", kind)
		}

		data := bucket.Get([]byte(localID))
		if data == nil {
			return storage.ErrRecordNotFound
		}

		rec = &models.Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rec, nil
}

// GetByServerID retrieves a record through the server id index
func (s *Storage) GetByServerID(ctx context.Context, kind models.Kind, serverID int64) (*models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var rec *models.Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		index := tx.Bucket(indexBucket(kind))
		if index == nil {
			return fmt.Errorf("%s index bucket not found", kind)
		}

		localID := index.Get(serverIDKey(serverID))
		if localID == nil {
			return storage.ErrRecordNotFound
		}

		bucket := tx.Bucket(entityBucket(kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", kind)
		}

		data := bucket.Get(localID)
		if data == nil {
			// Stale index entry; treat as missing.
			return storage.ErrRecordNotFound
		}

		rec = &models.Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListRecords returns every cached record of the kind
func (s *Storage) ListRecords(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var recs []*models.Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(entityBucket(kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", kind)
		}

		return bucket.ForEach(func(k, v []byte) error {
			rec := &models.Record{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return recs, nil
}

// DeleteRecord removes a record and its index entry
func (s *Storage) DeleteRecord(ctx context.Context, kind models.Kind, localID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(entityBucket(kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", kind)
		}

		data := bucket.Get([]byte(localID))
		if data == nil {
			return storage.ErrRecordNotFound
		}

		rec := &models.Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		if err := bucket.Delete([]byte(localID)); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}

		if rec.ServerID != 0 {
			index := tx.Bucket(indexBucket(kind))
			if index == nil {
				return fmt.Errorf("%s index bucket not found", kind)
			}
			if err := index.Delete(serverIDKey(rec.ServerID)); err != nil {
				return fmt.Errorf("failed to delete index entry: %w", err)
			}
		}

		return nil
	})
}

// ReplaceKind swaps the whole collection for the given records in one
// transaction. Records with pending local changes are preserved so a
// full refresh can't wipe unsynchronized work.
func (s *Storage) ReplaceKind(ctx context.Context, kind models.Kind, recs []*models.Record) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(entityBucket(kind))
		if bucket == nil {
			return fmt.Errorf("%s bucket not found", kind)
		}

		// Collect records that must survive the replace.
		var keep []*models.Record
		err := bucket.ForEach(func(k, v []byte) error {
			rec := &models.Record{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			if rec.Status != models.StatusSynced {
				keep = append(keep, rec)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if err := tx.DeleteBucket(entityBucket(kind)); err != nil {
			return fmt.Errorf("failed to drop %s bucket: %w", kind, err)
		}
		if err := tx.DeleteBucket(indexBucket(kind)); err != nil {
			return fmt.Errorf("failed to drop %s index bucket: %w", kind, err)
		}

		bucket, err = tx.CreateBucket(entityBucket(kind))
		if err != nil {
			return fmt.Errorf("failed to recreate %s bucket: %w", kind, err)
		}
		index, err := tx.CreateBucket(indexBucket(kind))
		if err != nil {
			return fmt.Errorf("failed to recreate %s index bucket: %w", kind, err)
		}

		put := func(rec *models.Record) error {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			if err := bucket.Put([]byte(rec.LocalID), data); err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}
			if rec.ServerID != 0 {
				if err := index.Put(serverIDKey(rec.ServerID), []byte(rec.LocalID)); err != nil {
					return fmt.Errorf("failed to update server id index: %w", err)
				}
			}
			return nil
		}

		for _, rec := range recs {
			if err := put(rec); err != nil {
				return err
			}
		}

		// Pending records win over the refreshed server copy.
		for _, rec := range keep {
			if err := put(rec); err != nil {
				return err
			}
		}

		return nil
	})
}
