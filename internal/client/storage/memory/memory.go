// Package memory provides a non-durable EntityStore and MetadataStore.
// It backs the degraded online-only mode entered when the bolt store
// cannot be opened: reads and writes keep working for the session, but
// nothing survives a restart and no mutations are queued.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

// Store holds records, metadata and the session in process memory.
type Store struct {
	mu          sync.RWMutex
	records     map[models.Kind]map[string]*models.Record
	refreshedAt map[models.Kind]time.Time
	lastSyncAt  time.Time
	auth        *storage.AuthData
}

var (
	_ storage.EntityStore   = (*Store)(nil)
	_ storage.MetadataStore = (*Store)(nil)
	_ storage.AuthStorage   = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records:     make(map[models.Kind]map[string]*models.Record),
		refreshedAt: make(map[models.Kind]time.Time),
	}
}

// SaveRecord stores or replaces a record, keyed by its LocalID
func (s *Store) SaveRecord(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := s.records[rec.Kind]
	if kind == nil {
		kind = make(map[string]*models.Record)
		s.records[rec.Kind] = kind
	}
	kind[rec.LocalID] = rec.Clone()
	return nil
}

// GetByLocalID retrieves a record by its client-generated id
func (s *Store) GetByLocalID(ctx context.Context, kind models.Kind, localID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[kind][localID]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// GetByServerID retrieves a record by its backend-assigned id
func (s *Store) GetByServerID(ctx context.Context, kind models.Kind, serverID int64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[kind] {
		if rec.ServerID == serverID {
			return rec.Clone(), nil
		}
	}
	return nil, storage.ErrRecordNotFound
}

// ListRecords returns every cached record of the kind
func (s *Store) ListRecords(ctx context.Context, kind models.Kind) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*models.Record, 0, len(s.records[kind]))
	for _, rec := range s.records[kind] {
		recs = append(recs, rec.Clone())
	}
	return recs, nil
}

// DeleteRecord removes a record
func (s *Store) DeleteRecord(ctx context.Context, kind models.Kind, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[kind][localID]; !ok {
		return storage.ErrRecordNotFound
	}
	delete(s.records[kind], localID)
	return nil
}

// ReplaceKind swaps the whole collection, preserving pending records
func (s *Store) ReplaceKind(ctx context.Context, kind models.Kind, recs []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]*models.Record, len(recs))
	for _, rec := range recs {
		fresh[rec.LocalID] = rec.Clone()
	}
	for id, rec := range s.records[kind] {
		if rec.Status != models.StatusSynced {
			fresh[id] = rec
		}
	}
	s.records[kind] = fresh
	return nil
}

// SaveLastRefresh records when a full collection fetch last succeeded
func (s *Store) SaveLastRefresh(ctx context.Context, kind models.Kind, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshedAt[kind] = at
	return nil
}

// GetLastRefresh returns the last full refresh time for the kind
func (s *Store) GetLastRefresh(ctx context.Context, kind models.Kind) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt[kind], nil
}

// SaveLastSyncAt records when a queue run last completed
func (s *Store) SaveLastSyncAt(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = at
	return nil
}

// GetLastSyncAt returns the last completed run time
func (s *Store) GetLastSyncAt(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncAt, nil
}

// SaveAuth stores the session for the lifetime of the process
func (s *Store) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *auth
	s.auth = &copied
	return nil
}

// GetAuth retrieves the stored session
func (s *Store) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return nil, storage.ErrAuthNotFound
	}
	copied := *s.auth
	return &copied, nil
}

// DeleteAuth drops the stored session
func (s *Store) DeleteAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = nil
	return nil
}
