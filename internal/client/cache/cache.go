// Package cache implements the per-kind read-through entity caches.
// Reads serve the local store when the backend is unreachable; writes
// either hit the backend directly or are recorded optimistically and
// queued for the next sync run.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/pkg/api"
)

// DefaultTTL is how long a full collection fetch is considered fresh.
const DefaultTTL = 15 * time.Minute

var (
	// ErrOfflineUnsupported is returned for deferred writes when the
	// durable local store could not be opened (online-only mode).
	ErrOfflineUnsupported = errors.New("offline mode unavailable: local store disabled")

	// ErrDeletePending rejects updates to a record already queued for
	// deletion.
	ErrDeletePending = errors.New("record has a pending delete")

	// ErrConflictPending rejects updates to a record whose queued
	// mutation is parked on a version conflict. Writing over it would
	// queue a second item with the same stale base version.
	ErrConflictPending = errors.New("record has an unresolved conflict")
)

// Config wires one cache instance.
type Config struct {
	Backend  apiclient.Backend
	Entities storage.EntityStore
	Queue    storage.QueueStore // nil enables online-only mode
	Metadata storage.MetadataStore
	Online   func() bool
	Logger   *slog.Logger
	Kind     models.Kind
	TTL      time.Duration
}

// Cache is the entity cache for one kind.
type Cache struct {
	backend  apiclient.Backend
	entities storage.EntityStore
	queue    storage.QueueStore
	meta     storage.MetadataStore
	online   func() bool
	logger   *slog.Logger
	kind     models.Kind
	ttl      time.Duration
}

// New creates a cache for cfg.Kind.
func New(cfg Config) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		kind:     cfg.Kind,
		backend:  cfg.Backend,
		entities: cfg.Entities,
		queue:    cfg.Queue,
		meta:     cfg.Metadata,
		online:   cfg.Online,
		logger:   cfg.Logger,
		ttl:      ttl,
	}
}

// Kind returns the entity kind this cache serves.
func (c *Cache) Kind() models.Kind { return c.kind }

// deferrable reports whether offline writes can be queued.
func (c *Cache) deferrable() bool { return c.queue != nil }

// FetchAndCache lists the collection. Online it fetches from the
// backend and refreshes the cache (a full replace and TTL stamp only
// for unfiltered fetches, so a partial result set is never cached as
// the complete collection); a network failure falls back silently to
// the cache. Offline it filters the cached collection locally.
func (c *Cache) FetchAndCache(ctx context.Context, query api.ListQuery) ([]*models.Record, error) {
	if c.online() {
		entities, err := c.backend.List(ctx, c.kind, query)
		switch {
		case err == nil:
			return c.absorb(ctx, entities, query)
		case apiclient.IsTransient(err):
			// Stale-but-available beats failing the read.
			c.logger.Warn("list fell back to cache", "kind", c.kind, "error", err)
		default:
			return nil, err
		}
	}

	return c.listLocal(ctx, query)
}

// GetByLocalID returns one cached record.
func (c *Cache) GetByLocalID(ctx context.Context, localID string) (*models.Record, error) {
	return c.entities.GetByLocalID(ctx, c.kind, localID)
}

// GetByServerID returns one cached record through the server-id index.
func (c *Cache) GetByServerID(ctx context.Context, serverID int64) (*models.Record, error) {
	return c.entities.GetByServerID(ctx, c.kind, serverID)
}

// Stale reports whether the last full refresh is older than the TTL.
func (c *Cache) Stale(ctx context.Context) (bool, error) {
	last, err := c.meta.GetLastRefresh(ctx, c.kind)
	if err != nil {
		return true, err
	}
	return time.Since(last) > c.ttl, nil
}

// Create stores a new record. Online it posts to the backend and
// adopts the authoritative response; offline it synthesizes a
// pending_create record and queues the mutation.
func (c *Cache) Create(ctx context.Context, payload json.RawMessage) (*models.Record, error) {
	if c.online() {
		entity, err := c.backend.Create(ctx, c.kind, payload)
		switch {
		case err == nil:
			rec := c.fromEntity(entity)
			if err := c.entities.SaveRecord(ctx, rec); err != nil {
				return nil, fmt.Errorf("failed to cache created record: %w", err)
			}
			return rec, nil
		case apiclient.IsUnavailable(err):
			// The backend just went away; treat as the deferred path.
		default:
			return nil, err
		}
	}

	if !c.deferrable() {
		return nil, ErrOfflineUnsupported
	}

	now := time.Now().UTC()
	rec := &models.Record{
		LocalID:   uuid.New().String(),
		Kind:      c.kind,
		Status:    models.StatusPendingCreate,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.entities.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	item := &models.QueueItem{
		Kind:      c.kind,
		LocalID:   rec.LocalID,
		Op:        models.OpCreate,
		Payload:   payload,
		CreatedAt: now,
	}
	if err := c.queue.AppendItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue create: %w", err)
	}

	c.logger.Info("queued offline create", "kind", c.kind, "local_id", rec.LocalID)
	return rec, nil
}

// Update rewrites a record's payload. A mutation already queued for
// the record is amended in place rather than duplicated; updates to a
// record pending deletion or parked on a conflict are rejected.
func (c *Cache) Update(ctx context.Context, localID string, payload json.RawMessage) (*models.Record, error) {
	rec, err := c.entities.GetByLocalID(ctx, c.kind, localID)
	if err != nil {
		return nil, err
	}

	switch rec.Status {
	case models.StatusPendingDelete:
		return nil, ErrDeletePending
	case models.StatusConflict:
		return nil, ErrConflictPending
	case models.StatusPendingCreate, models.StatusPendingUpdate:
		// Coalesce into the already queued mutation.
		return c.amendQueued(ctx, rec, payload)
	}

	if c.online() {
		entity, err := c.backend.Update(ctx, c.kind, rec.ServerID, payload, rec.LastServerVersion)
		switch {
		case err == nil:
			updated := c.fromEntity(entity)
			updated.LocalID = rec.LocalID
			updated.CreatedAt = rec.CreatedAt
			if err := c.entities.SaveRecord(ctx, updated); err != nil {
				return nil, fmt.Errorf("failed to cache updated record: %w", err)
			}
			return updated, nil
		case apiclient.IsConflict(err):
			rec.Status = models.StatusConflict
			if saveErr := c.entities.SaveRecord(ctx, rec); saveErr != nil {
				return nil, fmt.Errorf("failed to mark conflict: %w", saveErr)
			}
			return nil, err
		case apiclient.IsUnavailable(err):
			// Fall through to the deferred path.
		default:
			return nil, err
		}
	}

	if !c.deferrable() {
		return nil, ErrOfflineUnsupported
	}

	rec.Status = models.StatusPendingUpdate
	rec.Payload = payload
	rec.UpdatedAt = time.Now().UTC()
	if err := c.entities.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	item := &models.QueueItem{
		Kind:        c.kind,
		LocalID:     rec.LocalID,
		Op:          models.OpUpdate,
		Payload:     payload,
		BaseVersion: rec.LastServerVersion,
		CreatedAt:   rec.UpdatedAt,
	}
	if err := c.queue.AppendItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue update: %w", err)
	}

	c.logger.Info("queued offline update", "kind", c.kind, "local_id", rec.LocalID)
	return rec, nil
}

// Delete removes a record. Deleting a record whose create never
// reached the backend purges the whole lineage locally; otherwise the
// record is tombstoned until the processor confirms the removal.
func (c *Cache) Delete(ctx context.Context, localID string) error {
	rec, err := c.entities.GetByLocalID(ctx, c.kind, localID)
	if err != nil {
		return err
	}

	if rec.Status == models.StatusPendingDelete {
		return nil
	}

	// The create never synced: nothing to tell the backend.
	if rec.Status == models.StatusPendingCreate {
		if err := c.queue.DeleteItemsByLocalID(ctx, c.kind, localID); err != nil {
			return fmt.Errorf("failed to purge queued lineage: %w", err)
		}
		return c.entities.DeleteRecord(ctx, c.kind, localID)
	}

	if c.online() {
		err := c.backend.Delete(ctx, c.kind, rec.ServerID)
		switch {
		case err == nil, apiclient.IsNotFound(err):
			return c.entities.DeleteRecord(ctx, c.kind, localID)
		case apiclient.IsUnavailable(err):
			// Fall through to the deferred path.
		default:
			return err
		}
	}

	if !c.deferrable() {
		return ErrOfflineUnsupported
	}

	// A queued update is moot once the record is going away, and so is
	// a mutation parked on a conflict.
	if rec.Status == models.StatusPendingUpdate || rec.Status == models.StatusConflict {
		if err := c.queue.DeleteItemsByLocalID(ctx, c.kind, localID); err != nil {
			return fmt.Errorf("failed to drop queued updates: %w", err)
		}
	}

	rec.Status = models.StatusPendingDelete
	rec.UpdatedAt = time.Now().UTC()
	if err := c.entities.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to tombstone record: %w", err)
	}

	item := &models.QueueItem{
		Kind:        c.kind,
		LocalID:     localID,
		Op:          models.OpDelete,
		BaseVersion: rec.LastServerVersion,
		CreatedAt:   rec.UpdatedAt,
	}
	if err := c.queue.AppendItem(ctx, item); err != nil {
		return fmt.Errorf("failed to enqueue delete: %w", err)
	}

	c.logger.Info("queued offline delete", "kind", c.kind, "local_id", localID)
	return nil
}

// amendQueued folds a new payload into the record's already queued
// mutation so a record never accumulates duplicate queue items.
func (c *Cache) amendQueued(ctx context.Context, rec *models.Record, payload json.RawMessage) (*models.Record, error) {
	if !c.deferrable() {
		return nil, ErrOfflineUnsupported
	}

	items, err := c.queue.ListItemsByLocalID(ctx, c.kind, rec.LocalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued lineage: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("record %s is %s but has no queue item", rec.LocalID, rec.Status)
	}

	last := items[len(items)-1]
	last.Payload = payload
	if err := c.queue.UpdateItem(ctx, last); err != nil {
		return nil, fmt.Errorf("failed to amend queue item: %w", err)
	}

	rec.Payload = payload
	rec.UpdatedAt = time.Now().UTC()
	if err := c.entities.SaveRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	c.logger.Debug("amended queued mutation", "kind", c.kind, "local_id", rec.LocalID, "queue_id", last.QueueID)
	return rec, nil
}

// absorb reconciles fetched entities into the cache. Unfiltered
// fetches replace the collection and stamp the TTL; filtered fetches
// merge, leaving records with pending local changes untouched.
func (c *Cache) absorb(ctx context.Context, entities []api.Entity, query api.ListQuery) ([]*models.Record, error) {
	recs := make([]*models.Record, 0, len(entities))
	for i := range entities {
		rec := c.fromEntity(&entities[i])

		// Keep the stable localId of a record we already track.
		if existing, err := c.entities.GetByServerID(ctx, c.kind, rec.ServerID); err == nil {
			rec.LocalID = existing.LocalID
			rec.CreatedAt = existing.CreatedAt
			if existing.Status.Pending() || existing.Status == models.StatusConflict {
				// Local divergence wins until it is synced or resolved.
				rec = existing
			}
		}
		recs = append(recs, rec)
	}

	if query.IsZero() {
		if err := c.entities.ReplaceKind(ctx, c.kind, recs); err != nil {
			return nil, fmt.Errorf("failed to replace collection: %w", err)
		}
		if err := c.meta.SaveLastRefresh(ctx, c.kind, time.Now().UTC()); err != nil {
			c.logger.Warn("failed to stamp refresh time", "kind", c.kind, "error", err)
		}
		return recs, nil
	}

	for _, rec := range recs {
		if rec.Status.Pending() || rec.Status == models.StatusConflict {
			continue
		}
		if err := c.entities.SaveRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to merge fetched record: %w", err)
		}
	}
	return recs, nil
}

// fromEntity converts a backend entity into a synced cache record.
func (c *Cache) fromEntity(entity *api.Entity) *models.Record {
	now := time.Now().UTC()
	return &models.Record{
		LocalID:           uuid.New().String(),
		ServerID:          entity.ID,
		Kind:              c.kind,
		Status:            models.StatusSynced,
		Payload:           entity.Data,
		LastServerVersion: entity.Version(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// listLocal serves a listing from the cache, applying the query's
// filters to the decoded payloads.
func (c *Cache) listLocal(ctx context.Context, query api.ListQuery) ([]*models.Record, error) {
	recs, err := c.entities.ListRecords(ctx, c.kind)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Status == models.StatusPendingDelete {
			continue
		}
		if matches(rec.Payload, query) {
			matched = append(matched, rec)
		}
	}

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}
