package storage

import (
	"context"
	"encoding/json"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/pkg/api"
)

// EntityStorage defines interface for collection record persistence.
// Records are schemaless JSON documents versioned by their updated_at
// timestamp; writes carrying a stale version fail with
// ErrVersionMismatch.
type EntityStorage interface {
	// CreateEntity inserts a record and returns the authoritative copy
	// with the assigned id and version.
	CreateEntity(ctx context.Context, kind models.Kind, data json.RawMessage) (*api.Entity, error)

	// GetEntity retrieves one record.
	// Returns ErrEntityNotFound if it doesn't exist.
	GetEntity(ctx context.Context, kind models.Kind, id int64) (*api.Entity, error)

	// ListEntities retrieves a collection, narrowed by the query.
	ListEntities(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error)

	// UpdateEntity overwrites a record's payload. A non-empty
	// baseVersion must match the stored version exactly or the write
	// fails with ErrVersionMismatch.
	UpdateEntity(ctx context.Context, kind models.Kind, id int64, data json.RawMessage, baseVersion string) (*api.Entity, error)

	// DeleteEntity removes a record.
	// Returns ErrEntityNotFound if it doesn't exist.
	DeleteEntity(ctx context.Context, kind models.Kind, id int64) error
}
