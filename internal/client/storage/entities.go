package storage

import (
	"context"

	"github.com/avikom/catersync/internal/models"
)

// EntityStore defines the interface for the cached entity collections.
// Writes are atomic per record; there are no cross-collection
// transactions because each record carries its own sync status and the
// queue is the single source of truth for unsynchronized work.
type EntityStore interface {
	// SaveRecord stores or replaces a record, keyed by its LocalID.
	// The ServerID secondary index is maintained automatically.
	SaveRecord(ctx context.Context, rec *models.Record) error

	// GetByLocalID retrieves a record by its client-generated id.
	// Returns ErrRecordNotFound if the record doesn't exist.
	GetByLocalID(ctx context.Context, kind models.Kind, localID string) (*models.Record, error)

	// GetByServerID retrieves a record through the server-id index.
	// Returns ErrRecordNotFound if the record doesn't exist.
	GetByServerID(ctx context.Context, kind models.Kind, serverID int64) (*models.Record, error)

	// ListRecords returns every cached record of the kind.
	ListRecords(ctx context.Context, kind models.Kind) ([]*models.Record, error)

	// DeleteRecord removes a record and its index entry.
	DeleteRecord(ctx context.Context, kind models.Kind, localID string) error

	// ReplaceKind atomically swaps the whole collection for the given
	// records, except records with pending local changes, which are
	// preserved. Used after a full backend refresh.
	ReplaceKind(ctx context.Context, kind models.Kind, recs []*models.Record) error
}
