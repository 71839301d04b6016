package storage

import (
	"context"
	"time"

	"github.com/avikom/catersync/internal/models"
)

// MetadataStore defines the interface for cache bookkeeping values.
type MetadataStore interface {
	// SaveLastRefresh records when a full collection fetch last succeeded.
	SaveLastRefresh(ctx context.Context, kind models.Kind, at time.Time) error

	// GetLastRefresh returns the last full refresh time for the kind.
	// Returns the zero time if the collection was never fetched.
	GetLastRefresh(ctx context.Context, kind models.Kind) (time.Time, error)

	// SaveLastSyncAt records when a queue run last completed.
	SaveLastSyncAt(ctx context.Context, at time.Time) error

	// GetLastSyncAt returns the last completed run time, or the zero
	// time if no run has completed yet.
	GetLastSyncAt(ctx context.Context) (time.Time, error)
}
