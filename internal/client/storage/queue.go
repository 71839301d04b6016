package storage

import (
	"context"

	"github.com/avikom/catersync/internal/models"
)

// QueueStore defines the interface for the durable sync queue.
// Item order is insertion order: AppendItem assigns monotonically
// increasing QueueIDs and every listing returns items sorted by them.
type QueueStore interface {
	// AppendItem durably appends a mutation and assigns its QueueID.
	AppendItem(ctx context.Context, item *models.QueueItem) error

	// UpdateItem rewrites an existing item in place (payload amendment,
	// attempt bookkeeping). Returns ErrItemNotFound if it is gone.
	UpdateItem(ctx context.Context, item *models.QueueItem) error

	// DeleteItem removes a single item.
	DeleteItem(ctx context.Context, queueID uint64) error

	// ListItems returns all items in queue order.
	ListItems(ctx context.Context) ([]*models.QueueItem, error)

	// ListItemsByLocalID returns the outstanding lineage of one record,
	// in queue order.
	ListItemsByLocalID(ctx context.Context, kind models.Kind, localID string) ([]*models.QueueItem, error)

	// DeleteItemsByLocalID purges every item of one record's lineage.
	DeleteItemsByLocalID(ctx context.Context, kind models.Kind, localID string) error

	// PendingCount returns the number of items eligible for the next
	// run, excluding permanently failed ones.
	PendingCount(ctx context.Context) (int, error)
}
