package models

import (
	"encoding/json"
	"time"
)

// Operation is the kind of deferred mutation a queue item carries.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// QueueItem is one durable unit of deferred work targeting one record.
//
// QueueID is assigned by the local store from a monotonic sequence, so
// insertion order is processing order. BaseVersion is the server version
// the mutation was built on (empty for creates); the processor sends it
// as the update precondition. Permanent marks items that exhausted their
// retries or failed validation and must not be replayed automatically.
type QueueItem struct {
	CreatedAt   time.Time       `json:"created_at"`
	Kind        Kind            `json:"kind"`
	LocalID     string          `json:"local_id"`
	Op          Operation       `json:"op"`
	BaseVersion string          `json:"base_version"`
	LastError   string          `json:"last_error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	QueueID     uint64          `json:"queue_id"`
	Attempts    int             `json:"attempts"`
	Permanent   bool            `json:"permanent"`
}
