package models

import (
	"encoding/json"
	"time"
)

// Kind identifies one cached entity collection.
type Kind string

// Cached entity kinds. The string value doubles as the backend
// collection name and the local bucket name.
const (
	KindOrders    Kind = "orders"
	KindClients   Kind = "clients"
	KindCaterers  Kind = "caterers"
	KindAirports  Kind = "airports"
	KindFBOs      Kind = "fbos"
	KindMenuItems Kind = "menu_items"
)

// Kinds lists every entity kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindOrders,
		KindClients,
		KindCaterers,
		KindAirports,
		KindFBOs,
		KindMenuItems,
	}
}

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	switch k {
	case KindOrders, KindClients, KindCaterers, KindAirports, KindFBOs, KindMenuItems:
		return true
	}
	return false
}

// SyncStatus describes a record's relationship to the backend.
type SyncStatus string

const (
	StatusSynced        SyncStatus = "synced"
	StatusPendingCreate SyncStatus = "pending_create"
	StatusPendingUpdate SyncStatus = "pending_update"
	StatusPendingDelete SyncStatus = "pending_delete"
	StatusConflict      SyncStatus = "conflict"
)

// Pending reports whether the record still has work queued against the backend.
func (s SyncStatus) Pending() bool {
	switch s {
	case StatusPendingCreate, StatusPendingUpdate, StatusPendingDelete:
		return true
	}
	return false
}

// Record is one locally cached entity of any kind.
//
// LocalID is client-generated (UUID) and stable for the lifetime of the
// record; it is the addressing key while ServerID is unknown. ServerID is
// assigned by the backend, immutable once set, and zero until then.
// LastServerVersion is the server's updated_at captured the last time the
// local copy was known to match the server; updates send it back as the
// optimistic-concurrency precondition.
type Record struct {
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	LocalID           string          `json:"local_id"`
	Kind              Kind            `json:"kind"`
	Status            SyncStatus      `json:"status"`
	LastServerVersion string          `json:"last_server_version"`
	Payload           json.RawMessage `json:"payload"`
	ServerID          int64           `json:"server_id"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	payload := make(json.RawMessage, len(r.Payload))
	copy(payload, r.Payload)

	return &Record{
		LocalID:           r.LocalID,
		ServerID:          r.ServerID,
		Kind:              r.Kind,
		Status:            r.Status,
		Payload:           payload,
		LastServerVersion: r.LastServerVersion,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
