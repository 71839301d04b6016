package api

import (
	"encoding/json"
	"time"
)

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeVersionMismatch = "version_mismatch"
	CodeValidation      = "validation"
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
)

// Entity is one backend record of any collection. Data holds the
// kind-specific payload verbatim; UpdatedAt doubles as the optimistic
// concurrency version and is compared as an exact RFC 3339 string.
type Entity struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
	ID        int64           `json:"id"`
}

// Version returns the entity's opaque concurrency version.
func (e *Entity) Version() string {
	return e.UpdatedAt.UTC().Format(time.RFC3339Nano)
}

// ListQuery narrows a collection listing. Zero values are omitted from
// the request; only orders honor Status, From, To and Offset.
type ListQuery struct {
	From   time.Time
	To     time.Time
	Search string
	Status string
	Limit  int
	Offset int
}

// IsZero reports whether the query applies no filtering at all.
func (q ListQuery) IsZero() bool {
	return q.Search == "" && q.Status == "" && q.From.IsZero() && q.To.IsZero() &&
		q.Limit == 0 && q.Offset == 0
}

// ListResponse is the body of a collection listing.
type ListResponse struct {
	Items []Entity `json:"items"`
}

// ErrorResponse is the structured error body. Current carries the
// server's present version of the record on version_mismatch so the
// client can surface both sides of a conflict.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message,omitempty"`
	Current *Entity `json:"current,omitempty"`
}
