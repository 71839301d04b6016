package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avikom/catersync/pkg/api"
)

// UnavailableError wraps transport-level failures: the backend could
// not be reached at all. Never surfaced to the user as a failure; the
// caller falls back to the offline path.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ConflictError reports an optimistic-concurrency precondition failure
// (HTTP 412). Current carries the server's present version of the record.
type ConflictError struct {
	Current *api.Entity
}

func (e *ConflictError) Error() string {
	return "record changed on server since last sync"
}

// StatusError is any other non-2xx response, with the machine-readable
// code from the structured error body when one was present.
type StatusError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error (%d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsUnavailable reports whether err means the backend was unreachable.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsConflict reports whether err is a precondition failure.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// AsConflict extracts the conflict details from err, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsNotFound reports whether the server answered 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsTransient reports whether the failure is worth retrying: the
// backend was unreachable, timed out, throttled us, or failed with a
// server-side error.
func IsTransient(err error) bool {
	if IsUnavailable(err) {
		return true
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch {
	case se.StatusCode >= 500:
		return true
	case se.StatusCode == http.StatusRequestTimeout:
		return true
	case se.StatusCode == http.StatusTooManyRequests:
		return true
	}
	return false
}
