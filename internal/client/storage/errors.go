package storage

import "errors"

// Common client storage errors
var (
	// ErrRecordNotFound indicates that no cached record matches the key
	ErrRecordNotFound = errors.New("record not found")

	// ErrItemNotFound indicates that the queue item does not exist
	ErrItemNotFound = errors.New("queue item not found")

	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
