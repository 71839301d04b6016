package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrEntityNotFound indicates that the record was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrVersionMismatch indicates that the If-Match precondition failed:
	// the record changed since the version the caller based its write on
	ErrVersionMismatch = errors.New("entity version mismatch")
)
