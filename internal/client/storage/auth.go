package storage

import "context"

// AuthStorage defines the interface for the persisted session. The data
// layer consumes authentication as a capability: it stores the issued
// bearer token and attaches it to backend calls, nothing more.
type AuthStorage interface {
	// SaveAuth stores the current session.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves the stored session.
	// Returns ErrAuthNotFound if no session exists.
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session (logout).
	DeleteAuth(ctx context.Context) error
}

// AuthData is the persisted session state.
type AuthData struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
}
