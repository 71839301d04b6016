// Package auth manages the client's backend session: registration,
// login, and the persisted bearer token attached to API calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/validation"
	"github.com/avikom/catersync/pkg/api"
)

// ErrSessionExpired is returned when the stored token's lifetime has
// passed and the user must log in again.
var ErrSessionExpired = errors.New("session expired, log in again")

// Session handles login state. It implements api.TokenSource so the
// HTTP client can pull the current token per request.
type Session struct {
	client *apiclient.Client
	store  storage.AuthStorage
	logger *slog.Logger
}

var _ apiclient.TokenSource = (*Session)(nil)

// NewSession creates a session service backed by store.
func NewSession(client *apiclient.Client, store storage.AuthStorage, logger *slog.Logger) *Session {
	return &Session{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Register creates a backend account. It does not log in.
func (s *Session) Register(ctx context.Context, username, password string) (*api.RegisterResponse, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.client.Register(ctx, api.RegisterRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("registered", "username", username, "user_id", resp.UserID)
	return resp, nil
}

// Login authenticates and persists the issued token.
func (s *Session) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.client.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	auth := &storage.AuthData{
		Username:    username,
		AccessToken: resp.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("logged in", "username", username)
	return auth, nil
}

// Logout drops the stored session. Deleting an absent session is not
// an error.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Current returns the stored session, or ErrSessionExpired when the
// token's lifetime has passed.
func (s *Session) Current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.ExpiresAt > 0 && time.Now().Unix() >= auth.ExpiresAt {
		return nil, ErrSessionExpired
	}
	return auth, nil
}

// IsAuthenticated reports whether a live session exists.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Current(ctx)
	return err == nil
}

// Token implements api.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	auth, err := s.Current(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return "", fmt.Errorf("not logged in: %w", err)
		}
		return "", err
	}
	return auth.AccessToken, nil
}
