package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avikom/catersync/internal/client/auth"
	"github.com/avikom/catersync/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	authData, err := c.session.Current(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		c.io.Println("Session: not logged in")
		c.io.Println()
		c.io.Println("Run 'catersync login' to authenticate.")
		return nil
	case errors.Is(err, auth.ErrSessionExpired):
		c.io.Println("Session: expired")
		c.io.Println()
		c.io.Println("Run 'catersync login' to authenticate again.")
		return nil
	case err != nil:
		return fmt.Errorf("failed to check session: %w", err)
	}

	expiresAt := time.Unix(authData.ExpiresAt, 0)
	c.io.Println("Session: authenticated")
	c.io.Printf("Username: %s\n", authData.Username)
	c.io.Printf("Token expires: %s (in %s)\n",
		expiresAt.Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))

	if c.queue == nil {
		c.io.Println()
		c.io.Println("⚠️  Local store unavailable: running online-only, offline changes are disabled.")
		return nil
	}

	pending, err := c.orch.PendingCount(ctx)
	if err != nil {
		c.io.Printf("\nWarning: failed to read sync queue: %v\n", err)
		return nil
	}

	c.io.Println()
	if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d change(s) waiting\n", pending)
		c.io.Println("Run 'catersync sync' to push them to the server.")
	} else {
		c.io.Println("✓ All changes synchronized")
	}

	lastSync, err := c.orch.LastSyncAt(ctx)
	if err == nil && !lastSync.IsZero() {
		c.io.Printf("Last sync: %s\n", lastSync.Format(time.RFC3339))
	}

	if conflicts := c.orch.Conflicts(); len(conflicts) > 0 {
		c.io.Printf("⚠️  Unresolved conflicts: %d (see 'catersync conflicts')\n", len(conflicts))
	}

	return nil
}
