package cli

import (
	"context"
	"fmt"

	"github.com/avikom/catersync/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	if c.queue == nil {
		return fmt.Errorf("local store unavailable: nothing to sync in online-only mode")
	}

	pending, err := c.orch.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync queue: %w", err)
	}
	if pending == 0 {
		c.io.Println("✓ Nothing to sync.")
		return nil
	}

	c.io.Printf("Syncing %d change(s)...\n", pending)

	var completed sync.Event
	unsubscribe := c.orch.Subscribe(func(e sync.Event) {
		switch e.Type {
		case sync.EventProgress:
			c.io.Printf("  %d/%d\n", e.Processed, e.Total)
		case sync.EventConflict:
			c.io.Printf("  ⚠️  conflict on %s %s (fields: %v)\n",
				e.Conflict.Kind, e.Conflict.LocalID, e.Conflict.ChangedFields)
		case sync.EventCompleted, sync.EventFailed:
			completed = e
		}
	})

	c.orch.TriggerSync(ctx)
	unsubscribe()

	if completed.Type == sync.EventFailed {
		return fmt.Errorf("sync failed: %w", completed.Err)
	}

	c.io.Println()
	c.io.Println("✓ Sync completed")
	c.io.Printf("  Pushed:    %d\n", completed.Processed)
	if completed.Failed > 0 {
		c.io.Printf("  Failed:    %d (see 'catersync pending', re-arm with 'catersync retry')\n", completed.Failed)
	}
	if completed.Conflicts > 0 {
		c.io.Printf("  Conflicts: %d (see 'catersync conflicts')\n", completed.Conflicts)
	}
	if completed.Skipped > 0 {
		c.io.Printf("  Skipped:   %d (held back behind an earlier failure on the same record)\n", completed.Skipped)
	}
	return nil
}

func (c *Cli) runRetry(ctx context.Context) error {
	if c.queue == nil {
		return fmt.Errorf("local store unavailable: no queue in online-only mode")
	}

	count, err := c.orch.RetryFailed(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-arm queue items: %w", err)
	}
	if count == 0 {
		c.io.Println("No failed items to retry.")
		return nil
	}

	c.io.Printf("✓ Re-armed %d item(s). Running sync...\n", count)
	return c.runSync(ctx)
}
