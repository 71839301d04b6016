package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runPending(ctx context.Context) error {
	if c.queue == nil {
		return fmt.Errorf("local store unavailable: no queue in online-only mode")
	}

	items, err := c.queue.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync queue: %w", err)
	}

	if len(items) == 0 {
		c.io.Println("✓ Sync queue is empty.")
		return nil
	}

	c.io.Printf("%d queued change(s):\n", len(items))
	c.io.Println()
	for _, item := range items {
		c.io.Printf("- #%d %s %s %s\n", item.QueueID, item.Op, item.Kind, item.LocalID)
		if item.Attempts > 0 {
			c.io.Printf("   attempts: %d\n", item.Attempts)
		}
		if item.Permanent {
			c.io.Printf("   ⚠️  parked: %s\n", item.LastError)
		}
	}
	return nil
}
