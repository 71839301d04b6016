package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: catersync get <collection> <id>")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	localID := args[1]

	entityCache, err := c.caches.For(kind)
	if err != nil {
		return err
	}

	rec, err := entityCache.GetByLocalID(ctx, localID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("no %s record with id %s", kind, localID)
		}
		return fmt.Errorf("failed to get record: %w", err)
	}

	if kind == models.KindOrders {
		view := orderView{Record: rec}
		if err := json.Unmarshal(rec.Payload, &view.Order); err != nil {
			return fmt.Errorf("malformed order payload: %w", err)
		}
		return c.render(orderDetailTemplate, &view)
	}

	c.io.Printf("ID:   %s\n", rec.LocalID)
	if rec.ServerID != 0 {
		c.io.Printf("Server ID: %d\n", rec.ServerID)
	}
	c.io.Printf("Sync: %s\n", rec.Status)
	c.io.Println()

	pretty, err := json.MarshalIndent(json.RawMessage(rec.Payload), "", "  ")
	if err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	c.io.Printf("%s\n", pretty)
	return nil
}
