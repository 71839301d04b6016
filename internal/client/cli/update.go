package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/cache"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/validation"
)

func (c *Cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: catersync update <collection> <id> [--file payload.json]")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	localID := args[1]

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	file := fs.String("file", "", "Read the payload from a JSON file")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	payload, err := c.readPayload(*file)
	if err != nil {
		return err
	}
	if err := validation.ValidatePayload(kind, payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	entityCache, err := c.caches.For(kind)
	if err != nil {
		return err
	}

	rec, err := entityCache.Update(ctx, localID, payload)
	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		return fmt.Errorf("no %s record with id %s", kind, localID)
	case errors.Is(err, cache.ErrDeletePending):
		return fmt.Errorf("record %s is queued for deletion and cannot be updated", localID)
	case errors.Is(err, cache.ErrConflictPending):
		return fmt.Errorf("record %s has an unresolved conflict; settle it with 'catersync resolve' first", localID)
	case apiclient.IsConflict(err):
		return fmt.Errorf("record %s was changed on the server; run 'catersync list %s' to refresh and retry", localID, kind)
	case err != nil:
		return fmt.Errorf("failed to update record: %w", err)
	}

	c.io.Printf("✓ Updated %s record %s\n", kind, rec.LocalID)
	if rec.Status.Pending() {
		c.io.Println("The change is queued and will sync when the server is reachable.")
	}
	return nil
}
