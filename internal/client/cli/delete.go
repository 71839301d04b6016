package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avikom/catersync/internal/client/storage"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: catersync delete <collection> <id>")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	localID := args[1]

	answer, err := c.io.ReadInput(fmt.Sprintf("Delete %s record %s? [y/N]: ", kind, localID))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		c.io.Println("Cancelled.")
		return nil
	}

	entityCache, err := c.caches.For(kind)
	if err != nil {
		return err
	}

	if err := entityCache.Delete(ctx, localID); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("no %s record with id %s", kind, localID)
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	c.io.Printf("✓ Deleted %s record %s\n", kind, localID)
	return nil
}
