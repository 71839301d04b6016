package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/avikom/catersync/internal/client/sync"
)

func (c *Cli) runConflicts(ctx context.Context) error {
	if c.queue == nil {
		return fmt.Errorf("local store unavailable: no conflicts in online-only mode")
	}

	conflicts := c.orch.Conflicts()
	if len(conflicts) == 0 {
		c.io.Println("✓ No unresolved conflicts.")
		c.io.Println()
		c.io.Println("Conflicts are detected during sync; run 'catersync sync' first if you expect some.")
		return nil
	}

	c.io.Printf("%d unresolved conflict(s):\n", len(conflicts))
	for _, conflict := range conflicts {
		c.io.Println()
		c.io.Printf("- %s %s\n", conflict.Kind, conflict.LocalID)
		c.io.Printf("   changed fields: %v\n", conflict.ChangedFields)
		c.io.Printf("   yours:  %s\n", compactJSON(conflict.Local))
		c.io.Printf("   server: %s\n", compactJSON(conflict.Server))
	}
	c.io.Println()
	c.io.Println("Resolve with 'catersync resolve <id> <keep-local|keep-server|merged>'.")
	return nil
}

func (c *Cli) runResolve(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: catersync resolve <id> <keep-local|keep-server|merged> [--file merged.json]")
	}
	if c.queue == nil {
		return fmt.Errorf("local store unavailable: no conflicts in online-only mode")
	}
	localID := args[0]
	resolution := sync.Resolution(args[1])

	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	file := fs.String("file", "", "Merged payload file (required for 'merged')")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	var merged json.RawMessage
	if resolution == sync.Merged {
		payload, err := c.readPayload(*file)
		if err != nil {
			return err
		}
		merged = payload
	}

	err := c.orch.ResolveConflict(ctx, localID, resolution, merged)
	if err != nil {
		if errors.Is(err, sync.ErrUnknownConflict) {
			return fmt.Errorf("no conflict recorded for %s; conflicts are detected during sync, run 'catersync sync' first", localID)
		}
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	c.io.Printf("✓ Conflict on %s resolved (%s)\n", localID, resolution)
	if resolution != sync.KeepServer {
		c.io.Println("The change will be resubmitted on the next sync.")
	}
	return nil
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
