// Package cli implements the catersync command surface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/avikom/catersync/internal/client/auth"
	"github.com/avikom/catersync/internal/client/cache"
	"github.com/avikom/catersync/internal/client/iocli"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/client/sync"
	"github.com/avikom/catersync/internal/models"
)

// Cli bundles the services the commands operate on.
type Cli struct {
	io      iocli.IO
	session *auth.Session
	caches  *cache.Set
	orch    *sync.Orchestrator
	queue   storage.QueueStore // nil in online-only mode
}

// New creates the command dispatcher. queue may be nil when the local
// store is unavailable (online-only mode).
func New(io iocli.IO, session *auth.Session, caches *cache.Set, orch *sync.Orchestrator, queue storage.QueueStore) *Cli {
	return &Cli{
		io:      io,
		session: session,
		caches:  caches,
		orch:    orch,
		queue:   queue,
	}
}

// Run dispatches one command. The returned error is the command's
// failure, already worded for the user.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "list":
		return c.runList(ctx, args)
	case "get":
		return c.runGet(ctx, args)
	case "create":
		return c.runCreate(ctx, args)
	case "update":
		return c.runUpdate(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "retry":
		return c.runRetry(ctx)
	case "pending":
		return c.runPending(ctx)
	case "conflicts":
		return c.runConflicts(ctx)
	case "resolve":
		return c.runResolve(ctx, args)
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage writes the top-level help text.
func (c *Cli) PrintUsage() {
	c.io.Printf("%s", usageText)
}

// PrintUsage writes the help text to stdout, for use before the
// command dispatcher exists.
func PrintUsage() {
	fmt.Print(usageText)
}

// parseKind resolves and validates a collection argument.
func parseKind(arg string) (models.Kind, error) {
	kind := models.Kind(strings.ToLower(arg))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown collection %q (use: orders, clients, caterers, airports, fbos, menu_items)", arg)
	}
	return kind, nil
}

// readPayload loads a record payload either from --file or, when no
// file is given, from an interactive prompt.
func (c *Cli) readPayload(file string) (json.RawMessage, error) {
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return json.RawMessage(content), nil
	}

	input, err := c.io.ReadInput("Payload (JSON): ")
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("payload cannot be empty")
	}
	return json.RawMessage(input), nil
}
