package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/auth"
	"github.com/avikom/catersync/internal/client/cache"
	"github.com/avikom/catersync/internal/client/cli"
	"github.com/avikom/catersync/internal/client/connectivity"
	"github.com/avikom/catersync/internal/client/iocli"
	"github.com/avikom/catersync/internal/client/queue"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/client/storage/boltdb"
	"github.com/avikom/catersync/internal/client/storage/memory"
	"github.com/avikom/catersync/internal/client/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "catersync-client.db", "Path to local database")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	io := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	// The bolt store backs offline work. When it cannot be opened the
	// client degrades to online-only mode on an in-memory store.
	var (
		entities  storage.EntityStore
		queues    storage.QueueStore
		metadata  storage.MetadataStore
		authStore storage.AuthStorage
	)
	boltStore, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: local store unavailable (%v); offline changes are disabled\n", err)
		mem := memory.New()
		entities, metadata, authStore = mem, mem, mem
	} else {
		defer func() {
			if err := boltStore.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
		entities, queues, metadata, authStore = boltStore, boltStore, boltStore, boltStore
	}

	// Session and client reference each other: the client pulls the
	// bearer token per request, the session logs in through the client.
	var session *auth.Session
	apiClient := apiclient.NewClient(*serverURL, apiclient.TokenSourceFunc(
		func(ctx context.Context) (string, error) {
			return session.Token(ctx)
		}))
	session = auth.NewSession(apiClient, authStore, logger)

	monitor := connectivity.NewMonitor(apiClient.Ping, 0, logger)

	caches := cache.NewSet(cache.Config{
		Backend:  apiClient,
		Entities: entities,
		Queue:    queues,
		Metadata: metadata,
		Online:   monitor.IsOnline,
		Logger:   logger,
	})

	var orch *sync.Orchestrator
	if queues != nil {
		orch = sync.New(queue.Config{
			Backend:  apiClient,
			Entities: entities,
			Queue:    queues,
			Logger:   logger,
		}, metadata)
		// Registered before the first probe: work queued during a
		// previous offline session drains as soon as the backend is
		// seen again. The sync and retry commands own their drain and
		// report it themselves.
		if command != "sync" && command != "retry" {
			monitor.OnReconnect(func() { orch.OnReconnect(ctx) })
		}
	}

	monitor.CheckNow(ctx)

	app := cli.New(io, session, caches, orch, queues)
	if err := app.Run(ctx, command, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("CaterSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
