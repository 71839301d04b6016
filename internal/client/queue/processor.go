// Package queue drains the pending-mutation queue against the backend
// in the order the mutations were recorded.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

// DefaultMaxAttempts is the retry ceiling before a queue item is
// parked as permanently failed.
const DefaultMaxAttempts = 5

// ErrAlreadyRunning is returned when Run is called while a drain is in
// progress. Callers treat it as a no-op.
var ErrAlreadyRunning = errors.New("queue drain already running")

// Hooks are optional callbacks invoked during a drain.
type Hooks struct {
	// Progress fires after every item with the running counts.
	Progress func(done, total int)

	// Conflict fires exactly once per conflicted lineage.
	Conflict func(*models.Conflict)
}

// RunResult summarizes one drain. Total is always the sum of the
// other four counters.
type RunResult struct {
	Total     int // items eligible at the start of the run
	Processed int // confirmed by the backend
	Failed    int // errored, transient or permanent
	Conflicts int // parked with a version conflict
	Skipped   int // untouched: lineage blocked earlier, or drain cut short
}

// Config wires a Processor.
type Config struct {
	Backend     apiclient.Backend
	Entities    storage.EntityStore
	Queue       storage.QueueStore
	Logger      *slog.Logger
	Hooks       Hooks
	MaxAttempts int
}

// Processor replays queued mutations against the backend.
type Processor struct {
	backend     apiclient.Backend
	entities    storage.EntityStore
	queue       storage.QueueStore
	logger      *slog.Logger
	hooks       Hooks
	maxAttempts int

	mu              sync.Mutex
	running         bool
	lastUnavailable bool
}

// New creates a processor.
func New(cfg Config) *Processor {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Processor{
		backend:     cfg.Backend,
		entities:    cfg.Entities,
		queue:       cfg.Queue,
		logger:      cfg.Logger,
		hooks:       cfg.Hooks,
		maxAttempts: maxAttempts,
	}
}

// Run drains the queue once, oldest item first. Items sharing a
// localId form a lineage; when one item fails its lineage is parked
// for the rest of the run so unrelated lineages still drain. A
// transport failure ends the run early since every remaining item
// would hit the same wall.
func (p *Processor) Run(ctx context.Context) (*RunResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	items, err := p.queue.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}

	result := &RunResult{}
	for _, item := range items {
		if !item.Permanent {
			result.Total++
		}
	}
	if result.Total == 0 {
		return result, nil
	}

	blocked := make(map[string]bool)
	for _, item := range items {
		if item.Permanent || blocked[item.LocalID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := p.processItem(ctx, item)
		switch outcome {
		case outcomeDone:
			result.Processed++
		case outcomeConflict:
			result.Conflicts++
			blocked[item.LocalID] = true
		case outcomeFailed:
			result.Failed++
			blocked[item.LocalID] = true
		}

		if p.hooks.Progress != nil {
			p.hooks.Progress(result.Processed+result.Failed+result.Conflicts, result.Total)
		}

		if outcome == outcomeFailed && p.lastUnavailable {
			p.logger.Warn("backend unreachable, stopping drain",
				"processed", result.Processed, "remaining", result.Total-result.Processed-result.Failed-result.Conflicts)
			break
		}
	}

	result.Skipped = result.Total - result.Processed - result.Failed - result.Conflicts
	return result, nil
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeConflict
	outcomeFailed
)

func (p *Processor) processItem(ctx context.Context, item *models.QueueItem) outcome {
	p.lastUnavailable = false

	rec, err := p.entities.GetByLocalID(ctx, item.Kind, item.LocalID)
	if errors.Is(err, storage.ErrRecordNotFound) {
		// The record is gone locally; the mutation is moot.
		p.logger.Warn("dropping orphaned queue item", "queue_id", item.QueueID, "kind", item.Kind)
		if err := p.queue.DeleteItem(ctx, item.QueueID); err != nil {
			p.logger.Error("failed to drop orphaned item", "queue_id", item.QueueID, "error", err)
		}
		return outcomeDone
	}
	if err != nil {
		return p.fail(ctx, item, err)
	}

	switch item.Op {
	case models.OpCreate:
		return p.processCreate(ctx, item, rec)
	case models.OpUpdate:
		return p.processUpdate(ctx, item, rec)
	case models.OpDelete:
		return p.processDelete(ctx, item, rec)
	default:
		return p.fail(ctx, item, fmt.Errorf("unknown operation %q", item.Op))
	}
}

func (p *Processor) processCreate(ctx context.Context, item *models.QueueItem, rec *models.Record) outcome {
	entity, err := p.backend.Create(ctx, item.Kind, item.Payload)
	if err != nil {
		return p.fail(ctx, item, err)
	}

	rec.ServerID = entity.ID
	rec.Payload = entity.Data
	rec.LastServerVersion = entity.Version()
	rec.Status = models.StatusSynced
	return p.commit(ctx, item, rec)
}

func (p *Processor) processUpdate(ctx context.Context, item *models.QueueItem, rec *models.Record) outcome {
	entity, err := p.backend.Update(ctx, item.Kind, rec.ServerID, item.Payload, item.BaseVersion)
	if err != nil {
		if conflict, ok := apiclient.AsConflict(err); ok {
			return p.park(ctx, item, rec, conflict)
		}
		return p.fail(ctx, item, err)
	}

	rec.Payload = entity.Data
	rec.LastServerVersion = entity.Version()
	rec.Status = models.StatusSynced
	return p.commit(ctx, item, rec)
}

func (p *Processor) processDelete(ctx context.Context, item *models.QueueItem, rec *models.Record) outcome {
	err := p.backend.Delete(ctx, item.Kind, rec.ServerID)
	if err != nil && !apiclient.IsNotFound(err) {
		// A delete cannot conflict; someone else's edit loses to removal.
		return p.fail(ctx, item, err)
	}

	if err := p.entities.DeleteRecord(ctx, item.Kind, item.LocalID); err != nil {
		return p.fail(ctx, item, err)
	}
	if err := p.queue.DeleteItem(ctx, item.QueueID); err != nil {
		p.logger.Error("failed to dequeue confirmed delete", "queue_id", item.QueueID, "error", err)
	}
	p.logger.Info("synced delete", "kind", item.Kind, "local_id", item.LocalID)
	return outcomeDone
}

// commit persists the backend's authoritative copy and dequeues the item.
func (p *Processor) commit(ctx context.Context, item *models.QueueItem, rec *models.Record) outcome {
	if err := p.entities.SaveRecord(ctx, rec); err != nil {
		return p.fail(ctx, item, err)
	}
	if err := p.queue.DeleteItem(ctx, item.QueueID); err != nil {
		p.logger.Error("failed to dequeue synced item", "queue_id", item.QueueID, "error", err)
	}
	p.logger.Info("synced mutation", "op", item.Op, "kind", item.Kind,
		"local_id", item.LocalID, "server_id", rec.ServerID)
	return outcomeDone
}

// park records a version conflict: the record is flagged, the item is
// held out of future drains until the conflict is resolved, and the
// conflict hook fires with both sides of the divergence.
func (p *Processor) park(ctx context.Context, item *models.QueueItem, rec *models.Record, conflict *apiclient.ConflictError) outcome {
	rec.Status = models.StatusConflict
	if err := p.entities.SaveRecord(ctx, rec); err != nil {
		p.logger.Error("failed to flag conflicted record", "local_id", item.LocalID, "error", err)
	}

	item.Permanent = true
	item.LastError = "version conflict"
	if err := p.queue.UpdateItem(ctx, item); err != nil {
		p.logger.Error("failed to park conflicted item", "queue_id", item.QueueID, "error", err)
	}

	c := &models.Conflict{
		Kind:    item.Kind,
		LocalID: item.LocalID,
		Local:   item.Payload,
	}
	if conflict.Current != nil {
		c.Server = conflict.Current.Data
		c.ServerVersion = conflict.Current.Version()
		c.ServerID = conflict.Current.ID
		c.ChangedFields = models.DiffFields(item.Payload, conflict.Current.Data)
	}

	p.logger.Warn("version conflict", "kind", item.Kind, "local_id", item.LocalID,
		"base_version", item.BaseVersion, "server_version", c.ServerVersion)
	if p.hooks.Conflict != nil {
		p.hooks.Conflict(c)
	}
	return outcomeConflict
}

// fail books one failed attempt. Transient errors retry on later runs
// up to the attempt ceiling; anything else is parked immediately.
func (p *Processor) fail(ctx context.Context, item *models.QueueItem, cause error) outcome {
	item.Attempts++
	item.LastError = cause.Error()
	p.lastUnavailable = apiclient.IsUnavailable(cause)

	if !apiclient.IsTransient(cause) || item.Attempts >= p.maxAttempts {
		item.Permanent = true
	}

	if err := p.queue.UpdateItem(ctx, item); err != nil {
		p.logger.Error("failed to record attempt", "queue_id", item.QueueID, "error", err)
	}

	p.logger.Warn("queue item failed", "queue_id", item.QueueID, "op", item.Op,
		"kind", item.Kind, "attempts", item.Attempts, "permanent", item.Permanent, "error", cause)
	return outcomeFailed
}
