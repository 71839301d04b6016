// Package sync coordinates queue drains: it reacts to reconnects,
// publishes progress events, and owns the conflicts awaiting a
// resolution decision.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avikom/catersync/internal/client/queue"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

// EventType enumerates the orchestrator's lifecycle notifications.
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventConflict  EventType = "conflict"
)

// Event is one sync lifecycle notification.
type Event struct {
	Err       error
	Conflict  *models.Conflict
	Type      EventType
	Total     int
	Processed int
	Failed    int
	Conflicts int
	Skipped   int
}

// Resolution names how a conflict should be settled.
type Resolution string

const (
	// KeepLocal resubmits the local payload against the server's
	// current version.
	KeepLocal Resolution = "keep-local"

	// KeepServer discards the local change and adopts the server copy.
	KeepServer Resolution = "keep-server"

	// Merged resubmits a caller-supplied combination of both sides.
	Merged Resolution = "merged"
)

// ErrUnknownConflict is returned when resolving a localId with no
// recorded conflict.
var ErrUnknownConflict = errors.New("no conflict recorded for record")

// Orchestrator drives queue drains and conflict resolution.
type Orchestrator struct {
	processor *queue.Processor
	queue     storage.QueueStore
	entities  storage.EntityStore
	meta      storage.MetadataStore
	logger    *slog.Logger

	mu          sync.Mutex
	subscribers map[int]func(Event)
	nextSubID   int
	conflicts   map[string]*models.Conflict
	running     bool
}

// New creates an orchestrator owning its queue processor. The Hooks
// field of cfg is overwritten; the orchestrator is the processor's
// sole listener.
func New(cfg queue.Config, meta storage.MetadataStore) *Orchestrator {
	o := &Orchestrator{
		queue:       cfg.Queue,
		entities:    cfg.Entities,
		meta:        meta,
		logger:      cfg.Logger,
		subscribers: make(map[int]func(Event)),
		conflicts:   make(map[string]*models.Conflict),
	}

	cfg.Hooks = queue.Hooks{
		Progress: o.onProgress,
		Conflict: o.onConflict,
	}
	o.processor = queue.New(cfg)
	return o
}

// Subscribe registers a listener for sync events and returns a
// function that removes it again. Listeners are invoked synchronously
// on the syncing goroutine.
func (o *Orchestrator) Subscribe(fn func(Event)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

// OnReconnect is wired as the connectivity monitor's callback: drain
// only when there is something queued, so an idle client reconnecting
// does not spam the backend.
func (o *Orchestrator) OnReconnect(ctx context.Context) {
	count, err := o.queue.PendingCount(ctx)
	if err != nil {
		o.logger.Error("failed to count pending items", "error", err)
		return
	}
	if count == 0 {
		o.logger.Debug("reconnected with empty queue")
		return
	}
	o.TriggerSync(ctx)
}

// TriggerSync drains the queue once. A drain already in progress makes
// the call a no-op.
func (o *Orchestrator) TriggerSync(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		o.logger.Debug("sync already running")
		return
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	eligible, err := o.queue.PendingCount(ctx)
	if err != nil {
		o.logger.Warn("failed to count eligible items", "error", err)
	}
	o.publish(Event{Type: EventStarted, Total: eligible})

	result, err := o.processor.Run(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrAlreadyRunning) {
			return
		}
		o.logger.Error("sync failed", "error", err)
		o.publish(Event{Type: EventFailed, Err: err})
		return
	}

	if err := o.meta.SaveLastSyncAt(ctx, time.Now().UTC()); err != nil {
		o.logger.Warn("failed to record sync time", "error", err)
	}

	o.logger.Info("sync completed", "total", result.Total, "processed", result.Processed,
		"failed", result.Failed, "conflicts", result.Conflicts, "skipped", result.Skipped)
	o.publish(Event{
		Type:      EventCompleted,
		Total:     result.Total,
		Processed: result.Processed,
		Failed:    result.Failed,
		Conflicts: result.Conflicts,
		Skipped:   result.Skipped,
	})
}

// PendingCount reports how many queued mutations await sync.
func (o *Orchestrator) PendingCount(ctx context.Context) (int, error) {
	return o.queue.PendingCount(ctx)
}

// LastSyncAt reports when the last drain completed; zero before the
// first one.
func (o *Orchestrator) LastSyncAt(ctx context.Context) (time.Time, error) {
	return o.meta.GetLastSyncAt(ctx)
}

// Conflicts lists the unresolved conflicts recorded since startup.
func (o *Orchestrator) Conflicts() []*models.Conflict {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*models.Conflict, 0, len(o.conflicts))
	for _, c := range o.conflicts {
		out = append(out, c)
	}
	return out
}

// Conflict returns the recorded conflict for localID, if any.
func (o *Orchestrator) Conflict(localID string) (*models.Conflict, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.conflicts[localID]
	return c, ok
}

// RetryFailed re-arms permanently failed queue items so the next drain
// attempts them again. Items parked by a conflict stay parked.
func (o *Orchestrator) RetryFailed(ctx context.Context) (int, error) {
	items, err := o.queue.ListItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list queue: %w", err)
	}

	o.mu.Lock()
	conflicted := make(map[string]bool, len(o.conflicts))
	for id := range o.conflicts {
		conflicted[id] = true
	}
	o.mu.Unlock()

	rearmed := 0
	for _, item := range items {
		if !item.Permanent || conflicted[item.LocalID] {
			continue
		}
		item.Permanent = false
		item.Attempts = 0
		item.LastError = ""
		if err := o.queue.UpdateItem(ctx, item); err != nil {
			return rearmed, fmt.Errorf("failed to re-arm item %d: %w", item.QueueID, err)
		}
		rearmed++
	}

	o.logger.Info("re-armed failed items", "count", rearmed)
	return rearmed, nil
}

// onProgress relays processor progress as events.
func (o *Orchestrator) onProgress(done, total int) {
	o.publish(Event{Type: EventProgress, Processed: done, Total: total})
}

// onConflict records the conflict and publishes it.
func (o *Orchestrator) onConflict(c *models.Conflict) {
	o.mu.Lock()
	o.conflicts[c.LocalID] = c
	o.mu.Unlock()
	o.publish(Event{Type: EventConflict, Conflict: c})
}

func (o *Orchestrator) publish(event Event) {
	o.mu.Lock()
	subs := make([]func(Event), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}
