package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avikom/catersync/internal/models"
)

// ResolveConflict settles a recorded conflict.
//
// KeepServer adopts the server copy: the record becomes synced at the
// server's version and the parked queue item is discarded. KeepLocal
// rebases the parked item onto the server's version so the next drain
// resubmits the local payload. Merged does the same with the supplied
// payload substituted for the local one.
func (o *Orchestrator) ResolveConflict(ctx context.Context, localID string, resolution Resolution, merged json.RawMessage) error {
	o.mu.Lock()
	conflict, ok := o.conflicts[localID]
	o.mu.Unlock()
	if !ok {
		return ErrUnknownConflict
	}

	rec, err := o.entities.GetByLocalID(ctx, conflict.Kind, localID)
	if err != nil {
		return fmt.Errorf("failed to load conflicted record: %w", err)
	}

	switch resolution {
	case KeepServer:
		if err := o.resolveKeepServer(ctx, conflict, rec); err != nil {
			return err
		}
	case KeepLocal:
		if err := o.resolveResubmit(ctx, conflict, rec, conflict.Local); err != nil {
			return err
		}
	case Merged:
		if len(merged) == 0 {
			return fmt.Errorf("merged resolution requires a payload")
		}
		if err := o.resolveResubmit(ctx, conflict, rec, merged); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown resolution %q", resolution)
	}

	o.mu.Lock()
	delete(o.conflicts, localID)
	o.mu.Unlock()

	o.logger.Info("conflict resolved", "kind", conflict.Kind, "local_id", localID, "resolution", resolution)
	return nil
}

// DismissConflict forgets a conflict without touching the record. The
// record stays flagged until a later refresh or resolution.
func (o *Orchestrator) DismissConflict(localID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.conflicts[localID]; !ok {
		return ErrUnknownConflict
	}
	delete(o.conflicts, localID)
	return nil
}

// resolveKeepServer drops the local change entirely.
func (o *Orchestrator) resolveKeepServer(ctx context.Context, conflict *models.Conflict, rec *models.Record) error {
	rec.Payload = conflict.Server
	rec.LastServerVersion = conflict.ServerVersion
	rec.ServerID = conflict.ServerID
	rec.Status = models.StatusSynced
	if err := o.entities.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to adopt server copy: %w", err)
	}

	if err := o.queue.DeleteItemsByLocalID(ctx, conflict.Kind, conflict.LocalID); err != nil {
		return fmt.Errorf("failed to discard parked mutation: %w", err)
	}
	return nil
}

// resolveResubmit re-arms the parked item with payload, rebased onto
// the server's current version so the next drain passes the
// precondition unless the server moved again.
func (o *Orchestrator) resolveResubmit(ctx context.Context, conflict *models.Conflict, rec *models.Record, payload json.RawMessage) error {
	items, err := o.queue.ListItemsByLocalID(ctx, conflict.Kind, conflict.LocalID)
	if err != nil {
		return fmt.Errorf("failed to load parked mutation: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("conflict for %s has no parked queue item", conflict.LocalID)
	}

	// The lineage collapses into the one re-armed item; anything older
	// carries a base version that predates the conflict.
	for _, stale := range items[:len(items)-1] {
		if err := o.queue.DeleteItem(ctx, stale.QueueID); err != nil {
			return fmt.Errorf("failed to drop stale lineage item %d: %w", stale.QueueID, err)
		}
	}

	item := items[len(items)-1]
	item.Payload = payload
	item.BaseVersion = conflict.ServerVersion
	item.Permanent = false
	item.Attempts = 0
	item.LastError = ""
	if err := o.queue.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to re-arm parked mutation: %w", err)
	}

	rec.Payload = payload
	rec.LastServerVersion = conflict.ServerVersion
	rec.Status = models.StatusPendingUpdate
	if err := o.entities.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to save rebased record: %w", err)
	}
	return nil
}
