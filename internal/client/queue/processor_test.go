package queue

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/avikom/catersync/internal/client/api"
	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/client/storage/boltdb"
	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/pkg/api"
)

func newTestStore(t *testing.T) *boltdb.Storage {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func newProcessor(t *testing.T, store *boltdb.Storage, backend *apiclient.BackendMock, hooks Hooks) *Processor {
	t.Helper()
	return New(Config{
		Backend:  backend,
		Entities: store,
		Queue:    store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Hooks:    hooks,
	})
}

// seedPending stores a record with a matching queue item, the way the
// cache records an offline mutation.
func seedPending(t *testing.T, store *boltdb.Storage, localID string, op models.Operation, payload string, baseVersion string) {
	t.Helper()
	ctx := context.Background()

	status := models.StatusPendingCreate
	switch op {
	case models.OpUpdate:
		status = models.StatusPendingUpdate
	case models.OpDelete:
		status = models.StatusPendingDelete
	}

	rec := &models.Record{
		LocalID:           localID,
		Kind:              models.KindOrders,
		Status:            status,
		Payload:           json.RawMessage(payload),
		LastServerVersion: baseVersion,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if op != models.OpCreate {
		rec.ServerID = 7
	}
	require.NoError(t, store.SaveRecord(ctx, rec))

	require.NoError(t, store.AppendItem(ctx, &models.QueueItem{
		Kind:        models.KindOrders,
		LocalID:     localID,
		Op:          op,
		Payload:     json.RawMessage(payload),
		BaseVersion: baseVersion,
		CreatedAt:   time.Now().UTC(),
	}))
}

func TestRun_EmptyQueue(t *testing.T) {
	backend := &apiclient.BackendMock{}
	store := newTestStore(t)
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, backend.CreateCalls())
	assert.Empty(t, backend.UpdateCalls())
	assert.Empty(t, backend.DeleteCalls())
}

func TestRun_DrainsInOrder(t *testing.T) {
	var order []string
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			order = append(order, string(payload))
			return &api.Entity{ID: int64(len(order)), Data: payload, UpdatedAt: time.Now().UTC()}, nil
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpCreate, `{"n":1}`, "")
	seedPending(t, store, "local-b", models.OpCreate, `{"n":2}`, "")

	var progress []int
	p := newProcessor(t, store, backend, Hooks{
		Progress: func(done, total int) { progress = append(progress, done) },
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, order)
	assert.Equal(t, []int{1, 2}, progress)

	// Records adopted the assigned server ids and versions.
	ctx := context.Background()
	recA, err := store.GetByLocalID(ctx, models.KindOrders, "local-a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, recA.Status)
	assert.Equal(t, int64(1), recA.ServerID)
	assert.NotEmpty(t, recA.LastServerVersion)

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRun_UpdateUsesAssignedServerID(t *testing.T) {
	// An update recorded after the create synced must carry the server
	// id the create was assigned.
	backend := &apiclient.BackendMock{
		UpdateFunc: func(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
			assert.Equal(t, int64(7), serverID)
			assert.Equal(t, "base-v1", baseVersion)
			return &api.Entity{ID: serverID, Data: payload, UpdatedAt: time.Now().UTC()}, nil
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpUpdate, `{"n":2}`, "base-v1")

	p := newProcessor(t, store, backend, Hooks{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Len(t, backend.UpdateCalls(), 1)
}

func TestRun_ConflictParksLineage(t *testing.T) {
	current := api.Entity{
		ID:        7,
		Data:      json.RawMessage(`{"notes":"server edit","status":"confirmed"}`),
		UpdatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	backend := &apiclient.BackendMock{
		UpdateFunc: func(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
			return nil, &apiclient.ConflictError{Current: &current}
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpUpdate, `{"notes":"local edit","status":"confirmed"}`, "base-v1")

	var conflicts []*models.Conflict
	p := newProcessor(t, store, backend, Hooks{
		Conflict: func(c *models.Conflict) { conflicts = append(conflicts, c) },
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)
	assert.Zero(t, result.Processed)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "local-a", conflicts[0].LocalID)
	assert.Equal(t, current.Version(), conflicts[0].ServerVersion)
	assert.Equal(t, []string{"notes"}, conflicts[0].ChangedFields)

	ctx := context.Background()
	rec, err := store.GetByLocalID(ctx, models.KindOrders, "local-a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, rec.Status)
	// The losing mutation was not applied anywhere.
	assert.JSONEq(t, `{"notes":"local edit","status":"confirmed"}`, string(rec.Payload))

	// The item is held out of later drains until resolution.
	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Permanent)

	// A second drain fires no second conflict event.
	result, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Len(t, conflicts, 1)
	assert.Len(t, backend.UpdateCalls(), 1)
}

func TestRun_TransientRetriesUntilCeiling(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return nil, &apiclient.StatusError{StatusCode: 503, Message: "maintenance"}
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpCreate, `{"n":1}`, "")
	p := newProcessor(t, store, backend, Hooks{})

	ctx := context.Background()
	for i := 1; i < DefaultMaxAttempts; i++ {
		result, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed, "run %d", i)

		items, err := store.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, i, items[0].Attempts)
		assert.False(t, items[0].Permanent, "run %d", i)
	}

	// The final attempt parks the item for good.
	result, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Permanent)
	assert.Equal(t, DefaultMaxAttempts, items[0].Attempts)
	assert.Contains(t, items[0].LastError, "maintenance")

	// Parked items no longer reach the backend.
	result, err = p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Len(t, backend.CreateCalls(), DefaultMaxAttempts)
}

func TestRun_PermanentErrorParksImmediately(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return nil, &apiclient.StatusError{StatusCode: 400, Code: api.CodeValidation, Message: "delivery_at is required"}
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpCreate, `{}`, "")
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Permanent)
	assert.Equal(t, 1, items[0].Attempts)
}

func TestRun_BlockedLineageCountsSkipped(t *testing.T) {
	current := api.Entity{
		ID:        7,
		Data:      json.RawMessage(`{"notes":"server edit"}`),
		UpdatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	backend := &apiclient.BackendMock{
		UpdateFunc: func(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
			return nil, &apiclient.ConflictError{Current: &current}
		},
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return &api.Entity{ID: 8, Data: payload, UpdatedAt: time.Now().UTC()}, nil
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpUpdate, `{"notes":"first"}`, "base-v1")
	require.NoError(t, store.AppendItem(context.Background(), &models.QueueItem{
		Kind:        models.KindOrders,
		LocalID:     "local-a",
		Op:          models.OpUpdate,
		Payload:     json.RawMessage(`{"notes":"second"}`),
		BaseVersion: "base-v1",
		CreatedAt:   time.Now().UTC(),
	}))
	seedPending(t, store, "local-b", models.OpCreate, `{"n":1}`, "")
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// The conflict blocks the rest of its lineage; the unrelated record
	// still drains. Every eligible item lands in exactly one bucket.
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Len(t, backend.UpdateCalls(), 1)
}

func TestRun_UnavailableStopsDrain(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return nil, &apiclient.UnavailableError{}
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpCreate, `{"n":1}`, "")
	seedPending(t, store, "local-b", models.OpCreate, `{"n":2}`, "")
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	// The untouched remainder is accounted for, not lost.
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, result.Total, result.Processed+result.Failed+result.Conflicts+result.Skipped)

	// Only the first item was attempted; the rest wait for the network.
	assert.Len(t, backend.CreateCalls(), 1)

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Zero(t, items[1].Attempts)
}

func TestRun_DeleteTreats404AsGone(t *testing.T) {
	backend := &apiclient.BackendMock{
		DeleteFunc: func(ctx context.Context, kind models.Kind, serverID int64) error {
			return &apiclient.StatusError{StatusCode: 404, Code: api.CodeNotFound}
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpDelete, `{}`, "base-v1")
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	_, err = store.GetByLocalID(context.Background(), models.KindOrders, "local-a")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRun_OrphanedItemIsDropped(t *testing.T) {
	backend := &apiclient.BackendMock{}
	store := newTestStore(t)
	require.NoError(t, store.AppendItem(context.Background(), &models.QueueItem{
		Kind:      models.KindOrders,
		LocalID:   "vanished",
		Op:        models.OpCreate,
		Payload:   json.RawMessage(`{}`),
		CreatedAt: time.Now().UTC(),
	}))
	p := newProcessor(t, store, backend, Hooks{})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, backend.CreateCalls())
}

func TestRun_SecondConcurrentRunIsNoOp(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			close(entered)
			<-release
			return &api.Entity{ID: 1, Data: payload, UpdatedAt: time.Now().UTC()}, nil
		},
	}
	store := newTestStore(t)
	seedPending(t, store, "local-a", models.OpCreate, `{"n":1}`, "")
	p := newProcessor(t, store, backend, Hooks{})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()

	<-entered
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
}
