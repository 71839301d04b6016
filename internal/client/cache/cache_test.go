package cache

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

type fixture struct {
	cache   *Cache
	store   *boltdb.Storage
	backend *apiclient.BackendMock
	online  bool
}

func newFixture(t *testing.T, backend *apiclient.BackendMock) *fixture {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	f := &fixture{store: store, backend: backend, online: true}
	f.cache = New(Config{
		Kind:     models.KindOrders,
		Backend:  backend,
		Entities: store,
		Queue:    store,
		Metadata: store,
		Online:   func() bool { return f.online },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func serverEntity(id int64, data string) api.Entity {
	return api.Entity{
		ID:        id,
		Data:      json.RawMessage(data),
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFetchAndCache_FullRefresh(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{
				serverEntity(1, `{"client_name":"Acme Air"}`),
				serverEntity(2, `{"client_name":"Blue Jet"}`),
			}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.StatusSynced, recs[0].Status)
	assert.NotEmpty(t, recs[0].LocalID)
	assert.NotEmpty(t, recs[0].LastServerVersion)

	// An unfiltered fetch stamps the refresh time.
	stale, err := f.cache.Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)

	// Local ids stay stable across refreshes.
	again, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, recs[0].LocalID, again[0].LocalID)
}

func TestFetchAndCache_FilteredDoesNotStamp(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"status":"confirmed"}`)}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	_, err := f.cache.FetchAndCache(ctx, api.ListQuery{Status: "confirmed"})
	require.NoError(t, err)

	stale, err := f.cache.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale, "a filtered fetch must not count as a full refresh")
}

func TestFetchAndCache_FullRefreshKeepsPending(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"server copy"}`)}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	_, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	// Diverge locally while offline.
	f.online = false
	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, err = f.cache.Update(ctx, recs[0].LocalID, json.RawMessage(`{"notes":"local copy"}`))
	require.NoError(t, err)

	// A later full refresh must not clobber the pending change.
	f.online = true
	after, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, models.StatusPendingUpdate, after[0].Status)
	assert.JSONEq(t, `{"notes":"local copy"}`, string(after[0].Payload))
}

func TestFetchAndCache_FallsBackOnTransient(t *testing.T) {
	calls := 0
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			calls++
			if calls == 1 {
				return []api.Entity{serverEntity(1, `{"client_name":"Acme Air"}`)}, nil
			}
			return nil, &apiclient.UnavailableError{}
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	_, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	// Second fetch fails on the wire but still serves the cache.
	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{"client_name":"Acme Air"}`, string(recs[0].Payload))
}

func TestFetchAndCache_OfflineFilters(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{
				serverEntity(1, `{"client_name":"Acme Air","status":"confirmed","delivery_at":"2026-03-05T09:00:00Z"}`),
				serverEntity(2, `{"client_name":"Blue Jet","status":"draft","delivery_at":"2026-03-09T09:00:00Z"}`),
				serverEntity(3, `{"client_name":"Acme Air","status":"confirmed","delivery_at":"2026-04-01T09:00:00Z"}`),
			}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	_, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	f.online = false

	tests := []struct {
		name  string
		query api.ListQuery
		want  int
	}{
		{name: "no filter", query: api.ListQuery{}, want: 3},
		{name: "status", query: api.ListQuery{Status: "draft"}, want: 1},
		{name: "search is case insensitive", query: api.ListQuery{Search: "acme"}, want: 2},
		{name: "search misses", query: api.ListQuery{Search: "zulu"}, want: 0},
		{
			name: "date range",
			query: api.ListQuery{
				From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			},
			want: 2,
		},
		{name: "limit", query: api.ListQuery{Limit: 2}, want: 2},
		{name: "offset past end", query: api.ListQuery{Offset: 5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := f.cache.FetchAndCache(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, recs, tt.want)
		})
	}
}

func TestCreate_Online(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			e := serverEntity(42, string(payload))
			return &e, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	rec, err := f.cache.Create(ctx, json.RawMessage(`{"client_name":"Acme Air"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSynced, rec.Status)
	assert.Equal(t, int64(42), rec.ServerID)
	assert.NotEmpty(t, rec.LastServerVersion)

	// Nothing queued; the write went straight through.
	pending, err := f.store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
}

func TestCreate_OfflineQueues(t *testing.T) {
	f := newFixture(t, &apiclient.BackendMock{})
	f.online = false
	ctx := context.Background()

	rec, err := f.cache.Create(ctx, json.RawMessage(`{"client_name":"Acme Air"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingCreate, rec.Status)
	assert.NotEmpty(t, rec.LocalID)
	assert.Zero(t, rec.ServerID)

	items, err := f.store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.OpCreate, items[0].Op)
	assert.Equal(t, rec.LocalID, items[0].LocalID)
	assert.JSONEq(t, `{"client_name":"Acme Air"}`, string(items[0].Payload))
}

func TestCreate_UnavailableDefers(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return nil, &apiclient.UnavailableError{}
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	rec, err := f.cache.Create(ctx, json.RawMessage(`{"client_name":"Acme Air"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingCreate, rec.Status)

	pending, err := f.store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestUpdate_OfflineCoalesces(t *testing.T) {
	f := newFixture(t, &apiclient.BackendMock{})
	f.online = false
	ctx := context.Background()

	rec, err := f.cache.Create(ctx, json.RawMessage(`{"notes":"v1"}`))
	require.NoError(t, err)

	// Two edits on top of a pending create stay one queue item.
	_, err = f.cache.Update(ctx, rec.LocalID, json.RawMessage(`{"notes":"v2"}`))
	require.NoError(t, err)
	updated, err := f.cache.Update(ctx, rec.LocalID, json.RawMessage(`{"notes":"v3"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingCreate, updated.Status)

	items, err := f.store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.OpCreate, items[0].Op)
	assert.JSONEq(t, `{"notes":"v3"}`, string(items[0].Payload))
}

func TestUpdate_RejectsPendingDelete(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"v1"}`)}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	f.online = false
	require.NoError(t, f.cache.Delete(ctx, recs[0].LocalID))

	_, err = f.cache.Update(ctx, recs[0].LocalID, json.RawMessage(`{"notes":"v2"}`))
	assert.ErrorIs(t, err, ErrDeletePending)
}

// seedConflicted stores a record whose queued update was parked on a
// version conflict, the way the queue processor leaves it.
func seedConflicted(t *testing.T, f *fixture, localID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.store.SaveRecord(ctx, &models.Record{
		LocalID:           localID,
		Kind:              models.KindOrders,
		ServerID:          7,
		Status:            models.StatusConflict,
		Payload:           json.RawMessage(`{"notes":"local edit"}`),
		LastServerVersion: "v-stale",
		CreatedAt:         now,
		UpdatedAt:         now,
	}))
	require.NoError(t, f.store.AppendItem(ctx, &models.QueueItem{
		Kind:        models.KindOrders,
		LocalID:     localID,
		Op:          models.OpUpdate,
		Payload:     json.RawMessage(`{"notes":"local edit"}`),
		BaseVersion: "v-stale",
		Permanent:   true,
		CreatedAt:   now,
	}))
}

func TestUpdate_RejectsConflicted(t *testing.T) {
	f := newFixture(t, &apiclient.BackendMock{})
	f.online = false
	ctx := context.Background()
	seedConflicted(t, f, "local-c")

	_, err := f.cache.Update(ctx, "local-c", json.RawMessage(`{"notes":"second edit"}`))
	assert.ErrorIs(t, err, ErrConflictPending)

	// The parked lineage stays a single item with its original payload.
	items, err := f.store.ListItemsByLocalID(ctx, models.KindOrders, "local-c")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Permanent)
	assert.JSONEq(t, `{"notes":"local edit"}`, string(items[0].Payload))
}

func TestDelete_ConflictedPurgesParkedLineage(t *testing.T) {
	f := newFixture(t, &apiclient.BackendMock{})
	f.online = false
	ctx := context.Background()
	seedConflicted(t, f, "local-c")

	require.NoError(t, f.cache.Delete(ctx, "local-c"))

	// The parked update is gone; only the delete remains queued.
	items, err := f.store.ListItemsByLocalID(ctx, models.KindOrders, "local-c")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.OpDelete, items[0].Op)
	assert.False(t, items[0].Permanent)
}

func TestUpdate_OnlineConflictMarksRecord(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"v1"}`)}, nil
		},
		UpdateFunc: func(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
			current := serverEntity(1, `{"notes":"server edit"}`)
			return nil, &apiclient.ConflictError{Current: &current}
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	_, err = f.cache.Update(ctx, recs[0].LocalID, json.RawMessage(`{"notes":"local edit"}`))
	require.Error(t, err)
	assert.True(t, apiclient.IsConflict(err))

	rec, err := f.cache.GetByLocalID(ctx, recs[0].LocalID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, rec.Status)
	// The losing payload stays local until the conflict is resolved.
	assert.JSONEq(t, `{"notes":"v1"}`, string(rec.Payload))
}

func TestUpdate_OnlineSendsBaseVersion(t *testing.T) {
	var gotVersion string
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"v1"}`)}, nil
		},
		UpdateFunc: func(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
			gotVersion = baseVersion
			e := serverEntity(1, string(payload))
			e.UpdatedAt = e.UpdatedAt.Add(time.Minute)
			return &e, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	updated, err := f.cache.Update(ctx, recs[0].LocalID, json.RawMessage(`{"notes":"v2"}`))
	require.NoError(t, err)
	assert.Equal(t, recs[0].LastServerVersion, gotVersion)
	assert.Equal(t, models.StatusSynced, updated.Status)
	assert.NotEqual(t, recs[0].LastServerVersion, updated.LastServerVersion)
	assert.Equal(t, recs[0].LocalID, updated.LocalID)
}

func TestDelete_PendingCreatePurgesLineage(t *testing.T) {
	backend := &apiclient.BackendMock{
		DeleteFunc: func(ctx context.Context, kind models.Kind, serverID int64) error {
			t.Fatal("a never-synced record must not reach the backend")
			return nil
		},
	}
	f := newFixture(t, backend)
	f.online = false
	ctx := context.Background()

	rec, err := f.cache.Create(ctx, json.RawMessage(`{"notes":"v1"}`))
	require.NoError(t, err)

	f.online = true
	require.NoError(t, f.cache.Delete(ctx, rec.LocalID))

	_, err = f.cache.GetByLocalID(ctx, rec.LocalID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	pending, err := f.store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
	assert.Empty(t, backend.DeleteCalls())
}

func TestDelete_OfflineTombstonesAndDropsUpdates(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"v1"}`)}, nil
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	f.online = false
	_, err = f.cache.Update(ctx, recs[0].LocalID, json.RawMessage(`{"notes":"v2"}`))
	require.NoError(t, err)
	require.NoError(t, f.cache.Delete(ctx, recs[0].LocalID))

	rec, err := f.cache.GetByLocalID(ctx, recs[0].LocalID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingDelete, rec.Status)

	// The superseded update is gone; only the delete remains queued.
	items, err := f.store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.OpDelete, items[0].Op)
	assert.Equal(t, recs[0].LastServerVersion, items[0].BaseVersion)

	// Tombstoned records do not show up in listings.
	listed, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Deleting again is a no-op.
	require.NoError(t, f.cache.Delete(ctx, recs[0].LocalID))
}

func TestDelete_Online404CountsAsGone(t *testing.T) {
	backend := &apiclient.BackendMock{
		ListFunc: func(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
			return []api.Entity{serverEntity(1, `{"notes":"v1"}`)}, nil
		},
		DeleteFunc: func(ctx context.Context, kind models.Kind, serverID int64) error {
			return &apiclient.StatusError{StatusCode: 404, Code: api.CodeNotFound}
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	recs, err := f.cache.FetchAndCache(ctx, api.ListQuery{})
	require.NoError(t, err)

	require.NoError(t, f.cache.Delete(ctx, recs[0].LocalID))
	_, err = f.cache.GetByLocalID(ctx, recs[0].LocalID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestOnlineOnlyMode_RejectsDeferredWrites(t *testing.T) {
	backend := &apiclient.BackendMock{
		CreateFunc: func(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
			return nil, &apiclient.UnavailableError{}
		},
	}
	f := newFixture(t, backend)
	ctx := context.Background()

	// No queue store means offline writes cannot be deferred.
	f.cache = New(Config{
		Kind:     models.KindOrders,
		Backend:  backend,
		Entities: f.store,
		Metadata: f.store,
		Online:   func() bool { return true },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := f.cache.Create(ctx, json.RawMessage(`{"notes":"v1"}`))
	assert.ErrorIs(t, err, ErrOfflineUnsupported)
}

func TestSet_For(t *testing.T) {
	set := NewSet(Config{
		Online: func() bool { return false },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	for _, kind := range models.Kinds() {
		c, err := set.For(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, c.Kind())
	}

	_, err := set.For(models.Kind("bogus"))
	assert.Error(t, err)
}
