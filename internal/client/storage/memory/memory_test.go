package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

func testRecord(localID string, serverID int64, status models.SyncStatus) *models.Record {
	return &models.Record{
		LocalID:  localID,
		ServerID: serverID,
		Kind:     models.KindOrders,
		Status:   status,
		Payload:  json.RawMessage(`{"notes":"test"}`),
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	ctx := context.Background()
	store := New()

	rec := testRecord("local-1", 42, models.StatusSynced)
	require.NoError(t, store.SaveRecord(ctx, rec))

	got, err := store.GetByLocalID(ctx, models.KindOrders, "local-1")
	require.NoError(t, err)
	assert.Equal(t, rec.LocalID, got.LocalID)
	assert.Equal(t, rec.ServerID, got.ServerID)
	assert.JSONEq(t, string(rec.Payload), string(got.Payload))

	// The store hands out copies, not its own pointers.
	got.ServerID = 99
	again, err := store.GetByLocalID(ctx, models.KindOrders, "local-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), again.ServerID)
}

func TestGetByServerID(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveRecord(ctx, testRecord("local-1", 7, models.StatusSynced)))

	got, err := store.GetByServerID(ctx, models.KindOrders, 7)
	require.NoError(t, err)
	assert.Equal(t, "local-1", got.LocalID)

	_, err = store.GetByServerID(ctx, models.KindOrders, 8)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestGetRecord_NotFound(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.GetByLocalID(ctx, models.KindOrders, "missing")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestListAndDeleteRecords(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveRecord(ctx, testRecord("a", 1, models.StatusSynced)))
	require.NoError(t, store.SaveRecord(ctx, testRecord("b", 2, models.StatusSynced)))
	// Records of another kind stay out of the listing.
	other := testRecord("c", 3, models.StatusSynced)
	other.Kind = models.KindClients
	require.NoError(t, store.SaveRecord(ctx, other))

	recs, err := store.ListRecords(ctx, models.KindOrders)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, store.DeleteRecord(ctx, models.KindOrders, "a"))
	recs, err = store.ListRecords(ctx, models.KindOrders)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	err = store.DeleteRecord(ctx, models.KindOrders, "a")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestReplaceKind_KeepsPending(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveRecord(ctx, testRecord("synced", 1, models.StatusSynced)))
	require.NoError(t, store.SaveRecord(ctx, testRecord("dirty", 0, models.StatusPendingCreate)))

	require.NoError(t, store.ReplaceKind(ctx, models.KindOrders, []*models.Record{
		testRecord("fresh", 2, models.StatusSynced),
	}))

	recs, err := store.ListRecords(ctx, models.KindOrders)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	_, err = store.GetByLocalID(ctx, models.KindOrders, "synced")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	_, err = store.GetByLocalID(ctx, models.KindOrders, "dirty")
	assert.NoError(t, err)
	_, err = store.GetByLocalID(ctx, models.KindOrders, "fresh")
	assert.NoError(t, err)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	store := New()

	at, err := store.GetLastRefresh(ctx, models.KindOrders)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveLastRefresh(ctx, models.KindOrders, now))
	at, err = store.GetLastRefresh(ctx, models.KindOrders)
	require.NoError(t, err)
	assert.Equal(t, now, at)

	require.NoError(t, store.SaveLastSyncAt(ctx, now))
	at, err = store.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, at)
}

func TestAuthLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	auth := &storage.AuthData{
		Username:    "dispatcher",
		UserID:      "user-1",
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, store.SaveAuth(ctx, auth))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.Username, got.Username)
	assert.Equal(t, auth.AccessToken, got.AccessToken)

	// Mutating the returned copy must not affect the stored session.
	got.AccessToken = "tampered"
	again, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token", again.AccessToken)

	require.NoError(t, store.DeleteAuth(ctx))
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}
