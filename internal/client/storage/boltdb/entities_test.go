package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avikom/catersync/internal/client/storage"
	"github.com/avikom/catersync/internal/models"
)

func TestSaveRecord_GetByLocalID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rec := newTestRecord(models.KindOrders, "L1", 0, models.StatusPendingCreate)
	require.NoError(t, store.SaveRecord(ctx, rec))

	got, err := store.GetByLocalID(ctx, models.KindOrders, "L1")
	require.NoError(t, err)
	assert.Equal(t, rec.LocalID, got.LocalID)
	assert.Equal(t, rec.Status, got.Status)
	assert.JSONEq(t, string(rec.Payload), string(got.Payload))
}

func TestGetByLocalID_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetByLocalID(context.Background(), models.KindClients, "missing")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestGetByLocalID_KindsAreIsolated(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rec := newTestRecord(models.KindOrders, "L1", 0, models.StatusSynced)
	require.NoError(t, store.SaveRecord(ctx, rec))

	_, err := store.GetByLocalID(ctx, models.KindClients, "L1")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestGetByServerID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rec := newTestRecord(models.KindCaterers, "L2", 77, models.StatusSynced)
	require.NoError(t, store.SaveRecord(ctx, rec))

	got, err := store.GetByServerID(ctx, models.KindCaterers, 77)
	require.NoError(t, err)
	assert.Equal(t, "L2", got.LocalID)

	_, err = store.GetByServerID(ctx, models.KindCaterers, 78)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestGetByServerID_IndexUpdatedOnAssignment(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Record starts without a server id (offline create).
	rec := newTestRecord(models.KindOrders, "L3", 0, models.StatusPendingCreate)
	require.NoError(t, store.SaveRecord(ctx, rec))

	_, err := store.GetByServerID(ctx, models.KindOrders, 5)
	require.ErrorIs(t, err, storage.ErrRecordNotFound)

	// Sync assigns the server id.
	rec.ServerID = 5
	rec.Status = models.StatusSynced
	require.NoError(t, store.SaveRecord(ctx, rec))

	got, err := store.GetByServerID(ctx, models.KindOrders, 5)
	require.NoError(t, err)
	assert.Equal(t, "L3", got.LocalID)
}

func TestListRecords(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindAirports, "A1", 1, models.StatusSynced)))
	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindAirports, "A2", 2, models.StatusSynced)))
	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindFBOs, "F1", 3, models.StatusSynced)))

	recs, err := store.ListRecords(ctx, models.KindAirports)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = store.ListRecords(ctx, models.KindMenuItems)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDeleteRecord(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rec := newTestRecord(models.KindClients, "C1", 9, models.StatusSynced)
	require.NoError(t, store.SaveRecord(ctx, rec))

	require.NoError(t, store.DeleteRecord(ctx, models.KindClients, "C1"))

	_, err := store.GetByLocalID(ctx, models.KindClients, "C1")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	// Index entry must be gone as well.
	_, err = store.GetByServerID(ctx, models.KindClients, 9)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	err = store.DeleteRecord(ctx, models.KindClients, "C1")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestReplaceKind_PreservesPendingRecords(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindOrders, "synced-1", 1, models.StatusSynced)))
	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindOrders, "pending-1", 0, models.StatusPendingCreate)))
	require.NoError(t, store.SaveRecord(ctx, newTestRecord(models.KindOrders, "conflict-1", 2, models.StatusConflict)))

	fresh := []*models.Record{
		newTestRecord(models.KindOrders, "server-1", 10, models.StatusSynced),
		newTestRecord(models.KindOrders, "server-2", 11, models.StatusSynced),
	}
	require.NoError(t, store.ReplaceKind(ctx, models.KindOrders, fresh))

	recs, err := store.ListRecords(ctx, models.KindOrders)
	require.NoError(t, err)

	ids := make(map[string]bool, len(recs))
	for _, rec := range recs {
		ids[rec.LocalID] = true
	}

	// Fresh server records plus locally pending work; the stale synced
	// record is gone.
	assert.Equal(t, map[string]bool{
		"server-1":   true,
		"server-2":   true,
		"pending-1":  true,
		"conflict-1": true,
	}, ids)

	got, err := store.GetByServerID(ctx, models.KindOrders, 10)
	require.NoError(t, err)
	assert.Equal(t, "server-1", got.LocalID)
}
