package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), "kind %q should be valid", k)
	}
	assert.False(t, Kind("invoices").Valid())
	assert.False(t, Kind("").Valid())
}

func TestSyncStatus_Pending(t *testing.T) {
	tests := []struct {
		status SyncStatus
		want   bool
	}{
		{StatusSynced, false},
		{StatusPendingCreate, true},
		{StatusPendingUpdate, true},
		{StatusPendingDelete, true},
		{StatusConflict, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Pending(), "status %q", tt.status)
	}
}

func TestRecord_Clone(t *testing.T) {
	rec := &Record{
		LocalID:           "L1",
		ServerID:          42,
		Kind:              KindOrders,
		Status:            StatusSynced,
		Payload:           json.RawMessage(`{"status":"draft"}`),
		LastServerVersion: "2026-02-11T10:00:00Z",
	}

	clone := rec.Clone()
	require.Equal(t, rec, clone)

	// Mutating the clone's payload must not leak into the original.
	clone.Payload[2] = 'x'
	assert.NotEqual(t, rec.Payload, clone.Payload)
}

func TestOrder_Totals(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Name: "Fruit platter", Quantity: 2, UnitPrice: 45},
			{Name: "Crew meal", Quantity: 3, UnitPrice: 28.50},
		},
		DeliveryFee: 25,
		GratuityPct: 20,
	}

	assert.InDelta(t, 175.50, order.Subtotal(), 0.001)
	assert.InDelta(t, 175.50+25+35.10, order.Total(), 0.001)
}

func TestDiffFields(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		server string
		want   []string
	}{
		{
			name:   "identical payloads",
			local:  `{"name":"Acme","phone":"555"}`,
			server: `{"phone":"555","name":"Acme"}`,
			want:   nil,
		},
		{
			name:   "changed value",
			local:  `{"name":"Acme","phone":"555"}`,
			server: `{"name":"Acme","phone":"556"}`,
			want:   []string{"phone"},
		},
		{
			name:   "field only on one side",
			local:  `{"name":"Acme","notes":"vip"}`,
			server: `{"name":"Acme"}`,
			want:   []string{"notes"},
		},
		{
			name:   "nested change",
			local:  `{"items":[{"qty":1}]}`,
			server: `{"items":[{"qty":2}]}`,
			want:   []string{"items"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffFields(json.RawMessage(tt.local), json.RawMessage(tt.server))
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}
