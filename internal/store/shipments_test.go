package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	shipment := &Shipment{
		OrderRef:       "order-1",
		Carrier:        "aramex",
		ServiceCode:    "CDS",
		TrackingNumber: "40001112223",
		Status:         "created",
		CostAmount:     14.75,
		CostCurrency:   "AED",
	}
	require.NoError(t, repo.Create(ctx, shipment))

	found, err := repo.FindByTrackingNumber(ctx, "40001112223")
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, found.ID)
	assert.Equal(t, "order-1", found.OrderRef)
	assert.Equal(t, "created", found.Status)
}

func TestShipmentRepository_DuplicateTrackingNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	first := &Shipment{OrderRef: "order-1", Carrier: "aramex", TrackingNumber: "40001112223", Status: "created"}
	require.NoError(t, repo.Create(ctx, first))

	dup := &Shipment{OrderRef: "order-2", Carrier: "aramex", TrackingNumber: "40001112223", Status: "created"}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateTrackingNumber)
}

func TestShipmentRepository_FindByTrackingNumber_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)

	_, err := repo.FindByTrackingNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShipmentRepository_AppendEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	shipment := &Shipment{OrderRef: "order-1", Carrier: "aramex", TrackingNumber: "40001112223", Status: "created"}
	require.NoError(t, repo.Create(ctx, shipment))

	now := time.Now()
	events := []ShipmentEvent{
		{OccurredAt: now.Add(-2 * time.Hour), Status: "created", Description: "Record created"},
		{OccurredAt: now.Add(-1 * time.Hour), Status: "picked_up", Description: "Collected"},
	}
	require.NoError(t, repo.AppendEvents(ctx, shipment.ID, "picked_up", events, nil))

	found, err := repo.FindByTrackingNumber(ctx, "40001112223")
	require.NoError(t, err)
	assert.Equal(t, "picked_up", found.Status)
	require.Len(t, found.Events, 2)
	// Events come back oldest first
	assert.Equal(t, "created", found.Events[0].Status)
	assert.Equal(t, "picked_up", found.Events[1].Status)
}

func TestShipmentRepository_AppendEvents_SetsActualDelivery(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	shipment := &Shipment{OrderRef: "order-1", Carrier: "aramex", TrackingNumber: "40001112223", Status: "in_transit"}
	require.NoError(t, repo.Create(ctx, shipment))

	delivered := time.Now().Truncate(time.Second)
	events := []ShipmentEvent{{OccurredAt: delivered, Status: "delivered", Description: "Delivered"}}
	require.NoError(t, repo.AppendEvents(ctx, shipment.ID, "delivered", events, &delivered))

	found, err := repo.FindByTrackingNumber(ctx, "40001112223")
	require.NoError(t, err)
	assert.Equal(t, "delivered", found.Status)
	require.NotNil(t, found.ActualDelivery)
}

func TestShipmentRepository_MarkCancelled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	shipment := &Shipment{OrderRef: "order-1", Carrier: "localcourier", TrackingNumber: "LCL-1724900000", Status: "created"}
	require.NoError(t, repo.Create(ctx, shipment))

	require.NoError(t, repo.MarkCancelled(ctx, "LCL-1724900000"))

	found, err := repo.FindByTrackingNumber(ctx, "LCL-1724900000")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", found.Status)

	// The row survives cancellation
	all, err := repo.FindByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, repo.MarkCancelled(ctx, "missing"), ErrNotFound)
}
