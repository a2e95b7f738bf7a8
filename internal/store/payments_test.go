package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_StandardRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	payment := &Payment{
		OrderRef: "order-1",
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Amount:   250.00,
		Currency: "AED",
		Status:   "pending",
	}
	require.NoError(t, repo.CreateStandard(ctx, payment))

	found, err := repo.FindStandardByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)
	assert.Equal(t, "pending", found.Status)

	require.NoError(t, repo.UpdateStandard(ctx, payment.ID, map[string]interface{}{
		"status":       "completed",
		"order_status": "paid",
	}))

	found, err = repo.FindStandardByOrderRef(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", found.Status)
	assert.Equal(t, "paid", found.OrderStatus)
}

func TestPaymentRepository_EscrowPreloadsTransaction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	payment := &EscrowPayment{
		OrderRef: "order-2",
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Amount:   500.00,
		Currency: "AED",
		Status:   "pending",
		Transaction: EscrowTransaction{
			OrderRef: "order-2",
			Status:   "funds_held",
		},
	}
	require.NoError(t, repo.CreateEscrow(ctx, payment))

	found, err := repo.FindEscrowByOrderRef(ctx, "order-2")
	require.NoError(t, err)
	assert.Equal(t, "pending", found.Status)
	assert.Equal(t, "funds_held", found.Transaction.Status)

	// The inner transaction is reachable directly by order reference
	txn, err := repo.FindEscrowTransactionByOrderRef(ctx, "order-2")
	require.NoError(t, err)
	assert.Equal(t, found.Transaction.ID, txn.ID)
}

func TestPaymentRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	_, err := repo.FindStandardByOrderRef(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindEscrowByOrderRef(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindEscrowTransactionByOrderRef(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentRepository_ReceiptReplayIsSilent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	receipt := &ReconciliationReceipt{Key: "escrow-confirm-order-2", OrderRef: "order-2", Status: "paid"}
	require.NoError(t, repo.SaveReceipt(ctx, receipt))

	// Saving the same key again is a no-op, not an error
	replay := &ReconciliationReceipt{Key: "escrow-confirm-order-2", OrderRef: "order-2", Status: "paid"}
	require.NoError(t, repo.SaveReceipt(ctx, replay))

	found, err := repo.FindReceipt(ctx, "escrow-confirm-order-2")
	require.NoError(t, err)
	assert.Equal(t, "paid", found.Status)
}

func TestOrderRepository_StatusTimeline(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &Order{
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		PaymentMethod: "standard",
		Status:        "paid",
	}
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, "shipped", "Shipment created", "system"))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipped", found.Status)
	require.Len(t, found.Timeline, 1)
	assert.Equal(t, "shipped", found.Timeline[0].Status)
	assert.Equal(t, "system", found.Timeline[0].ActorRole)
}

func TestOrderRepository_UpdateShipping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &Order{BuyerID: "buyer-1", SellerID: "seller-1", Status: "paid"}
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateShipping(ctx, order.ID, map[string]interface{}{
		"shipping_carrier":         "aramex",
		"shipping_service_code":    "CDS",
		"shipping_tracking_number": "40001112223",
		"shipping_cost_amount":     14.75,
		"shipping_cost_currency":   "AED",
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "aramex", found.ShippingCarrier)
	assert.Equal(t, "40001112223", found.ShippingTrackingNumber)
}
