package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/soukly/mirsal/internal/notify"
	"github.com/soukly/mirsal/internal/store"
	"github.com/soukly/mirsal/internal/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// recordShape identifies which payment record shape backs an order.
type recordShape string

const (
	shapeEscrowTransaction recordShape = "escrow_transaction"
	shapeEscrowPayment     recordShape = "escrow_payment"
	shapeStandardPayment   recordShape = "standard_payment"
	shapeOrder             recordShape = "order"
)

// backing is the resolved view of every record that represents one logical
// order. Primary is the first shape found in the fixed search order; the
// others are secondary write targets.
type backing struct {
	primary recordShape

	escrowTxn *store.EscrowTransaction
	escrow    *store.EscrowPayment
	payment   *store.Payment
	order     *store.Order
}

// Reconciler derives the canonical fulfillment status of an order from its
// backing records, validates transitions, and is the only writer of status
// across all record shapes.
type Reconciler struct {
	orders   *store.OrderRepository
	payments *store.PaymentRepository
	notifier notify.Notifier
	metrics  *telemetry.Metrics
	logger   *otelzap.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(orders *store.OrderRepository, payments *store.PaymentRepository, notifier notify.Notifier, metrics *telemetry.Metrics, logger *otelzap.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		payments: payments,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// CurrentStatus computes the canonical status of an order from whichever
// backing record answers first.
func (r *Reconciler) CurrentStatus(ctx context.Context, orderRef string) (Status, error) {
	b, err := r.resolve(ctx, orderRef)
	if err != nil {
		return "", err
	}
	return r.derive(b), nil
}

// UpdateStatus validates and applies a status transition, writing the result
// to every record shape that represents the order. idempotencyKey, when
// non-empty, makes the update replay-safe: a second call with the same key
// returns the stored outcome instead of re-running the transition.
func (r *Reconciler) UpdateStatus(ctx context.Context, orderRef string, requested Status, note, actorRole, idempotencyKey string) (Status, error) {
	if !Valid(requested) {
		return "", fmt.Errorf("%w: %s", ErrUnknownStatus, requested)
	}

	if idempotencyKey != "" {
		receipt, err := r.payments.FindReceipt(ctx, idempotencyKey)
		if err == nil {
			r.logger.Ctx(ctx).Info("Replayed status update, returning stored outcome",
				zap.String("order_ref", orderRef),
				zap.String("idempotency_key", idempotencyKey),
			)
			return Status(receipt.Status), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
	}

	b, err := r.resolve(ctx, orderRef)
	if err != nil {
		return "", err
	}
	if err := r.ensureParties(ctx, orderRef, b); err != nil {
		return "", err
	}

	current := r.derive(b)

	if requested == current {
		// Asynchronous payment callbacks replay; a repeated funds
		// confirmation is answered idempotently rather than rejected. The
		// write still runs so every record shape converges on the derived
		// status, including an escrow wrapper lagging behind its inner
		// transaction.
		if requested == StatusPaid && (idempotencyKey != "" || isFundsConfirmedNote(note)) {
			r.logger.Ctx(ctx).Info("Idempotent funds confirmation accepted",
				zap.String("order_ref", orderRef),
			)
			if err := r.writePrimary(ctx, b, requested); err != nil {
				return "", fmt.Errorf("writing status to primary record: %w", err)
			}
			r.propagate(ctx, orderRef, b, requested, note, actorRole)
			return current, r.saveReceipt(ctx, idempotencyKey, orderRef, current)
		}
		return "", &InvalidTransitionError{From: current, To: requested}
	}

	if !CanTransition(current, requested) {
		return "", &InvalidTransitionError{From: current, To: requested}
	}

	// Two-phase write: the primary record first; failure here fails the
	// update. Every other shape is then synced best-effort.
	if err := r.writePrimary(ctx, b, requested); err != nil {
		return "", fmt.Errorf("writing status to primary record: %w", err)
	}
	r.propagate(ctx, orderRef, b, requested, note, actorRole)

	if err := r.saveReceipt(ctx, idempotencyKey, orderRef, requested); err != nil {
		return "", err
	}

	if r.metrics != nil {
		r.metrics.RecordTransition(string(current), string(requested))
	}
	r.logger.Ctx(ctx).Info("Order status reconciled",
		zap.String("order_ref", orderRef),
		zap.String("from", string(current)),
		zap.String("to", string(requested)),
		zap.String("shape", string(b.primary)),
	)

	r.sideEffects(ctx, orderRef, b, requested)
	return requested, nil
}

// resolve finds every record shape backing the order. Search order for the
// primary: escrow transaction direct, escrow payment wrapper, standard
// payment, denormalized order.
func (r *Reconciler) resolve(ctx context.Context, orderRef string) (*backing, error) {
	b := &backing{}

	txn, err := r.payments.FindEscrowTransactionByOrderRef(ctx, orderRef)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	b.escrowTxn = txn

	escrow, err := r.payments.FindEscrowByOrderRef(ctx, orderRef)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	b.escrow = escrow

	payment, err := r.payments.FindStandardByOrderRef(ctx, orderRef)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	b.payment = payment

	if id, parseErr := uuid.Parse(orderRef); parseErr == nil {
		order, err := r.orders.FindByID(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		b.order = order
	}

	switch {
	case b.escrowTxn != nil:
		b.primary = shapeEscrowTransaction
	case b.escrow != nil:
		b.primary = shapeEscrowPayment
	case b.payment != nil:
		b.primary = shapeStandardPayment
	case b.order != nil:
		b.primary = shapeOrder
	default:
		return nil, fmt.Errorf("order %s: %w", orderRef, ErrNoBackingRecord)
	}
	return b, nil
}

// derive computes the canonical status from the primary record: an explicit
// reconciled override wins, then the shape's own payment status, upgraded to
// shipped when a tracking number exists anywhere on the record.
func (r *Reconciler) derive(b *backing) Status {
	var override, paymentStatus, trackingNumber, notes string

	switch b.primary {
	case shapeEscrowTransaction:
		override = b.escrowTxn.OrderStatus
		paymentStatus = b.escrowTxn.Status
		// The inner ledger record has no shipping fields; the wrapper
		// carries them when present.
		if b.escrow != nil {
			trackingNumber = b.escrow.TrackingNumber
			notes = b.escrow.Notes
		}
	case shapeEscrowPayment:
		override = b.escrow.OrderStatus
		paymentStatus = b.escrow.Status
		trackingNumber = b.escrow.TrackingNumber
		notes = b.escrow.Notes
	case shapeStandardPayment:
		override = b.payment.OrderStatus
		paymentStatus = b.payment.Status
		trackingNumber = b.payment.TrackingNumber
		notes = b.payment.Notes
	case shapeOrder:
		if b.order.Status != "" {
			return Status(b.order.Status)
		}
		paymentStatus = b.order.PaymentStatus
		trackingNumber = b.order.ShippingTrackingNumber
	}

	if override != "" {
		return Status(override)
	}

	status := FromPaymentStatus(paymentStatus)

	if trackingNumber == "" && notes != "" {
		// Legacy records stored tracking only in free-text notes.
		if extracted := ExtractTracking(notes); extracted.Found {
			trackingNumber = extracted.TrackingNumber
		}
	}
	if trackingNumber != "" {
		switch status {
		case StatusPendingPayment, StatusPaid, StatusProcessing:
			status = StatusShipped
		}
	}
	return status
}

// writePrimary persists the canonical decision on the primary record, both
// as the explicit override and in the shape's own status vocabulary.
func (r *Reconciler) writePrimary(ctx context.Context, b *backing, status Status) error {
	switch b.primary {
	case shapeEscrowTransaction:
		return r.payments.UpdateEscrowTransaction(ctx, b.escrowTxn.ID, escrowTxnUpdates(status))
	case shapeEscrowPayment:
		return r.payments.UpdateEscrow(ctx, b.escrow.ID, escrowPaymentUpdates(status))
	case shapeStandardPayment:
		return r.payments.UpdateStandard(ctx, b.payment.ID, standardPaymentUpdates(status))
	case shapeOrder:
		return r.orders.UpdateStatus(ctx, b.order.ID, string(status), "", "system")
	}
	return nil
}

// propagate syncs every non-primary record shape. Failures are logged and
// counted but never roll back the primary write.
func (r *Reconciler) propagate(ctx context.Context, orderRef string, b *backing, status Status, note, actorRole string) {
	if b.escrowTxn != nil && b.primary != shapeEscrowTransaction {
		if err := r.payments.UpdateEscrowTransaction(ctx, b.escrowTxn.ID, escrowTxnUpdates(status)); err != nil {
			r.syncFailed(ctx, orderRef, shapeEscrowTransaction, err)
		}
	}
	if b.escrow != nil && b.primary != shapeEscrowPayment {
		if err := r.payments.UpdateEscrow(ctx, b.escrow.ID, escrowPaymentUpdates(status)); err != nil {
			r.syncFailed(ctx, orderRef, shapeEscrowPayment, err)
		}
	}
	// The escrow wrapper also needs its own vocabulary updated when the
	// inner transaction was the primary.
	if b.escrow != nil && b.primary == shapeEscrowTransaction {
		if err := r.payments.UpdateEscrow(ctx, b.escrow.ID, escrowPaymentUpdates(status)); err != nil {
			r.syncFailed(ctx, orderRef, shapeEscrowPayment, err)
		}
	}
	if b.payment != nil && b.primary != shapeStandardPayment {
		if err := r.payments.UpdateStandard(ctx, b.payment.ID, standardPaymentUpdates(status)); err != nil {
			r.syncFailed(ctx, orderRef, shapeStandardPayment, err)
		}
	}
	if b.order != nil && b.primary != shapeOrder {
		if actorRole == "" {
			actorRole = "system"
		}
		if err := r.orders.UpdateStatus(ctx, b.order.ID, string(status), note, actorRole); err != nil {
			r.syncFailed(ctx, orderRef, shapeOrder, err)
		}
	}
}

func (r *Reconciler) syncFailed(ctx context.Context, orderRef string, shape recordShape, err error) {
	if r.metrics != nil {
		r.metrics.RecordSyncFailure(string(shape))
	}
	r.logger.Ctx(ctx).Error("Secondary record sync failed, state is eventually consistent",
		zap.String("order_ref", orderRef),
		zap.String("shape", string(shape)),
		zap.Error(err),
	)
}

// ensureParties repairs a payment record missing its buyer or seller
// reference from the paired order record. Surfaced as DataIntegrityError
// only when the repair source is missing too.
func (r *Reconciler) ensureParties(ctx context.Context, orderRef string, b *backing) error {
	var buyerID, sellerID *string
	var repair func(buyer, seller string) error

	switch b.primary {
	case shapeEscrowPayment:
		buyerID, sellerID = &b.escrow.BuyerID, &b.escrow.SellerID
		repair = func(buyer, seller string) error {
			return r.payments.UpdateEscrow(ctx, b.escrow.ID, map[string]interface{}{
				"buyer_id": buyer, "seller_id": seller,
			})
		}
	case shapeStandardPayment:
		buyerID, sellerID = &b.payment.BuyerID, &b.payment.SellerID
		repair = func(buyer, seller string) error {
			return r.payments.UpdateStandard(ctx, b.payment.ID, map[string]interface{}{
				"buyer_id": buyer, "seller_id": seller,
			})
		}
	default:
		return nil
	}

	if *buyerID != "" && *sellerID != "" {
		return nil
	}

	missing := "buyer"
	if *buyerID != "" {
		missing = "seller"
	}

	if b.order == nil || b.order.BuyerID == "" || b.order.SellerID == "" {
		return &DataIntegrityError{OrderRef: orderRef, Missing: missing}
	}

	r.logger.Ctx(ctx).Warn("Repairing payment record party references from order",
		zap.String("order_ref", orderRef),
		zap.String("missing", missing),
	)
	if err := repair(b.order.BuyerID, b.order.SellerID); err != nil {
		return &DataIntegrityError{OrderRef: orderRef, Missing: missing}
	}
	*buyerID, *sellerID = b.order.BuyerID, b.order.SellerID
	return nil
}

func (r *Reconciler) saveReceipt(ctx context.Context, key, orderRef string, status Status) error {
	if key == "" {
		return nil
	}
	return r.payments.SaveReceipt(ctx, &store.ReconciliationReceipt{
		Key:      key,
		OrderRef: orderRef,
		Status:   string(status),
	})
}

// sideEffects dispatches the notifications attached to specific transitions.
func (r *Reconciler) sideEffects(ctx context.Context, orderRef string, b *backing, status Status) {
	buyer, seller := b.parties()
	switch status {
	case StatusShipped:
		r.notifier.Notify(ctx, notify.EventShipmentCreated, orderRef, seller, buyer)
	case StatusDelivered:
		r.notifier.Notify(ctx, notify.EventDeliveryConfirmed, orderRef, seller, buyer)
	}
}

// parties returns the buyer and seller from whichever record carries them.
func (b *backing) parties() (buyer, seller string) {
	switch {
	case b.order != nil:
		return b.order.BuyerID, b.order.SellerID
	case b.escrow != nil:
		return b.escrow.BuyerID, b.escrow.SellerID
	case b.payment != nil:
		return b.payment.BuyerID, b.payment.SellerID
	}
	return "", ""
}

func isFundsConfirmedNote(note string) bool {
	return strings.Contains(strings.ToLower(note), "funds confirmed")
}

// Write-back vocabularies per record shape. A canonical status with no
// entry updates only the override field.

func escrowTxnUpdates(status Status) map[string]interface{} {
	updates := map[string]interface{}{"order_status": string(status)}
	if native, ok := map[Status]string{
		StatusPaid:      "funds_held",
		StatusDelivered: "released",
		StatusRefunded:  "refunded",
		StatusCancelled: "cancelled",
	}[status]; ok {
		updates["status"] = native
	}
	return updates
}

func escrowPaymentUpdates(status Status) map[string]interface{} {
	updates := map[string]interface{}{"order_status": string(status)}
	if native, ok := map[Status]string{
		StatusPaid:      "confirmed",
		StatusShipped:   "shipped",
		StatusDelivered: "released",
		StatusRefunded:  "refunded",
		StatusCancelled: "cancelled",
	}[status]; ok {
		updates["status"] = native
	}
	return updates
}

func standardPaymentUpdates(status Status) map[string]interface{} {
	updates := map[string]interface{}{"order_status": string(status)}
	if native, ok := map[Status]string{
		StatusPaid:      "completed",
		StatusShipped:   "shipped",
		StatusDelivered: "delivered",
		StatusRefunded:  "refunded",
		StatusCancelled: "cancelled",
	}[status]; ok {
		updates["status"] = native
	}
	return updates
}
