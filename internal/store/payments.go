package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository persists the standard payment shape, the escrow payment
// shape with its inner transaction, and reconciliation receipts.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindStandardByOrderRef returns the standard payment record for an order.
func (r *PaymentRepository) FindStandardByOrderRef(ctx context.Context, orderRef string) (*Payment, error) {
	var payment Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_ref = ?", orderRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for order %s: %w", orderRef, ErrNotFound)
		}
		return nil, err
	}
	return &payment, nil
}

// FindEscrowByOrderRef returns the escrow payment record with its inner
// transaction preloaded.
func (r *PaymentRepository) FindEscrowByOrderRef(ctx context.Context, orderRef string) (*EscrowPayment, error) {
	var payment EscrowPayment
	if err := r.db.WithContext(ctx).
		Preload("Transaction").
		First(&payment, "order_ref = ?", orderRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("escrow payment for order %s: %w", orderRef, ErrNotFound)
		}
		return nil, err
	}
	return &payment, nil
}

// FindEscrowTransactionByOrderRef returns the inner escrow transaction
// directly, ahead of its wrapper.
func (r *PaymentRepository) FindEscrowTransactionByOrderRef(ctx context.Context, orderRef string) (*EscrowTransaction, error) {
	var txn EscrowTransaction
	if err := r.db.WithContext(ctx).First(&txn, "order_ref = ?", orderRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("escrow transaction for order %s: %w", orderRef, ErrNotFound)
		}
		return nil, err
	}
	return &txn, nil
}

// CreateStandard inserts a standard payment record.
func (r *PaymentRepository) CreateStandard(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateEscrow inserts an escrow payment record and its inner transaction.
func (r *PaymentRepository) CreateEscrow(ctx context.Context, payment *EscrowPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// UpdateStandard applies field updates to a standard payment record.
func (r *PaymentRepository) UpdateStandard(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.update(ctx, &Payment{}, id, updates)
}

// UpdateEscrow applies field updates to the outer escrow payment record.
func (r *PaymentRepository) UpdateEscrow(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.update(ctx, &EscrowPayment{}, id, updates)
}

// UpdateEscrowTransaction applies field updates to the inner transaction.
func (r *PaymentRepository) UpdateEscrowTransaction(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.update(ctx, &EscrowTransaction{}, id, updates)
}

func (r *PaymentRepository) update(ctx context.Context, model interface{}, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindReceipt returns the stored outcome of a previously applied idempotent
// update.
func (r *PaymentRepository) FindReceipt(ctx context.Context, key string) (*ReconciliationReceipt, error) {
	var receipt ReconciliationReceipt
	if err := r.db.WithContext(ctx).First(&receipt, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("receipt %s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return &receipt, nil
}

// SaveReceipt records the outcome of an idempotent update. A replayed key is
// left untouched.
func (r *PaymentRepository) SaveReceipt(ctx context.Context, receipt *ReconciliationReceipt) error {
	err := r.db.WithContext(ctx).Create(receipt).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}
