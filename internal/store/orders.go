package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository persists the denormalized order projection and its
// append-only timeline.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID returns an order with its timeline, oldest entry first.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var order Order
	if err := r.db.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// Create inserts an order.
func (r *OrderRepository) Create(ctx context.Context, order *Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// UpdateStatus sets the canonical status and appends a timeline entry in one
// transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, note, actorRole string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).Where("id = ?", id).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return tx.Create(&OrderEvent{
			OrderID:   id,
			Status:    status,
			Note:      note,
			ActorRole: actorRole,
		}).Error
	})
}

// UpdateShipping fills the order's shipping sub-record.
func (r *OrderRepository) UpdateShipping(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}
