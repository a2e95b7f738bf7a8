package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentRepository persists shipment records and their append-only
// tracking history.
type ShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new ShipmentRepository.
func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// Create inserts a shipment. Tracking numbers are unique system-wide.
func (r *ShipmentRepository) Create(ctx context.Context, shipment *Shipment) error {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("shipment %s: %w", shipment.TrackingNumber, ErrDuplicateTrackingNumber)
		}
		return err
	}
	return nil
}

// FindByTrackingNumber returns a shipment with its event history, oldest
// event first.
func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error) {
	var shipment Shipment
	if err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at")
		}).
		First(&shipment, "tracking_number = ?", trackingNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipment %s: %w", trackingNumber, ErrNotFound)
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByOrderRef returns all shipments created for an order.
func (r *ShipmentRepository) FindByOrderRef(ctx context.Context, orderRef string) ([]Shipment, error) {
	var shipments []Shipment
	if err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at")
		}).
		Where("order_ref = ?", orderRef).
		Order("created_at").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// AppendEvents adds new tracking events and advances the shipment status.
// Existing events are never rewritten; callers pass only events newer than
// the stored history.
func (r *ShipmentRepository) AppendEvents(ctx context.Context, shipmentID uuid.UUID, status string, events []ShipmentEvent, actualDelivery *time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range events {
			events[i].ShipmentID = shipmentID
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}
		updates := map[string]interface{}{"status": status}
		if actualDelivery != nil {
			updates["actual_delivery"] = actualDelivery
		}
		return tx.Model(&Shipment{}).Where("id = ?", shipmentID).Updates(updates).Error
	})
}

// MarkCancelled flips a shipment to cancelled. Rows are never deleted.
func (r *ShipmentRepository) MarkCancelled(ctx context.Context, trackingNumber string) error {
	result := r.db.WithContext(ctx).
		Model(&Shipment{}).
		Where("tracking_number = ?", trackingNumber).
		Update("status", "cancelled")
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("shipment %s: %w", trackingNumber, ErrNotFound)
	}
	return nil
}

// isUniqueViolation matches the driver-specific unique constraint errors of
// both postgres and sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
