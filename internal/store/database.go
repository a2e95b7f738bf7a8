// Package store implements persistence for carrier configurations, shipment
// records, the payment record shapes, and buyer delivery options.
package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateTrackingNumber is returned when a shipment reuses an existing
// tracking number.
var ErrDuplicateTrackingNumber = errors.New("tracking number already exists")

// Open connects to the PostgreSQL database behind the given DSN.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CarrierConfig{},
		&Shipment{},
		&ShipmentEvent{},
		&Order{},
		&OrderEvent{},
		&Payment{},
		&EscrowPayment{},
		&EscrowTransaction{},
		&DeliveryOption{},
		&ReconciliationReceipt{},
	)
}
