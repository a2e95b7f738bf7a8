// Package carrier provides an abstraction layer for shipping carriers.
package carrier

import (
	"context"
)

// Carrier defines the interface that all shipping carriers must implement.
//
// Every method either returns a normalized result or fails with a
// *CarrierError tagging the carrier name and the failed operation. Native
// carrier error shapes never cross this boundary.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "aramex", "dhlexpress").
	Name() string

	// DisplayName returns the human-readable carrier name.
	DisplayName() string

	// ValidateConfiguration reports whether the carrier is configured well
	// enough to serve requests. It must not fail hard: a misconfigured
	// carrier returns false and is excluded from aggregation.
	ValidateConfiguration(ctx context.Context) bool

	// ServiceCodes returns the services this carrier offers.
	ServiceCodes() []ServiceCode

	// GetRates returns shipping rates for the request. When the external
	// API is unreachable or no credentials are configured, the carrier
	// returns deterministically computed default rates instead of failing.
	GetRates(ctx context.Context, req *RateRequest) ([]Rate, error)

	// CreateShipment creates a shipment with the carrier.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)

	// TrackShipment returns the current status and event history for a
	// tracking number.
	TrackShipment(ctx context.Context, trackingNumber string) (*TrackingResult, error)

	// CancelShipment cancels an existing shipment.
	CancelShipment(ctx context.Context, shipmentID string) (*CancelResult, error)

	// ValidateAddress checks that an address is deliverable by this carrier.
	ValidateAddress(ctx context.Context, addr *Address) error

	// SchedulePickup books a pickup window with the carrier.
	SchedulePickup(ctx context.Context, req *PickupRequest) (*PickupResult, error)
}
