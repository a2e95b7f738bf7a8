package carrier

import (
	"encoding/json"
	"time"
)

// TrackingStatus represents the normalized status of a shipment.
type TrackingStatus string

const (
	StatusCreated        TrackingStatus = "created"
	StatusPickedUp       TrackingStatus = "picked_up"
	StatusInTransit      TrackingStatus = "in_transit"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusDelivered      TrackingStatus = "delivered"
	StatusException      TrackingStatus = "exception"
	StatusReturned       TrackingStatus = "returned"
	StatusCancelled      TrackingStatus = "cancelled"
)

// MapStatus translates a carrier-native status code into the shared
// enumeration using the carrier's lookup table. Unmapped codes default to
// in_transit, never to an error.
func MapStatus(table map[string]TrackingStatus, native string) TrackingStatus {
	if s, ok := table[native]; ok {
		return s
	}
	return StatusInTransit
}

// ServiceCode describes one service a carrier offers.
type ServiceCode struct {
	Code    string
	Name    string
	DaysMin int
	DaysMax int
	Active  bool
}

// Features describes carrier capability flags.
type Features struct {
	Tracking          bool `json:"tracking"`
	Insurance         bool `json:"insurance"`
	CashOnDelivery    bool `json:"cashOnDelivery"`
	SignatureRequired bool `json:"signatureRequired"`
}

// Pricing is the locally-known pricing baseline used for default rates.
type Pricing struct {
	BaseFee   float64 `json:"baseFee"`
	PerKgRate float64 `json:"perKgRate"`
	Currency  string  `json:"currency"`
}

// Settings is the persisted carrier configuration handed to an adapter at
// construction time. Credentials is an opaque per-carrier blob; each adapter
// decodes and validates its own shape.
type Settings struct {
	Name        string
	DisplayName string
	Active      bool
	Credentials json.RawMessage
	Services    []ServiceCode
	Pricing     Pricing
	Features    Features
}

// Address represents a shipping address.
type Address struct {
	Name        string
	Company     string
	Line1       string
	Line2       string
	City        string
	Emirate     string // province/state code
	PostalCode  string
	CountryCode string // ISO 3166-1 alpha-2, e.g., "AE", "SA"
	Phone       string
	Email       string
}

// Contact represents sender or recipient contact info.
type Contact struct {
	Name    string
	Company string
	Phone   string
	Email   string
}

// Package represents a package to be shipped.
type Package struct {
	Length        float64 // cm
	Width         float64 // cm
	Height        float64 // cm
	Weight        float64 // kg
	Description   string
	DeclaredValue float64
	Currency      string
}

// Money represents a monetary amount.
type Money struct {
	Amount   float64 `json:"total"`
	Currency string  `json:"currency"`
}

// DayRange is an estimated delivery window in days. A zero Max means the
// carrier gave no estimate.
type DayRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Known reports whether the carrier provided an estimate at all.
func (d DayRange) Known() bool {
	return d.Max > 0
}

// ProviderInfo identifies the carrier a rate came from.
type ProviderInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Rate represents one shipping rate option from a carrier.
type Rate struct {
	RateID        string
	Provider      ProviderInfo
	ServiceCode   string
	ServiceName   string
	Cost          Money
	EstimatedDays DayRange
	Features      Features
	// IsDefault marks a locally computed fallback rate, returned when the
	// carrier API was unreachable or unconfigured.
	IsDefault bool
}

// TrackingEvent represents a tracking event.
type TrackingEvent struct {
	Timestamp   time.Time
	Status      TrackingStatus
	Description string
	Location    string
}

// RateRequest is the request for shipping rates.
type RateRequest struct {
	Origin      Address
	Destination Address
	Package     Package
}

// ShipmentRequest is the request for creating a shipment.
type ShipmentRequest struct {
	OrderID     string
	ServiceCode string
	Sender      Contact
	Origin      Address
	Recipient   Contact
	Destination Address
	Packages    []Package
	Reference   string
}

// ShipmentResult is the normalized result of creating a shipment.
type ShipmentResult struct {
	ShipmentID        string
	TrackingNumber    string
	TrackingURL       string
	LabelURL          string
	Status            TrackingStatus
	EstimatedDelivery *time.Time
	Cost              Money
}

// TrackingResult is the normalized result of a tracking lookup.
type TrackingResult struct {
	TrackingNumber    string
	Status            TrackingStatus
	Events            []TrackingEvent
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
}

// CancelResult is the normalized result of cancelling a shipment.
type CancelResult struct {
	ShipmentID         string
	Status             TrackingStatus
	ConfirmationNumber string
}

// PickupRequest books a pickup window.
type PickupRequest struct {
	Address     Address
	Date        time.Time
	ReadyTime   string // HH:MM
	ClosingTime string // HH:MM
	Packages    int
}

// PickupResult confirms a scheduled pickup.
type PickupResult struct {
	ConfirmationNumber string
	PickupDate         time.Time
}
