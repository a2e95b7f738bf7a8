// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/soukly/mirsal/pkg/carrier"
)

// Client is a mock carrier for testing.
type Client struct {
	name string

	// Configured controls ValidateConfiguration.
	Configured bool
	// FailRates makes GetRates return an error.
	FailRates bool
	// RateCosts overrides the totals of the returned rates.
	RateCosts []float64
	// RateDays overrides the estimated-day maximums; 0 means no estimate.
	RateDays []int
	// TrackStatus overrides the status returned by TrackShipment.
	TrackStatus carrier.TrackingStatus
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name, Configured: true}
}

// Name returns the carrier name.
func (c *Client) Name() string { return c.name }

// DisplayName returns the carrier display name.
func (c *Client) DisplayName() string { return c.name + " (mock)" }

// ValidateConfiguration reports the configured flag.
func (c *Client) ValidateConfiguration(ctx context.Context) bool { return c.Configured }

// ServiceCodes returns two mock services.
func (c *Client) ServiceCodes() []carrier.ServiceCode {
	return []carrier.ServiceCode{
		{Code: "STANDARD", Name: c.name + " Standard", DaysMin: 2, DaysMax: 5, Active: true},
		{Code: "EXPRESS", Name: c.name + " Express", DaysMin: 1, DaysMax: 2, Active: true},
	}
}

// GetRates returns mock rates, one per configured cost.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if c.FailRates {
		return nil, carrier.NewCarrierError(c.name, "GetRates", "MOCK_ERROR", "simulated failure")
	}

	costs := c.RateCosts
	if len(costs) == 0 {
		costs = []float64{15.82, 29.95}
	}

	provider := carrier.ProviderInfo{Name: c.name, DisplayName: c.DisplayName()}
	rates := make([]carrier.Rate, len(costs))
	for i, cost := range costs {
		days := carrier.DayRange{Min: 1, Max: 2 + i}
		if i < len(c.RateDays) {
			days = carrier.DayRange{Min: 1, Max: c.RateDays[i]}
		}
		rates[i] = carrier.Rate{
			RateID:        fmt.Sprintf("%s-rate-%d", c.name, i),
			Provider:      provider,
			ServiceCode:   fmt.Sprintf("SVC%d", i),
			ServiceName:   fmt.Sprintf("%s Service %d", c.name, i),
			Cost:          carrier.Money{Amount: cost, Currency: "AED"},
			EstimatedDays: days,
			Features:      carrier.Features{Tracking: true},
		}
	}
	return rates, nil
}

// CreateShipment creates a mock shipment.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	now := time.Now()
	tracking := fmt.Sprintf("MK%s%d", c.name[:2], now.UnixNano()%1000000000)
	eta := now.Add(3 * 24 * time.Hour)
	return &carrier.ShipmentResult{
		ShipmentID:        fmt.Sprintf("%s-ship-%d", c.name, now.UnixNano()),
		TrackingNumber:    tracking,
		TrackingURL:       fmt.Sprintf("https://track.%s.mock/%s", c.name, tracking),
		LabelURL:          fmt.Sprintf("https://labels.%s.mock/%s.pdf", c.name, tracking),
		Status:            carrier.StatusCreated,
		EstimatedDelivery: &eta,
		Cost:              carrier.Money{Amount: 15.82, Currency: "AED"},
	}, nil
}

// TrackShipment returns mock tracking with a created event.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	now := time.Now()
	status := carrier.StatusInTransit
	if c.TrackStatus != "" {
		status = c.TrackStatus
	}
	result := &carrier.TrackingResult{
		TrackingNumber: trackingNumber,
		Status:         status,
		Events: []carrier.TrackingEvent{
			{Timestamp: now.Add(-24 * time.Hour), Status: carrier.StatusCreated, Description: "Shipment created"},
			{Timestamp: now.Add(-2 * time.Hour), Status: status, Description: "Status update"},
		},
	}
	if status == carrier.StatusDelivered {
		delivered := now.Add(-2 * time.Hour)
		result.ActualDelivery = &delivered
	}
	return result, nil
}

// CancelShipment cancels a mock shipment.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	return &carrier.CancelResult{
		ShipmentID:         shipmentID,
		Status:             carrier.StatusCancelled,
		ConfirmationNumber: fmt.Sprintf("CANCEL-%d", time.Now().UnixNano()),
	}, nil
}

// ValidateAddress accepts any address with a city.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) error {
	if addr.City == "" {
		return carrier.ErrInvalidAddress
	}
	return nil
}

// SchedulePickup confirms a mock pickup.
func (c *Client) SchedulePickup(ctx context.Context, req *carrier.PickupRequest) (*carrier.PickupResult, error) {
	return &carrier.PickupResult{
		ConfirmationNumber: fmt.Sprintf("PU-%d", time.Now().UnixNano()),
		PickupDate:         req.Date,
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
