package dhlexpress

import (
	"context"
	"fmt"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetQuote       func(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
	OnCreateShipment func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnGetTracking    func(ctx context.Context, trackingNumber string) (*TrackingResponse, error)
	OnRequestPickup  func(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
	OnCancelPickup   func(ctx context.Context, dispatchConfirmationNumber string) (*CancelPickupResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{Status: 500, Title: "MOCK_ERROR", Detail: "Simulated API error"}
	}
	return nil
}

// GetQuote returns mock product quotes.
func (m *MockAPIClient) GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetQuote != nil {
		return m.OnGetQuote(ctx, req)
	}

	return &QuoteResponse{
		Products: []Product{
			{
				ProductCode:  "P",
				ProductName:  "EXPRESS WORLDWIDE",
				TotalPrice:   []PriceEntry{{CurrencyType: "BILLC", Currency: "AED", Price: 185.00}},
				DeliveryDays: 3,
			},
			{
				ProductCode:  "T",
				ProductName:  "EXPRESS 12:00",
				TotalPrice:   []PriceEntry{{CurrencyType: "BILLC", Currency: "AED", Price: 245.50}},
				DeliveryDays: 2,
			},
		},
	}, nil
}

// CreateShipment creates a mock shipment with a generated waybill.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	waybill := fmt.Sprintf("%010d", time.Now().UnixNano()%10000000000)
	return &ShipmentResponse{
		ShipmentTrackingNumber: waybill,
		TrackingURL:            "https://www.dhl.com/ae-en/home/tracking.html?tracking-id=" + waybill,
		Documents: []Document{
			{TypeCode: "label", Format: "PDF", URL: fmt.Sprintf("https://api-mock.dhl.com/labels/%s.pdf", waybill)},
		},
		ShipmentCharges:       []PriceEntry{{CurrencyType: "BILLC", Currency: "AED", Price: 185.00}},
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
	}, nil
}

// GetTracking retrieves mock tracking information.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	now := time.Now()
	return &TrackingResponse{
		ShipmentTrackingNumber: trackingNumber,
		Status:                 "transit",
		EstimatedDeliveryDate:  now.AddDate(0, 0, 2).Format("2006-01-02"),
		Events: []TrackingEvent{
			{
				Date:        now.Add(-36 * time.Hour).Format("2006-01-02"),
				Time:        "09:15:00",
				TypeCode:    "PU",
				Description: "Shipment picked up",
				Location:    "DXB",
			},
			{
				Date:        now.Add(-20 * time.Hour).Format("2006-01-02"),
				Time:        "23:40:00",
				TypeCode:    "PL",
				Description: "Processed at DHL facility",
				Location:    "DXB",
			},
			{
				Date:        now.Add(-6 * time.Hour).Format("2006-01-02"),
				Time:        "04:05:00",
				TypeCode:    "DF",
				Description: "Departed facility",
				Location:    "DXB",
			},
		},
	}, nil
}

// RequestPickup schedules a mock pickup.
func (m *MockAPIClient) RequestPickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnRequestPickup != nil {
		return m.OnRequestPickup(ctx, req)
	}

	return &PickupResponse{
		DispatchConfirmationNumber: fmt.Sprintf("PRG%06d", time.Now().UnixNano()%1000000),
		ReadyByTime:                "10:00",
	}, nil
}

// CancelPickup cancels a mock pickup.
func (m *MockAPIClient) CancelPickup(ctx context.Context, dispatchConfirmationNumber string) (*CancelPickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelPickup != nil {
		return m.OnCancelPickup(ctx, dispatchConfirmationNumber)
	}

	return &CancelPickupResponse{
		DispatchConfirmationNumber: dispatchConfirmationNumber,
		Status:                     "cancelled",
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
