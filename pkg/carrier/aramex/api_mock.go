package aramex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCalculateRate   func(ctx context.Context, req *RateRequest) (*RateResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnTrackShipments  func(ctx context.Context, waybill string) (*TrackingResponse, error)
	OnCancelShipment  func(ctx context.Context, shipmentID string) (*CancelResponse, error)
	OnValidateAddress func(ctx context.Context, addr *AddressInfo) (*AddressValidationResponse, error)
	OnCreatePickup    func(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
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
		return &APIError{Code: "MOCK_ERROR", Message: "Simulated API error", StatusCode: 500}
	}
	return nil
}

// CalculateRate returns mock shipping rates.
func (m *MockAPIClient) CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCalculateRate != nil {
		return m.OnCalculateRate(ctx, req)
	}

	return &RateResponse{
		Rates: []RateDetail{
			{
				ProductType:    "OND",
				ProductName:    "Overnight Document",
				TotalAmount:    MoneyValue{Amount: 22.50, Currency: "AED"},
				TransitDaysMin: 1,
				TransitDaysMax: 1,
			},
			{
				ProductType:    "CDS",
				ProductName:    "Deferred Standard",
				TotalAmount:    MoneyValue{Amount: 14.75, Currency: "AED"},
				TransitDaysMin: 2,
				TransitDaysMax: 4,
			},
			{
				ProductType:    "PDX",
				ProductName:    "Priority Express",
				TotalAmount:    MoneyValue{Amount: 38.00, Currency: "AED"},
				TransitDaysMin: 1,
				TransitDaysMax: 2,
			},
		},
	}, nil
}

// CreateShipment creates a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	waybill := fmt.Sprintf("%d", 40000000000+time.Now().UnixNano()%9999999999)
	return &ShipmentResponse{
		ShipmentID:    "arx-" + uuid.New().String()[:8],
		WaybillNumber: waybill,
		LabelURL:      fmt.Sprintf("https://ws.aramex.net/labels/%s.pdf", waybill),
		ChargedAmount: MoneyValue{Amount: 14.75, Currency: "AED"},
		DeliveryDate:  time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
	}, nil
}

// TrackShipments retrieves mock tracking information.
func (m *MockAPIClient) TrackShipments(ctx context.Context, waybill string) (*TrackingResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrackShipments != nil {
		return m.OnTrackShipments(ctx, waybill)
	}

	now := time.Now()
	return &TrackingResponse{
		WaybillNumber: waybill,
		UpdateCode:    "SH014",
		Results: []TrackingResult{
			{
				UpdateCode:        "SH001",
				UpdateDescription: "Record created",
				UpdateLocation:    "Dubai",
				UpdateDateTime:    now.Add(-36 * time.Hour).Format(time.RFC3339),
			},
			{
				UpdateCode:        "SH003",
				UpdateDescription: "Collected from shipper",
				UpdateLocation:    "Dubai",
				UpdateDateTime:    now.Add(-30 * time.Hour).Format(time.RFC3339),
			},
			{
				UpdateCode:        "SH014",
				UpdateDescription: "Departed operations facility",
				UpdateLocation:    "Sharjah",
				UpdateDateTime:    now.Add(-6 * time.Hour).Format(time.RFC3339),
			},
		},
	}, nil
}

// CancelShipment cancels a mock shipment.
func (m *MockAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, shipmentID)
	}

	return &CancelResponse{ShipmentID: shipmentID, Status: "Cancelled"}, nil
}

// ValidateAddress validates a mock address.
func (m *MockAPIClient) ValidateAddress(ctx context.Context, addr *AddressInfo) (*AddressValidationResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnValidateAddress != nil {
		return m.OnValidateAddress(ctx, addr)
	}

	return &AddressValidationResponse{Valid: addr.City != "" && addr.CountryCode != ""}, nil
}

// CreatePickup schedules a mock pickup.
func (m *MockAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreatePickup != nil {
		return m.OnCreatePickup(ctx, req)
	}

	return &PickupResponse{
		ReferenceNumber: "PU-" + uuid.New().String()[:8],
		PickupDate:      req.PickupDate,
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
