package emiratespost

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

	OnGetRates          func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateConsignment func(ctx context.Context, req *ConsignmentRequest) (*ConsignmentResponse, error)
	OnGetTracking       func(ctx context.Context, trackingNumber string) (*TrackingResponse, error)
	OnVoidConsignment   func(ctx context.Context, consignmentID string) (*VoidResponse, error)
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
		return &APIError{Code: "MOCK_ERROR", Description: "Simulated API error", StatusCode: 500}
	}
	return nil
}

// GetRates returns mock shipping rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		QuoteID: "ep-quote-" + uuid.New().String()[:8],
		Rates: []Rate{
			{
				ServiceCode:    "EP.STD",
				ServiceName:    "Standard Parcel",
				TotalCharge:    12.00,
				Currency:       "AED",
				TransitDaysMin: 2,
				TransitDaysMax: 5,
			},
			{
				ServiceCode:    "EP.EXP",
				ServiceName:    "Express Mail",
				TotalCharge:    26.50,
				Currency:       "AED",
				TransitDaysMin: 1,
				TransitDaysMax: 2,
			},
		},
	}, nil
}

// CreateConsignment creates a mock consignment.
func (m *MockAPIClient) CreateConsignment(ctx context.Context, req *ConsignmentRequest) (*ConsignmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateConsignment != nil {
		return m.OnCreateConsignment(ctx, req)
	}

	tracking := fmt.Sprintf("EE%09dAE", time.Now().UnixNano()%1000000000)
	return &ConsignmentResponse{
		ConsignmentID:  "ep-con-" + uuid.New().String()[:8],
		TrackingNumber: tracking,
		LabelURL:       fmt.Sprintf("https://api.emiratespost.ae/labels/%s.pdf", tracking),
		Status:         "created",
		TotalCharge:    12.00,
		Currency:       "AED",
		DeliveryDate:   time.Now().AddDate(0, 0, 4).Format("2006-01-02"),
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
		TrackingNumber: trackingNumber,
		Status:         "ITEM_IN_TRANSIT",
		Events: []TrackingEvent{
			{
				Timestamp:   now.Add(-48 * time.Hour).Format(time.RFC3339),
				Code:        "ITEM_POSTED",
				Description: "Item posted at counter",
				Location:    "Abu Dhabi Central",
			},
			{
				Timestamp:   now.Add(-12 * time.Hour).Format(time.RFC3339),
				Code:        "ITEM_IN_TRANSIT",
				Description: "Item in transit to delivery office",
				Location:    "Dubai Hub",
			},
		},
	}, nil
}

// VoidConsignment cancels a mock consignment.
func (m *MockAPIClient) VoidConsignment(ctx context.Context, consignmentID string) (*VoidResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnVoidConsignment != nil {
		return m.OnVoidConsignment(ctx, consignmentID)
	}

	return &VoidResponse{ConsignmentID: consignmentID, Status: "voided"}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
