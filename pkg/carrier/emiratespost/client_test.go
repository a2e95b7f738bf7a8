package emiratespost_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/soukly/mirsal/pkg/carrier/emiratespost"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testSettings() carrier.Settings {
	return carrier.Settings{
		Name:        "emiratespost",
		DisplayName: "Emirates Post",
		Active:      true,
		Services: []carrier.ServiceCode{
			{Code: "EP.STD", Name: "Standard Parcel", DaysMin: 2, DaysMax: 5, Active: true},
			{Code: "EP.EXP", Name: "Express Mail", DaysMin: 1, DaysMax: 2, Active: true},
		},
		Pricing: carrier.Pricing{BaseFee: 8.00, PerKgRate: 1.50, Currency: "AED"},
	}
}

func newTestClient(mockClient *emiratespost.MockAPIClient) *emiratespost.Client {
	logger := otelzap.New(zap.NewNop())
	return emiratespost.NewWithAPIClient(testSettings(), mockClient, logger, nil)
}

func TestClient_GetRates_Success(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Destination: carrier.Address{City: "Dubai", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.0},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "EP.STD", rates[0].ServiceCode)
	assert.Equal(t, 12.00, rates[0].Cost.Amount)
	assert.Equal(t, "emiratespost", rates[0].Provider.Name)
}

func TestClient_GetRates_APIError_FallsBackToDefaults(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Destination: carrier.Address{City: "Dubai", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 2.0},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rates, 2)
	for _, r := range rates {
		assert.True(t, r.IsDefault)
		// base 8.00 + 1.50/kg * 2kg
		assert.Equal(t, 11.00, r.Cost.Amount)
	}
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &carrier.ShipmentRequest{
		OrderID:     "order-77",
		ServiceCode: "EP.STD",
		Sender:      carrier.Contact{Name: "Seller", Phone: "+971200000001"},
		Origin:      carrier.Address{Line1: "Shop 3", City: "Abu Dhabi", CountryCode: "AE"},
		Recipient:   carrier.Contact{Name: "Buyer", Phone: "+971200000002"},
		Destination: carrier.Address{Line1: "Apt 1404", City: "Dubai", CountryCode: "AE"},
		Packages:    []carrier.Package{{Weight: 0.8}},
	}

	result, err := client.CreateShipment(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, result.ShipmentID)
	assert.Regexp(t, `^EE\d{9}AE$`, result.TrackingNumber)
	assert.Contains(t, result.TrackingURL, result.TrackingNumber)
	assert.Equal(t, carrier.StatusCreated, result.Status)
}

func TestClient_TrackShipment_MapsStatuses(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "EE000000001AE")

	require.NoError(t, err)
	assert.Equal(t, carrier.StatusInTransit, result.Status)
	require.Len(t, result.Events, 2)
	assert.Equal(t, carrier.StatusCreated, result.Events[0].Status)
	assert.Equal(t, carrier.StatusInTransit, result.Events[1].Status)
}

func TestClient_TrackShipment_DeliveredSetsActualDelivery(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	mockAPI.OnGetTracking = func(ctx context.Context, trackingNumber string) (*emiratespost.TrackingResponse, error) {
		return &emiratespost.TrackingResponse{
			TrackingNumber: trackingNumber,
			Status:         "ITEM_DELIVERED",
			Events: []emiratespost.TrackingEvent{
				{Timestamp: "2026-08-20T09:00:00Z", Code: "ITEM_POSTED", Description: "Posted"},
				{Timestamp: "2026-08-22T14:30:00Z", Code: "ITEM_DELIVERED", Description: "Delivered to recipient"},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "EE000000001AE")

	require.NoError(t, err)
	assert.Equal(t, carrier.StatusDelivered, result.Status)
	require.NotNil(t, result.ActualDelivery)
	assert.Equal(t, "2026-08-22T14:30:00Z", result.ActualDelivery.Format("2006-01-02T15:04:05Z"))
}

func TestClient_CancelShipment_Success(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	result, err := client.CancelShipment(context.Background(), "ep-con-42")

	require.NoError(t, err)
	assert.Equal(t, "ep-con-42", result.ShipmentID)
	assert.Equal(t, carrier.StatusCancelled, result.Status)
}

func TestClient_ValidateAddress(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()

	err := client.ValidateAddress(ctx, &carrier.Address{Line1: "Street 5", City: "Sharjah"})
	assert.NoError(t, err)

	// PO box alone is acceptable
	err = client.ValidateAddress(ctx, &carrier.Address{PostalCode: "31441", City: "Sharjah"})
	assert.NoError(t, err)

	err = client.ValidateAddress(ctx, &carrier.Address{City: "Sharjah"})
	assert.ErrorIs(t, err, carrier.ErrInvalidAddress)
}

func TestClient_SchedulePickup_NotSupported(t *testing.T) {
	mockAPI := emiratespost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.SchedulePickup(context.Background(), &carrier.PickupRequest{})

	require.Error(t, err)
	var cerr *carrier.CarrierError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "NOT_SUPPORTED", cerr.Code)
}
