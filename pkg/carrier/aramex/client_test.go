package aramex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/soukly/mirsal/pkg/carrier/aramex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testSettings() carrier.Settings {
	return carrier.Settings{
		Name:        "aramex",
		DisplayName: "Aramex",
		Active:      true,
		Services: []carrier.ServiceCode{
			{Code: "OND", Name: "Overnight Document", DaysMin: 1, DaysMax: 1, Active: true},
			{Code: "CDS", Name: "Deferred Standard", DaysMin: 2, DaysMax: 4, Active: true},
		},
		Pricing: carrier.Pricing{BaseFee: 10.00, PerKgRate: 2.50, Currency: "AED"},
	}
}

func newTestClient(mockClient *aramex.MockAPIClient) *aramex.Client {
	logger := otelzap.New(zap.NewNop())
	return aramex.NewWithAPIClient(testSettings(), mockClient, logger, nil)
}

func TestClient_GetRates_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 2.5},
	}

	ctx := context.Background()
	rates, err := client.GetRates(ctx, req)

	require.NoError(t, err)
	assert.Len(t, rates, 3) // Mock returns 3 rates
	assert.Equal(t, "aramex", rates[0].Provider.Name)
	assert.Equal(t, "AED", rates[0].Cost.Currency)
	for _, r := range rates {
		assert.False(t, r.IsDefault)
	}
}

func TestClient_GetRates_APIError_FallsBackToDefaults(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Sharjah", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 2.0},
	}

	ctx := context.Background()
	rates, err := client.GetRates(ctx, req)

	require.NoError(t, err)
	require.Len(t, rates, 2)
	for _, r := range rates {
		assert.True(t, r.IsDefault)
		// base 10.00 + 2.50/kg * 2kg
		assert.Equal(t, 15.00, r.Cost.Amount)
	}
}

func TestClient_GetRates_NoCredentials_UsesDefaults(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	client, err := aramex.New(testSettings(), logger, nil)
	require.NoError(t, err)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Dubai", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.0},
	}

	rates, err := client.GetRates(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates[0].IsDefault)
}

func TestClient_GetRates_CustomMock(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.OnCalculateRate = func(ctx context.Context, req *aramex.RateRequest) (*aramex.RateResponse, error) {
		return &aramex.RateResponse{
			Rates: []aramex.RateDetail{
				{
					ProductType:    "EPX",
					ProductName:    "Economy Parcel Express",
					TotalAmount:    aramex.MoneyValue{Amount: 55.25, Currency: "AED"},
					TransitDaysMin: 3,
					TransitDaysMax: 6,
				},
			},
		}, nil
	}

	client := newTestClient(mockAPI)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Riyadh", CountryCode: "SA"},
		Package:     carrier.Package{Weight: 4},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "EPX", rates[0].ServiceCode)
	assert.Equal(t, 55.25, rates[0].Cost.Amount)
	assert.Equal(t, carrier.DayRange{Min: 3, Max: 6}, rates[0].EstimatedDays)
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &carrier.ShipmentRequest{
		OrderID:     "order-123",
		ServiceCode: "CDS",
		Sender:      carrier.Contact{Name: "Seller", Phone: "+971500000001"},
		Origin:      carrier.Address{Line1: "Warehouse 4", City: "Dubai", CountryCode: "AE"},
		Recipient:   carrier.Contact{Name: "Buyer", Phone: "+971500000002"},
		Destination: carrier.Address{Line1: "Villa 12", City: "Abu Dhabi", CountryCode: "AE"},
		Packages:    []carrier.Package{{Weight: 1.2}},
	}

	result, err := client.CreateShipment(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, result.ShipmentID)
	assert.NotEmpty(t, result.TrackingNumber)
	assert.NotEmpty(t, result.LabelURL)
	assert.Equal(t, carrier.StatusCreated, result.Status)
	require.NotNil(t, result.EstimatedDelivery)
}

func TestClient_CreateShipment_APIError(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	req := &carrier.ShipmentRequest{
		OrderID:     "order-123",
		ServiceCode: "CDS",
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
	}

	_, err := client.CreateShipment(context.Background(), req)

	require.Error(t, err)
	var cerr *carrier.CarrierError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "aramex", cerr.Carrier)
	assert.True(t, cerr.Retryable)
}

func TestClient_TrackShipment_MapsStatuses(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "40001234567")

	require.NoError(t, err)
	assert.Equal(t, "40001234567", result.TrackingNumber)
	assert.Equal(t, carrier.StatusInTransit, result.Status)
	require.Len(t, result.Events, 3)
	assert.Equal(t, carrier.StatusCreated, result.Events[0].Status)
	assert.Equal(t, carrier.StatusPickedUp, result.Events[1].Status)
	assert.Equal(t, carrier.StatusInTransit, result.Events[2].Status)
}

func TestClient_TrackShipment_UnknownCodeDefaultsToInTransit(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.OnTrackShipments = func(ctx context.Context, waybill string) (*aramex.TrackingResponse, error) {
		return &aramex.TrackingResponse{
			WaybillNumber: waybill,
			UpdateCode:    "SH999",
			Results: []aramex.TrackingResult{
				{UpdateCode: "SH999", UpdateDescription: "Unrecognized scan"},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "40001234567")

	require.NoError(t, err)
	assert.Equal(t, carrier.StatusInTransit, result.Status)
	assert.Equal(t, carrier.StatusInTransit, result.Events[0].Status)
}

func TestClient_CancelShipment_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	result, err := client.CancelShipment(context.Background(), "arx-abc123")

	require.NoError(t, err)
	assert.Equal(t, "arx-abc123", result.ShipmentID)
	assert.Equal(t, carrier.StatusCancelled, result.Status)
}

func TestClient_ValidateAddress(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()

	err := client.ValidateAddress(ctx, &carrier.Address{City: "Dubai", CountryCode: "AE"})
	assert.NoError(t, err)

	err = client.ValidateAddress(ctx, &carrier.Address{CountryCode: "AE"})
	assert.ErrorIs(t, err, carrier.ErrInvalidAddress)
}

func TestClient_SchedulePickup_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := &carrier.PickupRequest{
		Address:  carrier.Address{Line1: "Warehouse 4", City: "Dubai", CountryCode: "AE"},
		Packages: 2,
	}

	result, err := client.SchedulePickup(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, result.ConfirmationNumber)
}

func TestClient_InvalidCredentialsBlob(t *testing.T) {
	settings := testSettings()
	settings.Credentials = []byte("{not json")

	logger := otelzap.New(zap.NewNop())
	_, err := aramex.New(settings, logger, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, carrier.ErrConfiguration)
}
