package localcourier_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/soukly/mirsal/pkg/carrier/localcourier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testSettings() carrier.Settings {
	return carrier.Settings{
		Name:        "localcourier",
		DisplayName: "Soukly Delivery",
		Active:      true,
		Credentials: []byte(`{"perKmRate": 0.25, "freeDeliveryAbove": 500}`),
		Services: []carrier.ServiceCode{
			{Code: "LOCAL_STD", Name: "Same-Day Delivery", DaysMin: 0, DaysMax: 1, Active: true},
			{Code: "LOCAL_EXPRESS", Name: "Express Delivery", DaysMin: 0, DaysMax: 0, Active: true},
			{Code: "LOCAL_PICKUP", Name: "Pickup From Seller", DaysMin: 0, DaysMax: 0, Active: true},
		},
		Pricing: carrier.Pricing{BaseFee: 15.00, PerKgRate: 0, Currency: "AED"},
	}
}

func newTestClient(t *testing.T) *localcourier.Client {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	client, err := localcourier.New(testSettings(), logger, nil)
	require.NoError(t, err)
	return client
}

func TestClient_GetRates_SameCity(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Dubai", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 2.0},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rates, 3)

	byCode := map[string]carrier.Rate{}
	for _, r := range rates {
		byCode[r.ServiceCode] = r
	}
	assert.Equal(t, 15.00, byCode["LOCAL_STD"].Cost.Amount)
	assert.Equal(t, 0.0, byCode["LOCAL_PICKUP"].Cost.Amount)
}

func TestClient_GetRates_InterCityAddsDistanceSurcharge(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.0},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rates, 3)
	for _, r := range rates {
		if r.ServiceCode == "LOCAL_PICKUP" {
			continue
		}
		// base 15.00 + 140km * 0.25/km
		assert.Equal(t, 50.00, r.Cost.Amount, r.ServiceCode)
	}
}

func TestClient_GetRates_FreeAboveThreshold(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Sharjah", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.0, DeclaredValue: 750},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	require.NotEmpty(t, rates)
	for _, r := range rates {
		assert.Equal(t, 0.0, r.Cost.Amount)
	}
}

func TestClient_GetRates_UnservedCityPair(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Muscat", CountryCode: "AE"},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestClient_GetRates_InternationalNotServed(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "London", CountryCode: "GB"},
	}

	rates, err := client.GetRates(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestClient_CreateShipment_GeneratesTrackingNumber(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.ShipmentRequest{
		OrderID:     "order-9",
		ServiceCode: "LOCAL_STD",
		Origin:      carrier.Address{Line1: "Shop 1", City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{Line1: "Villa 3", City: "Sharjah", CountryCode: "AE"},
		Packages:    []carrier.Package{{Weight: 1.0}},
	}

	result, err := client.CreateShipment(context.Background(), req)

	require.NoError(t, err)
	assert.Regexp(t, `^LCL-\d+$`, result.TrackingNumber)
	assert.Equal(t, carrier.StatusCreated, result.Status)
	require.NotNil(t, result.EstimatedDelivery)
}

func TestClient_CreateShipment_RejectsUnservedDestination(t *testing.T) {
	client := newTestClient(t)

	req := &carrier.ShipmentRequest{
		OrderID:     "order-9",
		ServiceCode: "LOCAL_STD",
		Origin:      carrier.Address{Line1: "Shop 1", City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{Line1: "1 Main St", City: "London", CountryCode: "GB"},
	}

	_, err := client.CreateShipment(context.Background(), req)

	assert.ErrorIs(t, err, carrier.ErrInvalidAddress)
}

func TestClient_TrackShipment_ProgressesWithElapsedTime(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		age     time.Duration
		status  carrier.TrackingStatus
		nEvents int
	}{
		{"just dispatched", 5 * time.Minute, carrier.StatusCreated, 1},
		{"collected", 45 * time.Minute, carrier.StatusPickedUp, 2},
		{"en route", 3 * time.Hour, carrier.StatusOutForDelivery, 3},
		{"delivered", 8 * time.Hour, carrier.StatusDelivered, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracking := fmt.Sprintf("LCL-%d", time.Now().Add(-tc.age).Unix())

			result, err := client.TrackShipment(ctx, tracking)

			require.NoError(t, err)
			assert.Equal(t, tc.status, result.Status)
			assert.Len(t, result.Events, tc.nEvents)
		})
	}
}

func TestClient_TrackShipment_DeliveredSetsActualDelivery(t *testing.T) {
	client := newTestClient(t)

	tracking := fmt.Sprintf("LCL-%d", time.Now().Add(-24*time.Hour).Unix())
	result, err := client.TrackShipment(context.Background(), tracking)

	require.NoError(t, err)
	require.NotNil(t, result.ActualDelivery)
	assert.Nil(t, result.EstimatedDelivery)
}

func TestClient_TrackShipment_InvalidNumber(t *testing.T) {
	client := newTestClient(t)

	_, err := client.TrackShipment(context.Background(), "ZZZ-123")

	assert.ErrorIs(t, err, carrier.ErrShipmentNotFound)
}

func TestClient_CancelShipment(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	fresh := fmt.Sprintf("LCL-%d", time.Now().Add(-10*time.Minute).Unix())
	result, err := client.CancelShipment(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, carrier.StatusCancelled, result.Status)

	enRoute := fmt.Sprintf("LCL-%d", time.Now().Add(-3*time.Hour).Unix())
	_, err = client.CancelShipment(ctx, enRoute)
	assert.ErrorIs(t, err, carrier.ErrCancellationNotAllowed)
}

func TestClient_ValidateAddress(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.ValidateAddress(ctx, &carrier.Address{Line1: "Villa 3", City: "Ajman", CountryCode: "AE"})
	assert.NoError(t, err)

	err = client.ValidateAddress(ctx, &carrier.Address{Line1: "Villa 3", City: "Doha", CountryCode: "AE"})
	assert.ErrorIs(t, err, carrier.ErrInvalidAddress)
}

type fleetOnlySource struct{}

func (fleetOnlySource) ActiveConfigurations(ctx context.Context) ([]carrier.Settings, error) {
	return []carrier.Settings{testSettings()}, nil
}

// A marketplace running only the local fleet still quotes inter-city
// requests, and free seller pickup wins on price.
func TestAggregation_FleetOnlyRegistryQuotesPickupCheapest(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	registry := carrier.NewRegistry(fleetOnlySource{}, map[string]carrier.Factory{
		"localcourier": func(s carrier.Settings) (carrier.Carrier, error) {
			return localcourier.New(s, logger, nil)
		},
	}, logger)
	require.NoError(t, registry.Initialize(context.Background()))

	aggregator := carrier.NewAggregator(registry, logger)
	rates, err := aggregator.GetAllRates(context.Background(), &carrier.RateRequest{
		Origin:      carrier.Address{City: "Dubai", CountryCode: "AE"},
		Destination: carrier.Address{City: "Abu Dhabi", CountryCode: "AE"},
		Package:     carrier.Package{Weight: 1.0, DeclaredValue: 100, Currency: "AED"},
	})

	require.NoError(t, err)
	require.NotEmpty(t, rates)
	assert.Equal(t, "LOCAL_PICKUP", rates[0].ServiceCode)
	assert.Equal(t, 0.0, rates[0].Cost.Amount)
}
