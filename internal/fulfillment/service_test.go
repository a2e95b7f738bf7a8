package fulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/soukly/mirsal/internal/notify"
	"github.com/soukly/mirsal/internal/store"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/soukly/mirsal/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedSource []carrier.Settings

func (s fixedSource) ActiveConfigurations(ctx context.Context) ([]carrier.Settings, error) {
	return s, nil
}

type serviceFixture struct {
	service   *Service
	carrier   *mock.Client
	shipments *store.ShipmentRepository
	payments  *store.PaymentRepository
	orders    *store.OrderRepository
	notifier  *recordingNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	payments := store.NewPaymentRepository(db)
	orders := store.NewOrderRepository(db)
	shipments := store.NewShipmentRepository(db)
	notifier := &recordingNotifier{}
	logger := otelzap.New(zap.NewNop())

	mockClient := mock.New("mockcarrier")
	registry := carrier.NewRegistry(
		fixedSource{{Name: "mockcarrier", Active: true}},
		map[string]carrier.Factory{
			"mockcarrier": func(carrier.Settings) (carrier.Carrier, error) { return mockClient, nil },
		},
		logger,
	)
	require.NoError(t, registry.Initialize(context.Background()))

	reconciler := NewReconciler(orders, payments, notifier, nil, logger)
	return &serviceFixture{
		service:   NewService(registry, shipments, orders, reconciler, nil, logger),
		carrier:   mockClient,
		shipments: shipments,
		payments:  payments,
		orders:    orders,
		notifier:  notifier,
	}
}

// seedPaidOrder creates an order with a captured standard payment and returns
// the order reference.
func (f *serviceFixture) seedPaidOrder(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	order := &store.Order{BuyerID: "buyer-1", SellerID: "seller-1", PaymentMethod: "standard"}
	require.NoError(t, f.orders.Create(ctx, order))
	ref := order.ID.String()

	require.NoError(t, f.payments.CreateStandard(ctx, &store.Payment{
		OrderRef: ref,
		BuyerID:  "buyer-1",
		SellerID: "seller-1",
		Status:   "completed",
	}))
	return ref
}

func shipmentInput(orderRef string) *CreateShipmentInput {
	return &CreateShipmentInput{
		OrderRef:     orderRef,
		ProviderName: "mockcarrier",
		ServiceCode:  "STANDARD",
		Sender:       carrier.Contact{Name: "Seller", Phone: "+971501111111"},
		Origin:       carrier.Address{Line1: "Warehouse 4", City: "Dubai", CountryCode: "AE"},
		Recipient:    carrier.Contact{Name: "Buyer", Phone: "+971502222222"},
		Destination:  carrier.Address{Line1: "Villa 12", City: "Abu Dhabi", CountryCode: "AE"},
		Packages:     []carrier.Package{{Weight: 1.5, DeclaredValue: 100, Currency: "AED"}},
	}
}

func TestService_CreateThenTrackRoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	ref := f.seedPaidOrder(t)

	result, err := f.service.CreateShipment(ctx, shipmentInput(ref))
	require.NoError(t, err)
	require.NotEmpty(t, result.TrackingNumber)

	shipment, err := f.service.RefreshTracking(ctx, result.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, result.TrackingNumber, shipment.TrackingNumber)

	require.NotEmpty(t, shipment.Events)
	var hasCreated bool
	for _, e := range shipment.Events {
		if e.Status == string(carrier.StatusCreated) {
			hasCreated = true
		}
	}
	assert.True(t, hasCreated, "expected at least one created event")

	payment, err := f.payments.FindStandardByOrderRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "shipped", payment.Status)

	order, err := f.orders.FindByID(ctx, uuid.MustParse(ref))
	require.NoError(t, err)
	assert.Equal(t, "shipped", order.Status)
	assert.Equal(t, "mockcarrier", order.ShippingCarrier)
	assert.Equal(t, result.TrackingNumber, order.ShippingTrackingNumber)
}

func TestService_RefreshTrackingReconcilesDelivery(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	ref := f.seedPaidOrder(t)

	result, err := f.service.CreateShipment(ctx, shipmentInput(ref))
	require.NoError(t, err)

	f.carrier.TrackStatus = carrier.StatusDelivered

	shipment, err := f.service.RefreshTracking(ctx, result.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, string(carrier.StatusDelivered), shipment.Status)
	assert.NotNil(t, shipment.ActualDelivery)

	payment, err := f.payments.FindStandardByOrderRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "delivered", payment.Status)

	assert.Equal(t,
		[]string{notify.EventShipmentCreated, notify.EventDeliveryConfirmed},
		f.notifier.recorded(),
	)
}

func TestService_CancelShipment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	ref := f.seedPaidOrder(t)

	result, err := f.service.CreateShipment(ctx, shipmentInput(ref))
	require.NoError(t, err)

	cancel, err := f.service.CancelShipment(ctx, result.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, carrier.StatusCancelled, cancel.Status)

	shipment, err := f.shipments.FindByTrackingNumber(ctx, result.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, string(carrier.StatusCancelled), shipment.Status)
}

func TestService_CreateShipmentUnknownCarrier(t *testing.T) {
	f := newServiceFixture(t)
	ref := f.seedPaidOrder(t)

	in := shipmentInput(ref)
	in.ProviderName = "ghostexpress"
	_, err := f.service.CreateShipment(context.Background(), in)
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}

func TestService_RefreshTrackingUnknownNumber(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.RefreshTracking(context.Background(), "NOPE-404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
