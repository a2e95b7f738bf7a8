package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soukly/mirsal/internal/store"
	"github.com/soukly/mirsal/internal/telemetry"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Service orchestrates shipment creation, tracking refresh, and
// cancellation against the carrier registry, the shipment store, and the
// reconciler.
type Service struct {
	registry   *carrier.Registry
	shipments  *store.ShipmentRepository
	orders     *store.OrderRepository
	reconciler *Reconciler
	metrics    *telemetry.Metrics
	logger     *otelzap.Logger
}

// NewService creates a Service.
func NewService(registry *carrier.Registry, shipments *store.ShipmentRepository, orders *store.OrderRepository, reconciler *Reconciler, metrics *telemetry.Metrics, logger *otelzap.Logger) *Service {
	return &Service{
		registry:   registry,
		shipments:  shipments,
		orders:     orders,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateShipmentInput is the shipment creation request.
type CreateShipmentInput struct {
	OrderRef     string
	ProviderName string
	ServiceCode  string
	Sender       carrier.Contact
	Origin       carrier.Address
	Recipient    carrier.Contact
	Destination  carrier.Address
	Packages     []carrier.Package
	Reference    string
}

// CreateShipment creates a shipment with the selected carrier, persists the
// record, fills the order's shipping sub-record, and reconciles the order to
// shipped. The carrier call and the shipment write must succeed; the order
// updates are best-effort side effects of an already-created shipment.
func (s *Service) CreateShipment(ctx context.Context, in *CreateShipmentInput) (*carrier.ShipmentResult, error) {
	started := time.Now()

	adapter, err := s.registry.Get(in.ProviderName)
	if err != nil {
		return nil, err
	}

	result, err := adapter.CreateShipment(ctx, &carrier.ShipmentRequest{
		OrderID:     in.OrderRef,
		ServiceCode: in.ServiceCode,
		Sender:      in.Sender,
		Origin:      in.Origin,
		Recipient:   in.Recipient,
		Destination: in.Destination,
		Packages:    in.Packages,
		Reference:   in.Reference,
	})
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordRequest("create_shipment", in.ProviderName, status, time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	shipment := &store.Shipment{
		OrderRef:          in.OrderRef,
		Carrier:           in.ProviderName,
		ServiceCode:       in.ServiceCode,
		CarrierShipmentID: result.ShipmentID,
		TrackingNumber:    result.TrackingNumber,
		TrackingURL:       result.TrackingURL,
		LabelURL:          result.LabelURL,
		Status:            string(result.Status),
		Origin:            encodeAddress(in.Origin),
		Destination:       encodeAddress(in.Destination),
		WeightKg:          totalWeight(in.Packages),
		DeclaredValue:     totalDeclaredValue(in.Packages),
		CostAmount:        result.Cost.Amount,
		CostCurrency:      result.Cost.Currency,
		EstimatedDelivery: result.EstimatedDelivery,
		Events: []store.ShipmentEvent{
			{OccurredAt: time.Now(), Status: string(carrier.StatusCreated), Description: "Shipment created"},
		},
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		return nil, fmt.Errorf("persisting shipment: %w", err)
	}

	s.updateOrderShipping(ctx, in, result)

	if _, err := s.reconciler.UpdateStatus(ctx, in.OrderRef, StatusShipped,
		fmt.Sprintf("Shipped via %s - Tracking: %s", in.ProviderName, result.TrackingNumber),
		"system", ""); err != nil {
		// The shipment exists with the carrier; the order catches up on the
		// next reconciliation pass.
		s.logger.Ctx(ctx).Error("Order reconciliation to shipped failed",
			zap.String("order_ref", in.OrderRef),
			zap.Error(err),
		)
	}

	return result, nil
}

func (s *Service) updateOrderShipping(ctx context.Context, in *CreateShipmentInput, result *carrier.ShipmentResult) {
	id, err := uuid.Parse(in.OrderRef)
	if err != nil {
		return
	}
	err = s.orders.UpdateShipping(ctx, id, map[string]interface{}{
		"shipping_carrier":         in.ProviderName,
		"shipping_service_code":    in.ServiceCode,
		"shipping_tracking_number": result.TrackingNumber,
		"shipping_cost_amount":     result.Cost.Amount,
		"shipping_cost_currency":   result.Cost.Currency,
		"shipping_origin":          encodeAddress(in.Origin),
		"shipping_destination":     encodeAddress(in.Destination),
	})
	if err != nil {
		s.logger.Ctx(ctx).Warn("Order shipping sub-record update failed",
			zap.String("order_ref", in.OrderRef),
			zap.Error(err),
		)
	}
}

// RefreshTracking pulls current tracking from the carrier, appends events
// newer than the stored history, advances the shipment status, and
// reconciles the order to delivered when the carrier reports delivery.
func (s *Service) RefreshTracking(ctx context.Context, trackingNumber string) (*store.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Get(shipment.Carrier)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := adapter.TrackShipment(ctx, trackingNumber)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordRequest("track_shipment", shipment.Carrier, status, time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	newEvents := eventsAfter(shipment.Events, result.Events)
	if err := s.shipments.AppendEvents(ctx, shipment.ID, string(result.Status), newEvents, result.ActualDelivery); err != nil {
		return nil, fmt.Errorf("recording tracking events: %w", err)
	}

	if result.Status == carrier.StatusDelivered {
		if _, err := s.reconciler.UpdateStatus(ctx, shipment.OrderRef, StatusDelivered,
			"Delivery confirmed by carrier", "system", ""); err != nil {
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				s.logger.Ctx(ctx).Error("Order reconciliation to delivered failed",
					zap.String("order_ref", shipment.OrderRef),
					zap.Error(err),
				)
			}
		}
	}

	return s.shipments.FindByTrackingNumber(ctx, trackingNumber)
}

// CancelShipment cancels a shipment with its carrier and marks the stored
// record cancelled. The record itself is never deleted.
func (s *Service) CancelShipment(ctx context.Context, trackingNumber string) (*carrier.CancelResult, error) {
	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Get(shipment.Carrier)
	if err != nil {
		return nil, err
	}

	shipmentID := shipment.CarrierShipmentID
	if shipmentID == "" {
		shipmentID = trackingNumber
	}
	result, err := adapter.CancelShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if err := s.shipments.MarkCancelled(ctx, trackingNumber); err != nil {
		return nil, err
	}
	return result, nil
}

// eventsAfter returns the carrier events strictly newer than the stored
// history, keeping the shipment's event log append-only across refreshes.
func eventsAfter(stored []store.ShipmentEvent, fresh []carrier.TrackingEvent) []store.ShipmentEvent {
	var latest time.Time
	for _, e := range stored {
		if e.OccurredAt.After(latest) {
			latest = e.OccurredAt
		}
	}

	var events []store.ShipmentEvent
	for _, e := range fresh {
		if !e.Timestamp.After(latest) {
			continue
		}
		events = append(events, store.ShipmentEvent{
			OccurredAt:  e.Timestamp,
			Status:      string(e.Status),
			Description: e.Description,
			Location:    e.Location,
		})
	}
	return events
}

func encodeAddress(addr carrier.Address) string {
	raw, err := json.Marshal(addr)
	if err != nil {
		return ""
	}
	return string(raw)
}

func totalWeight(packages []carrier.Package) float64 {
	var total float64
	for _, p := range packages {
		total += p.Weight
	}
	return total
}

func totalDeclaredValue(packages []carrier.Package) float64 {
	var total float64
	for _, p := range packages {
		total += p.DeclaredValue
	}
	return total
}
