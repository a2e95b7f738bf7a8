// Package notify defines the outbound notification contract. Delivery is
// owned by an external collaborator; failures here never fail the operation
// that triggered them.
package notify

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Event names emitted by the fulfillment flow.
const (
	EventShipmentCreated     = "shipment_created"
	EventDeliveryConfirmed   = "delivery_confirmed"
	EventOrderStatusChanged  = "order_status_changed"
)

// Notifier accepts fire-and-forget fulfillment events.
type Notifier interface {
	Notify(ctx context.Context, event, orderRef, fromParty, toParty string)
}

// LogNotifier writes events to the log. Used until a real delivery channel
// is wired in and as the fallback sink in tests.
type LogNotifier struct {
	logger *otelzap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *otelzap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, event, orderRef, fromParty, toParty string) {
	n.logger.Ctx(ctx).Info("Notification dispatched",
		zap.String("event", event),
		zap.String("order_ref", orderRef),
		zap.String("from", fromParty),
		zap.String("to", toParty),
	)
}

var _ Notifier = (*LogNotifier)(nil)
