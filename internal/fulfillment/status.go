// Package fulfillment derives one canonical fulfillment status from the
// payment record shapes backing an order, validates status transitions, and
// propagates validated changes back to every shape.
package fulfillment

import (
	"errors"
	"fmt"
)

// Status is the canonical fulfillment status of an order.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
	StatusRefunded       Status = "refunded"
)

// transitions is the adjacency table of legal status changes. Statuses with
// no entry are terminal.
var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusInTransit, StatusDelivered},
	StatusInTransit:      {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusCompleted, StatusReturned, StatusRefunded},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave the status.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known canonical status.
func Valid(s Status) bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped,
		StatusInTransit, StatusOutForDelivery, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusReturned, StatusRefunded:
		return true
	}
	return false
}

// paymentStatusMap translates each record shape's own payment-status
// vocabulary into a canonical status. Unmapped values fall back to
// pending_payment.
var paymentStatusMap = map[string]Status{
	"funds_held": StatusPaid,
	"completed":  StatusPaid,
	"paid":       StatusPaid,
	"confirmed":  StatusPaid,
	"shipped":    StatusShipped,
	"delivered":  StatusDelivered,
	"released":   StatusDelivered,
	"failed":     StatusCancelled,
	"cancelled":  StatusCancelled,
	"refunded":   StatusRefunded,
}

// FromPaymentStatus maps a record's own payment status into the canonical
// enumeration.
func FromPaymentStatus(paymentStatus string) Status {
	if s, ok := paymentStatusMap[paymentStatus]; ok {
		return s
	}
	return StatusPendingPayment
}

// InvalidTransitionError reports an illegal status change, naming both the
// record's current status and the requested one.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// DataIntegrityError reports a record missing an expected buyer or seller
// reference after self-heal failed.
type DataIntegrityError struct {
	OrderRef string
	Missing  string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("order %s: record is missing %s reference", e.OrderRef, e.Missing)
}

// ErrNoBackingRecord is returned when no payment record shape exists for an
// order reference.
var ErrNoBackingRecord = errors.New("no payment record found for order")

// ErrUnknownStatus is returned for a status outside the canonical
// enumeration.
var ErrUnknownStatus = errors.New("unknown fulfillment status")
