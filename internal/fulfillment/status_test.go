package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to paid", StatusPendingPayment, StatusPaid, true},
		{"pending to cancelled", StatusPendingPayment, StatusCancelled, true},
		{"pending to shipped", StatusPendingPayment, StatusShipped, false},
		{"paid to processing", StatusPaid, StatusProcessing, true},
		{"paid to shipped", StatusPaid, StatusShipped, true},
		{"processing to shipped", StatusProcessing, StatusShipped, true},
		{"shipped to in transit", StatusShipped, StatusInTransit, true},
		{"shipped to delivered", StatusShipped, StatusDelivered, true},
		{"in transit skips out for delivery", StatusInTransit, StatusDelivered, true},
		{"out for delivery to delivered", StatusOutForDelivery, StatusDelivered, true},
		{"delivered to completed", StatusDelivered, StatusCompleted, true},
		{"delivered to returned", StatusDelivered, StatusReturned, true},
		{"delivered to refunded", StatusDelivered, StatusRefunded, true},
		{"completed to processing", StatusCompleted, StatusProcessing, false},
		{"cancelled is terminal", StatusCancelled, StatusPaid, false},
		{"refunded is terminal", StatusRefunded, StatusPendingPayment, false},
		{"delivered cannot regress", StatusDelivered, StatusShipped, false},
		{"shipped cannot regress", StatusShipped, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.True(t, IsTerminal(StatusReturned))
	assert.True(t, IsTerminal(StatusRefunded))

	assert.False(t, IsTerminal(StatusPendingPayment))
	assert.False(t, IsTerminal(StatusShipped))
	assert.False(t, IsTerminal(StatusDelivered))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(StatusPaid))
	assert.True(t, Valid(StatusOutForDelivery))
	assert.False(t, Valid(Status("teleported")))
	assert.False(t, Valid(Status("")))
}

func TestFromPaymentStatus(t *testing.T) {
	tests := []struct {
		payment string
		want    Status
	}{
		{"funds_held", StatusPaid},
		{"completed", StatusPaid},
		{"paid", StatusPaid},
		{"confirmed", StatusPaid},
		{"shipped", StatusShipped},
		{"delivered", StatusDelivered},
		{"released", StatusDelivered},
		{"failed", StatusCancelled},
		{"cancelled", StatusCancelled},
		{"refunded", StatusRefunded},
		{"pending", StatusPendingPayment},
		{"awaiting_gateway", StatusPendingPayment},
		{"", StatusPendingPayment},
	}

	for _, tt := range tests {
		t.Run(tt.payment, func(t *testing.T) {
			assert.Equal(t, tt.want, FromPaymentStatus(tt.payment))
		})
	}
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{From: StatusCompleted, To: StatusProcessing}
	assert.EqualError(t, err, "invalid status transition completed -> processing")
}
