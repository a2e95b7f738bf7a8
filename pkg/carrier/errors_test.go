package carrier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/soukly/mirsal/pkg/carrier"
)

func TestCarrierError_Error(t *testing.T) {
	err := carrier.NewCarrierError("aramex", "GetRates", "RATE_LIMIT", "too many requests")
	assert.Equal(t, "aramex GetRates (RATE_LIMIT): too many requests", err.Error())

	withCause := carrier.NewCarrierError("aramex", "GetRates", "RATE_LIMIT", "too many requests").
		WithCause(errors.New("429 from upstream"))
	assert.Contains(t, withCause.Error(), "429 from upstream")
}

func TestCarrierError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := carrier.NewCarrierError("dhlexpress", "CreateShipment", "API_ERROR", "request failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
}

func TestCarrierError_Is_ComparesCodes(t *testing.T) {
	a := carrier.NewCarrierError("aramex", "GetRates", "RATE_LIMIT", "slow down")
	b := carrier.NewCarrierError("emiratespost", "TrackShipment", "RATE_LIMIT", "different message")
	c := carrier.NewCarrierError("aramex", "GetRates", "NOT_FOUND", "missing")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestCarrierError_WrappedSentinel(t *testing.T) {
	err := carrier.NewCarrierError("localcourier", "CancelShipment", "OUT_FOR_DELIVERY", "too late").
		WithCause(carrier.ErrCancellationNotAllowed)

	wrapped := fmt.Errorf("cancelling shipment: %w", err)
	assert.ErrorIs(t, wrapped, carrier.ErrCancellationNotAllowed)
}

func TestIsRetryable(t *testing.T) {
	retryable := carrier.NewCarrierError("aramex", "GetRates", "TIMEOUT", "timed out").WithRetryable(true)
	assert.True(t, carrier.IsRetryable(retryable))

	permanent := carrier.NewCarrierError("aramex", "GetRates", "BAD_REQUEST", "rejected")
	assert.False(t, carrier.IsRetryable(permanent))

	// During a reload a missing carrier is transient
	assert.True(t, carrier.IsRetryable(carrier.ErrCarrierNotFound))
	assert.True(t, carrier.IsRetryable(carrier.ErrCarrierUnavailable))
	assert.False(t, carrier.IsRetryable(errors.New("something else")))
}

func TestIsUnavailable(t *testing.T) {
	serverError := carrier.NewCarrierError("dhlexpress", "GetRates", "API_ERROR", "upstream down").WithStatusCode(503)
	assert.True(t, carrier.IsUnavailable(serverError))

	clientError := carrier.NewCarrierError("dhlexpress", "GetRates", "BAD_REQUEST", "rejected").WithStatusCode(400)
	assert.False(t, carrier.IsUnavailable(clientError))

	assert.True(t, carrier.IsUnavailable(carrier.ErrCarrierUnavailable))
}
