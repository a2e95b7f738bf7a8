package carrier

import (
	"errors"
	"fmt"
)

// CarrierError represents a failure of one carrier operation. It carries the
// carrier name and the operation that failed so callers never see the
// carrier's native error shape.
type CarrierError struct {
	Carrier    string
	Op         string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s (%s): %s: %v", e.Carrier, e.Op, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s (%s): %s", e.Carrier, e.Op, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing error codes.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCarrierError creates a new CarrierError.
func NewCarrierError(carrier, op, code, message string) *CarrierError {
	return &CarrierError{
		Carrier: carrier,
		Op:      op,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *CarrierError) WithStatusCode(code int) *CarrierError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *CarrierError) WithRetryable(retryable bool) *CarrierError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for common carrier scenarios.
var (
	// ErrCarrierNotFound indicates the requested carrier is not registered.
	// During a registry reload this is a transient condition and callers
	// should treat it as retryable.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrCarrierUnhealthy indicates the carrier is registered but failed its
	// last health check and is excluded from aggregation.
	ErrCarrierUnhealthy = errors.New("carrier currently unhealthy")

	// ErrCarrierUnavailable indicates a network failure, timeout, or remote
	// 5xx from the carrier API.
	ErrCarrierUnavailable = errors.New("carrier unavailable")

	// ErrConfiguration indicates the carrier configuration is invalid or
	// references an unknown adapter type.
	ErrConfiguration = errors.New("carrier misconfigured")

	// ErrInvalidAddress indicates the address is invalid or incomplete.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrShipmentNotFound indicates the shipment ID was not found.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrCancellationNotAllowed indicates the shipment cannot be cancelled.
	ErrCancellationNotAllowed = errors.New("cancellation not allowed")
)

// IsRetryable returns true if the error is worth retrying.
func IsRetryable(err error) bool {
	var cerr *CarrierError
	if errors.As(err, &cerr) {
		return cerr.Retryable
	}
	return errors.Is(err, ErrCarrierUnavailable) || errors.Is(err, ErrCarrierNotFound)
}

// IsUnavailable reports whether the error means the carrier could not be
// reached, as opposed to rejecting the request.
func IsUnavailable(err error) bool {
	var cerr *CarrierError
	if errors.As(err, &cerr) && cerr.StatusCode >= 500 {
		return true
	}
	return errors.Is(err, ErrCarrierUnavailable)
}
