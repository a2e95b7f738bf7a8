package emiratespost

import (
	"context"
)

// APIClient defines the interface for Emirates Post API operations. This
// abstraction allows for mock implementations during testing and real
// implementations in production.
type APIClient interface {
	// GetRates fetches shipping rates from the Emirates Post API
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateConsignment creates a new consignment
	CreateConsignment(ctx context.Context, req *ConsignmentRequest) (*ConsignmentResponse, error)

	// GetTracking retrieves tracking information for a consignment
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error)

	// VoidConsignment voids/cancels an existing consignment
	VoidConsignment(ctx context.Context, consignmentID string) (*VoidResponse, error)
}

// ============================================================================
// API Request/Response Types (match Emirates Post XML API structure)
// ============================================================================

// RatesRequest represents an Emirates Post rate quote request.
type RatesRequest struct {
	CustomerCode    string
	OriginCity      string
	DestinationCity string
	DestinationCountry string
	Weight          float64 // kg
	DeclaredValue   float64
}

// RatesResponse represents the Emirates Post rate quote response.
type RatesResponse struct {
	QuoteID string
	Rates   []Rate
}

// Rate represents a single shipping rate option.
type Rate struct {
	ServiceCode     string
	ServiceName     string
	TotalCharge     float64
	Currency        string
	TransitDaysMin  int
	TransitDaysMax  int
}

// ConsignmentRequest represents a consignment creation request.
type ConsignmentRequest struct {
	CustomerCode string
	ServiceCode  string
	Sender       Party
	Receiver     Party
	Weight       float64
	Pieces       int
	Reference    string
}

// Party represents sender or receiver details.
type Party struct {
	Name     string
	Company  string
	Address1 string
	Address2 string
	City     string
	Emirate  string
	POBox    string
	Country  string
	Phone    string
	Email    string
}

// ConsignmentResponse represents the consignment creation response.
type ConsignmentResponse struct {
	ConsignmentID  string
	TrackingNumber string
	LabelURL       string
	Status         string
	TotalCharge    float64
	Currency       string
	DeliveryDate   string // 2006-01-02
}

// TrackingResponse represents tracking information.
type TrackingResponse struct {
	TrackingNumber string
	Status         string
	Events         []TrackingEvent
}

// TrackingEvent represents a single tracking event.
type TrackingEvent struct {
	Timestamp   string // RFC3339
	Code        string
	Description string
	Location    string
}

// VoidResponse represents the void consignment response.
type VoidResponse struct {
	ConsignmentID string
	Status        string
}

// APIError represents an error from the Emirates Post API.
type APIError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
