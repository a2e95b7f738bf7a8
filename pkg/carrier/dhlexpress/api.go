package dhlexpress

import (
	"context"
)

// APIClient defines the interface for DHL Express API operations. This
// abstraction allows for mock implementations during testing and real
// implementations in production.
type APIClient interface {
	// GetQuote fetches shipping product quotes from the DHL Express API
	GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)

	// CreateShipment creates a new shipment and returns waybill details
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// GetTracking retrieves tracking information for a waybill
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error)

	// CancelPickup cancels a previously requested pickup
	CancelPickup(ctx context.Context, dispatchConfirmationNumber string) (*CancelPickupResponse, error)

	// RequestPickup schedules a courier pickup
	RequestPickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
}

// ============================================================================
// API Request/Response Types (match DHL Express REST API structure)
// ============================================================================

// QuoteRequest represents a DHL Express product quote request.
type QuoteRequest struct {
	OriginCountryCode      string  `json:"originCountryCode"`
	OriginCityName         string  `json:"originCityName"`
	OriginPostalCode       string  `json:"originPostalCode,omitempty"`
	DestinationCountryCode string  `json:"destinationCountryCode"`
	DestinationCityName    string  `json:"destinationCityName"`
	DestinationPostalCode  string  `json:"destinationPostalCode,omitempty"`
	Weight                 float64 `json:"weight"`
	Length                 float64 `json:"length,omitempty"`
	Width                  float64 `json:"width,omitempty"`
	Height                 float64 `json:"height,omitempty"`
	PlannedShippingDate    string  `json:"plannedShippingDate"`
	IsCustomsDeclarable    bool    `json:"isCustomsDeclarable"`
}

// QuoteResponse represents the DHL Express product quote response.
type QuoteResponse struct {
	Products []Product `json:"products"`
}

// Product represents a single DHL Express shipping product.
type Product struct {
	ProductCode   string       `json:"productCode"`
	ProductName   string       `json:"productName"`
	TotalPrice    []PriceEntry `json:"totalPrice"`
	DeliveryDays  int          `json:"deliveryDays"`
	DeliveryTime  string       `json:"estimatedDeliveryDateAndTime,omitempty"`
}

// PriceEntry represents a price in a specific currency.
type PriceEntry struct {
	CurrencyType string  `json:"currencyType"`
	Currency     string  `json:"priceCurrency"`
	Price        float64 `json:"price"`
}

// ShipmentRequest represents a shipment creation request.
type ShipmentRequest struct {
	ProductCode         string          `json:"productCode"`
	PlannedShippingDate string          `json:"plannedShippingDateAndTime"`
	Shipper             ContactDetails  `json:"customerDetails.shipperDetails"`
	Receiver            ContactDetails  `json:"customerDetails.receiverDetails"`
	Packages            []PackageDetail `json:"packages"`
	CustomerReference   string          `json:"customerReference,omitempty"`
	DeclaredValue       float64         `json:"declaredValue,omitempty"`
	DeclaredCurrency    string          `json:"declaredValueCurrency,omitempty"`
	IsCustomsDeclarable bool            `json:"isCustomsDeclarable"`
}

// ContactDetails represents shipper or receiver details.
type ContactDetails struct {
	Name         string `json:"fullName"`
	Company      string `json:"companyName,omitempty"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	CityName     string `json:"cityName"`
	PostalCode   string `json:"postalCode,omitempty"`
	CountryCode  string `json:"countryCode"`
}

// PackageDetail represents a single package in a shipment.
type PackageDetail struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// ShipmentResponse represents the shipment creation response.
type ShipmentResponse struct {
	ShipmentTrackingNumber string       `json:"shipmentTrackingNumber"`
	TrackingURL            string       `json:"trackingUrl"`
	Documents              []Document   `json:"documents"`
	ShipmentCharges        []PriceEntry `json:"shipmentCharges"`
	EstimatedDeliveryDate  string       `json:"estimatedDeliveryDate,omitempty"`
}

// Document represents a shipment document such as a waybill label.
type Document struct {
	TypeCode string `json:"typeCode"`
	Format   string `json:"imageFormat"`
	URL      string `json:"url"`
}

// TrackingResponse represents tracking information for a waybill.
type TrackingResponse struct {
	ShipmentTrackingNumber string          `json:"shipmentTrackingNumber"`
	Status                 string          `json:"status"`
	EstimatedDeliveryDate  string          `json:"estimatedDeliveryDate,omitempty"`
	Events                 []TrackingEvent `json:"events"`
}

// TrackingEvent represents a single tracking event.
type TrackingEvent struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	TypeCode    string `json:"typeCode"`
	Description string `json:"description"`
	Location    string `json:"serviceArea,omitempty"`
}

// PickupRequest represents a courier pickup request.
type PickupRequest struct {
	PlannedPickupDate string         `json:"plannedPickupDateAndTime"`
	CloseTime         string         `json:"closeTime,omitempty"`
	Location          ContactDetails `json:"customerDetails"`
	Remark            string         `json:"remark,omitempty"`
}

// PickupResponse represents the pickup scheduling response.
type PickupResponse struct {
	DispatchConfirmationNumber string `json:"dispatchConfirmationNumbers"`
	ReadyByTime                string `json:"readyByTime,omitempty"`
}

// CancelPickupResponse represents the pickup cancellation response.
type CancelPickupResponse struct {
	DispatchConfirmationNumber string `json:"dispatchConfirmationNumber"`
	Status                     string `json:"status"`
}

// APIError represents an error from the DHL Express API.
type APIError struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Detail  string `json:"detail"`
}

func (e *APIError) Error() string {
	return e.Title + ": " + e.Detail
}
