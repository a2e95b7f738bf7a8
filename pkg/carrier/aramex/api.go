package aramex

import (
	"context"
)

// APIClient defines the interface for Aramex API operations. This
// abstraction allows for mock implementations during testing and real
// implementations in production.
type APIClient interface {
	// CalculateRate fetches shipping rates from the Aramex API
	CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error)

	// CreateShipment creates a new shipment
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// TrackShipments retrieves tracking information for a waybill
	TrackShipments(ctx context.Context, waybill string) (*TrackingResponse, error)

	// CancelShipment cancels an existing shipment
	CancelShipment(ctx context.Context, shipmentID string) (*CancelResponse, error)

	// ValidateAddress checks an address against the Aramex location API
	ValidateAddress(ctx context.Context, addr *AddressInfo) (*AddressValidationResponse, error)

	// CreatePickup schedules a pickup
	CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
}

// ============================================================================
// API Request/Response Types (match Aramex REST API structure)
// ============================================================================

// ClientInfo carries the Aramex account credentials sent with every request.
type ClientInfo struct {
	UserName      string `json:"UserName"`
	Password      string `json:"Password"`
	AccountNumber string `json:"AccountNumber"`
	AccountPin    string `json:"AccountPin"`
	AccountEntity string `json:"AccountEntity"`
	CountryCode   string `json:"AccountCountryCode"`
	Version       string `json:"Version"`
}

// AddressInfo represents an Aramex address.
type AddressInfo struct {
	Line1       string `json:"Line1"`
	Line2       string `json:"Line2,omitempty"`
	City        string `json:"City"`
	StateCode   string `json:"StateOrProvinceCode,omitempty"`
	PostCode    string `json:"PostCode,omitempty"`
	CountryCode string `json:"CountryCode"`
}

// PartyInfo represents a shipment party.
type PartyInfo struct {
	Name    string      `json:"Name"`
	Company string      `json:"CompanyName,omitempty"`
	Phone   string      `json:"PhoneNumber1"`
	Email   string      `json:"EmailAddress,omitempty"`
	Address AddressInfo `json:"PartyAddress"`
}

// ShipmentDetails describes the parcel.
type ShipmentDetails struct {
	ActualWeight  Weight     `json:"ActualWeight"`
	NumberOfPieces int       `json:"NumberOfPieces"`
	ProductGroup  string     `json:"ProductGroup"` // "DOM" or "EXP"
	ProductType   string     `json:"ProductType"`  // service code
	PaymentType   string     `json:"PaymentType"`
	Dimensions    *Dimensions `json:"Dimensions,omitempty"`
	GoodsValue    *MoneyValue `json:"CustomsValueAmount,omitempty"`
	Description   string     `json:"DescriptionOfGoods,omitempty"`
}

// Weight is a value/unit pair.
type Weight struct {
	Value float64 `json:"Value"`
	Unit  string  `json:"Unit"` // "KG"
}

// Dimensions are parcel dimensions in cm.
type Dimensions struct {
	Length float64 `json:"Length"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Unit   string  `json:"Unit"` // "CM"
}

// MoneyValue is an amount/currency pair.
type MoneyValue struct {
	Amount   float64 `json:"Value"`
	Currency string  `json:"CurrencyCode"`
}

// RateRequest represents an Aramex rate calculation request.
// POST /RateCalculator/Service_1_0.svc/json/CalculateRate
type RateRequest struct {
	ClientInfo  ClientInfo      `json:"ClientInfo"`
	Origin      AddressInfo     `json:"OriginAddress"`
	Destination AddressInfo     `json:"DestinationAddress"`
	Details     ShipmentDetails `json:"ShipmentDetails"`
}

// RateResponse represents the Aramex rate calculation response.
type RateResponse struct {
	HasErrors    bool           `json:"HasErrors"`
	Notifications []Notification `json:"Notifications,omitempty"`
	Rates        []RateDetail   `json:"RateDetails"`
}

// RateDetail is a single service rate.
type RateDetail struct {
	ProductType string     `json:"ProductType"`
	ProductName string     `json:"ProductName"`
	TotalAmount MoneyValue `json:"TotalAmount"`
	TransitDaysMin int     `json:"TransitDaysMin,omitempty"`
	TransitDaysMax int     `json:"TransitDaysMax,omitempty"`
}

// Notification is an Aramex API message.
type Notification struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// ShipmentRequest represents an Aramex shipment creation request.
// POST /Shipping/Service_1_0.svc/json/CreateShipments
type ShipmentRequest struct {
	ClientInfo ClientInfo      `json:"ClientInfo"`
	Shipper    PartyInfo       `json:"Shipper"`
	Consignee  PartyInfo       `json:"Consignee"`
	Details    ShipmentDetails `json:"Details"`
	Reference  string          `json:"Reference1,omitempty"`
}

// ShipmentResponse represents the Aramex shipment creation response.
type ShipmentResponse struct {
	HasErrors     bool           `json:"HasErrors"`
	Notifications []Notification `json:"Notifications,omitempty"`
	ShipmentID    string         `json:"ID"`
	WaybillNumber string         `json:"WaybillNumber"`
	LabelURL      string         `json:"LabelURL,omitempty"`
	ChargedAmount MoneyValue     `json:"ChargeableAmount"`
	DeliveryDate  string         `json:"DeliveryDate,omitempty"` // 2006-01-02
}

// TrackingResponse represents Aramex tracking information.
// POST /Tracking/Service_1_0.svc/json/TrackShipments
type TrackingResponse struct {
	HasErrors     bool             `json:"HasErrors"`
	WaybillNumber string           `json:"WaybillNumber"`
	UpdateCode    string           `json:"UpdateCode"`
	Results       []TrackingResult `json:"TrackingResults"`
}

// TrackingResult is a single tracking event.
type TrackingResult struct {
	UpdateCode        string `json:"UpdateCode"`
	UpdateDescription string `json:"UpdateDescription"`
	UpdateLocation    string `json:"UpdateLocation"`
	UpdateDateTime    string `json:"UpdateDateTime"` // RFC3339
}

// CancelResponse represents the Aramex cancellation response.
type CancelResponse struct {
	HasErrors     bool           `json:"HasErrors"`
	Notifications []Notification `json:"Notifications,omitempty"`
	ShipmentID    string         `json:"ID"`
	Status        string         `json:"Status"`
}

// AddressValidationResponse represents the address validation result.
type AddressValidationResponse struct {
	HasErrors     bool           `json:"HasErrors"`
	Notifications []Notification `json:"Notifications,omitempty"`
	Valid         bool           `json:"Valid"`
}

// PickupRequest represents an Aramex pickup creation request.
type PickupRequest struct {
	ClientInfo  ClientInfo  `json:"ClientInfo"`
	Address     AddressInfo `json:"PickupAddress"`
	PickupDate  string      `json:"PickupDate"`  // 2006-01-02
	ReadyTime   string      `json:"ReadyTime"`   // HH:MM
	ClosingTime string      `json:"ClosingTime"` // HH:MM
	Pieces      int         `json:"NumberOfPieces"`
}

// PickupResponse represents the Aramex pickup confirmation.
type PickupResponse struct {
	HasErrors     bool           `json:"HasErrors"`
	Notifications []Notification `json:"Notifications,omitempty"`
	ReferenceNumber string       `json:"ProcessedPickup.ID"`
	PickupDate    string         `json:"PickupDate,omitempty"`
}

// APIError represents an error from the Aramex API.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
