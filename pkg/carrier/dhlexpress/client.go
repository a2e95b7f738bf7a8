// Package dhlexpress provides integration with the DHL Express MyDHL API.
package dhlexpress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "dhlexpress"

// credentials is the shape of the opaque configuration blob for DHL Express.
type credentials struct {
	APIKey        string `json:"apiKey"`
	APISecret     string `json:"apiSecret"`
	AccountNumber string `json:"accountNumber"`
	BaseURL       string `json:"baseURL"`
	UseMock       bool   `json:"useMock"`
}

// statusTable maps DHL Express event type codes into the shared tracking
// enumeration. The summary status field uses lowercase words.
var statusTable = map[string]carrier.TrackingStatus{
	"SD":        carrier.StatusCreated,
	"PU":        carrier.StatusPickedUp,
	"PL":        carrier.StatusInTransit,
	"DF":        carrier.StatusInTransit,
	"AF":        carrier.StatusInTransit,
	"transit":   carrier.StatusInTransit,
	"WC":        carrier.StatusOutForDelivery,
	"OK":        carrier.StatusDelivered,
	"delivered": carrier.StatusDelivered,
	"RT":        carrier.StatusReturned,
	"CA":        carrier.StatusCancelled,
	"failure":   carrier.StatusException,
	"UD":        carrier.StatusException,
}

// Client is the DHL Express carrier client.
type Client struct {
	settings  carrier.Settings
	creds     credentials
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new DHL Express client from its persisted configuration.
func New(settings carrier.Settings, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	var creds credentials
	if len(settings.Credentials) > 0 {
		if err := json.Unmarshal(settings.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("%w: dhlexpress credentials: %v", carrier.ErrConfiguration, err)
		}
	}

	var apiClient APIClient
	if creds.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:       creds.BaseURL,
			APIKey:        creds.APIKey,
			APISecret:     creds.APISecret,
			AccountNumber: creds.AccountNumber,
			Timeout:       45 * time.Second,
		})
	}

	return &Client{
		settings:  settings,
		creds:     creds,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}, nil
}

// NewWithAPIClient creates a DHL Express client with a custom API client.
func NewWithAPIClient(settings carrier.Settings, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	// An injected client is always treated as live so calls reach it
	// instead of the default-rate fallback.
	return &Client{settings: settings, creds: credentials{UseMock: true}, apiClient: apiClient, logger: logger, tracer: tracer}
}

// Name returns the carrier name.
func (c *Client) Name() string { return carrierName }

// DisplayName returns the configured display name.
func (c *Client) DisplayName() string {
	if c.settings.DisplayName != "" {
		return c.settings.DisplayName
	}
	return "DHL Express"
}

// ValidateConfiguration checks the pricing baseline and service list.
func (c *Client) ValidateConfiguration(ctx context.Context) bool {
	if c.settings.Pricing.Currency == "" || c.settings.Pricing.BaseFee < 0 {
		return false
	}
	return len(c.settings.Services) > 0
}

// ServiceCodes returns the configured DHL Express products.
func (c *Client) ServiceCodes() []carrier.ServiceCode {
	return c.settings.Services
}

func (c *Client) hasLiveCredentials() bool {
	return c.creds.UseMock || (c.creds.APIKey != "" && c.creds.APISecret != "" && c.creds.AccountNumber != "")
}

// GetRates returns shipping rates from DHL Express, falling back to the
// locally computed default rates when the API is unreachable or
// unconfigured.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if !c.hasLiveCredentials() {
		c.logger.Debug("DHL Express credentials not configured, using default rates")
		return carrier.DefaultRates(c.settings, req), nil
	}

	c.logger.Info("Getting DHL Express quotes",
		zap.String("origin_country", req.Origin.CountryCode),
		zap.String("destination_country", req.Destination.CountryCode),
	)

	apiReq := &QuoteRequest{
		OriginCountryCode:      req.Origin.CountryCode,
		OriginCityName:         req.Origin.City,
		OriginPostalCode:       req.Origin.PostalCode,
		DestinationCountryCode: req.Destination.CountryCode,
		DestinationCityName:    req.Destination.City,
		DestinationPostalCode:  req.Destination.PostalCode,
		Weight:                 req.Package.Weight,
		Length:                 req.Package.Length,
		Width:                  req.Package.Width,
		Height:                 req.Package.Height,
		PlannedShippingDate:    time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		IsCustomsDeclarable:    req.Origin.CountryCode != req.Destination.CountryCode,
	}

	apiResp, err := c.apiClient.GetQuote(ctx, apiReq)
	if err != nil {
		c.logger.Warn("DHL Express API error, falling back to default rates", zap.Error(err))
		return carrier.DefaultRates(c.settings, req), nil
	}

	provider := carrier.ProviderInfo{Name: carrierName, DisplayName: c.DisplayName()}
	rates := make([]carrier.Rate, 0, len(apiResp.Products))
	for _, p := range apiResp.Products {
		price, currency := billedPrice(p.TotalPrice)
		if price == 0 {
			continue
		}
		rates = append(rates, carrier.Rate{
			RateID:        fmt.Sprintf("dhl-%s-%d", p.ProductCode, time.Now().UnixNano()),
			Provider:      provider,
			ServiceCode:   p.ProductCode,
			ServiceName:   p.ProductName,
			Cost:          carrier.Money{Amount: price, Currency: currency},
			EstimatedDays: carrier.DayRange{Min: p.DeliveryDays, Max: p.DeliveryDays},
			Features:      c.settings.Features,
		})
	}
	return rates, nil
}

// CreateShipment creates a waybill with DHL Express.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	c.logger.Info("Creating DHL Express shipment",
		zap.String("order_id", req.OrderID),
		zap.String("product_code", req.ServiceCode),
	)

	packages := make([]PackageDetail, len(req.Packages))
	for i, p := range req.Packages {
		packages[i] = PackageDetail{Weight: p.Weight, Length: p.Length, Width: p.Width, Height: p.Height}
	}

	apiReq := &ShipmentRequest{
		ProductCode:         req.ServiceCode,
		PlannedShippingDate: time.Now().AddDate(0, 0, 1).Format(time.RFC3339),
		Shipper:             contactFromModel(req.Sender, req.Origin),
		Receiver:            contactFromModel(req.Recipient, req.Destination),
		Packages:            packages,
		CustomerReference:   req.Reference,
		IsCustomsDeclarable: req.Origin.CountryCode != req.Destination.CountryCode,
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		return nil, c.wrap("CreateShipment", err)
	}

	var labelURL string
	for _, d := range apiResp.Documents {
		if d.TypeCode == "label" {
			labelURL = d.URL
			break
		}
	}

	var eta *time.Time
	if apiResp.EstimatedDeliveryDate != "" {
		if t, err := time.Parse("2006-01-02", apiResp.EstimatedDeliveryDate); err == nil {
			eta = &t
		}
	}

	price, currency := billedPrice(apiResp.ShipmentCharges)
	return &carrier.ShipmentResult{
		ShipmentID:        apiResp.ShipmentTrackingNumber,
		TrackingNumber:    apiResp.ShipmentTrackingNumber,
		TrackingURL:       apiResp.TrackingURL,
		LabelURL:          labelURL,
		Status:            carrier.StatusCreated,
		EstimatedDelivery: eta,
		Cost:              carrier.Money{Amount: price, Currency: currency},
	}, nil
}

// TrackShipment returns normalized tracking for a waybill.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		return nil, c.wrap("TrackShipment", err)
	}

	events := make([]carrier.TrackingEvent, 0, len(apiResp.Events))
	for _, e := range apiResp.Events {
		ts, _ := time.Parse("2006-01-02 15:04:05", e.Date+" "+e.Time)
		events = append(events, carrier.TrackingEvent{
			Timestamp:   ts,
			Status:      carrier.MapStatus(statusTable, e.TypeCode),
			Description: e.Description,
			Location:    e.Location,
		})
	}

	result := &carrier.TrackingResult{
		TrackingNumber: apiResp.ShipmentTrackingNumber,
		Status:         carrier.MapStatus(statusTable, apiResp.Status),
		Events:         events,
	}
	if apiResp.EstimatedDeliveryDate != "" {
		if t, err := time.Parse("2006-01-02", apiResp.EstimatedDeliveryDate); err == nil {
			result.EstimatedDelivery = &t
		}
	}
	if result.Status == carrier.StatusDelivered && len(events) > 0 {
		last := events[len(events)-1].Timestamp
		result.ActualDelivery = &last
	}
	return result, nil
}

// CancelShipment is not supported once a waybill has been issued; the
// MyDHL API only allows cancelling pickups.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	return nil, carrier.NewCarrierError(carrierName, "CancelShipment", "NOT_SUPPORTED",
		"DHL Express waybills cannot be cancelled through the API").
		WithCause(carrier.ErrCancellationNotAllowed)
}

// ValidateAddress performs local completeness checks for international
// shipping.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) error {
	if addr.CountryCode == "" {
		return fmt.Errorf("%w: country code is required", carrier.ErrInvalidAddress)
	}
	if len(addr.CountryCode) != 2 {
		return fmt.Errorf("%w: country code must be ISO 3166-1 alpha-2", carrier.ErrInvalidAddress)
	}
	if addr.City == "" {
		return fmt.Errorf("%w: city is required", carrier.ErrInvalidAddress)
	}
	if addr.Line1 == "" {
		return fmt.Errorf("%w: street address is required", carrier.ErrInvalidAddress)
	}
	return nil
}

// SchedulePickup requests a courier pickup via the DHL Express API.
func (c *Client) SchedulePickup(ctx context.Context, req *carrier.PickupRequest) (*carrier.PickupResult, error) {
	contact := carrier.Contact{
		Name:    req.Address.Name,
		Company: req.Address.Company,
		Phone:   req.Address.Phone,
		Email:   req.Address.Email,
	}
	apiReq := &PickupRequest{
		PlannedPickupDate: req.Date.Format(time.RFC3339),
		CloseTime:         req.ClosingTime,
		Location:          contactFromModel(contact, req.Address),
	}

	apiResp, err := c.apiClient.RequestPickup(ctx, apiReq)
	if err != nil {
		return nil, c.wrap("SchedulePickup", err)
	}

	return &carrier.PickupResult{
		ConfirmationNumber: apiResp.DispatchConfirmationNumber,
		PickupDate:         req.Date,
	}, nil
}

func (c *Client) wrap(op string, err error) error {
	cerr := carrier.NewCarrierError(carrierName, op, "API_ERROR", "DHL Express request failed").WithCause(err)
	if apiErr, ok := err.(*APIError); ok {
		cerr.Code = apiErr.Title
		cerr.Message = apiErr.Detail
		cerr = cerr.WithStatusCode(apiErr.Status).WithRetryable(apiErr.Status >= 500)
	}
	c.logger.Error("DHL Express API error", zap.String("op", op), zap.Error(err))
	return cerr
}

func billedPrice(prices []PriceEntry) (float64, string) {
	for _, p := range prices {
		if p.CurrencyType == "BILLC" {
			return p.Price, p.Currency
		}
	}
	if len(prices) > 0 {
		return prices[0].Price, prices[0].Currency
	}
	return 0, ""
}

func contactFromModel(contact carrier.Contact, addr carrier.Address) ContactDetails {
	name := contact.Name
	if name == "" {
		name = addr.Name
	}
	return ContactDetails{
		Name:         name,
		Company:      contact.Company,
		Phone:        contact.Phone,
		Email:        contact.Email,
		AddressLine1: addr.Line1,
		AddressLine2: addr.Line2,
		CityName:     addr.City,
		PostalCode:   addr.PostalCode,
		CountryCode:  addr.CountryCode,
	}
}

var _ carrier.Carrier = (*Client)(nil)
