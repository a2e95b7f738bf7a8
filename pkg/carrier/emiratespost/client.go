// Package emiratespost provides integration with the Emirates Post API.
package emiratespost

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

const carrierName = "emiratespost"

// credentials is the shape of the opaque configuration blob for Emirates
// Post.
type credentials struct {
	APIKey       string `json:"apiKey"`
	CustomerCode string `json:"customerCode"`
	BaseURL      string `json:"baseURL"`
	UseMock      bool   `json:"useMock"`
}

// statusTable maps Emirates Post event codes into the shared tracking
// enumeration.
var statusTable = map[string]carrier.TrackingStatus{
	"ITEM_POSTED":          carrier.StatusCreated,
	"ITEM_COLLECTED":       carrier.StatusPickedUp,
	"ITEM_IN_TRANSIT":      carrier.StatusInTransit,
	"ITEM_OUT_FOR_DELIVERY": carrier.StatusOutForDelivery,
	"ITEM_DELIVERED":       carrier.StatusDelivered,
	"DELIVERY_FAILED":      carrier.StatusException,
	"ITEM_RETURNED":        carrier.StatusReturned,
	"ITEM_VOIDED":          carrier.StatusCancelled,
}

// Client is the Emirates Post carrier client.
type Client struct {
	settings  carrier.Settings
	creds     credentials
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Emirates Post client from its persisted configuration.
func New(settings carrier.Settings, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	var creds credentials
	if len(settings.Credentials) > 0 {
		if err := json.Unmarshal(settings.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("%w: emiratespost credentials: %v", carrier.ErrConfiguration, err)
		}
	}

	var apiClient APIClient
	if creds.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      creds.BaseURL,
			APIKey:       creds.APIKey,
			CustomerCode: creds.CustomerCode,
			Timeout:      30 * time.Second,
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

// NewWithAPIClient creates an Emirates Post client with a custom API client.
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
	return "Emirates Post"
}

// ValidateConfiguration checks the pricing baseline and service list.
func (c *Client) ValidateConfiguration(ctx context.Context) bool {
	if c.settings.Pricing.Currency == "" || c.settings.Pricing.BaseFee < 0 {
		return false
	}
	return len(c.settings.Services) > 0
}

// ServiceCodes returns the configured Emirates Post services.
func (c *Client) ServiceCodes() []carrier.ServiceCode {
	return c.settings.Services
}

func (c *Client) hasLiveCredentials() bool {
	return c.creds.UseMock || (c.creds.APIKey != "" && c.creds.CustomerCode != "")
}

// GetRates returns shipping rates from Emirates Post, falling back to the
// locally computed default rates when the API is unreachable or
// unconfigured.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if !c.hasLiveCredentials() {
		c.logger.Debug("Emirates Post credentials not configured, using default rates")
		return carrier.DefaultRates(c.settings, req), nil
	}

	c.logger.Info("Getting Emirates Post rates",
		zap.String("origin_city", req.Origin.City),
		zap.String("destination_city", req.Destination.City),
	)

	apiReq := &RatesRequest{
		OriginCity:      req.Origin.City,
		DestinationCity: req.Destination.City,
		Weight:          req.Package.Weight,
		DeclaredValue:   req.Package.DeclaredValue,
	}
	if req.Destination.CountryCode != "" && req.Destination.CountryCode != "AE" {
		apiReq.DestinationCountry = req.Destination.CountryCode
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Warn("Emirates Post API error, falling back to default rates", zap.Error(err))
		return carrier.DefaultRates(c.settings, req), nil
	}

	provider := carrier.ProviderInfo{Name: carrierName, DisplayName: c.DisplayName()}
	rates := make([]carrier.Rate, 0, len(apiResp.Rates))
	for _, r := range apiResp.Rates {
		rates = append(rates, carrier.Rate{
			RateID:      fmt.Sprintf("ep-%s-%d", r.ServiceCode, time.Now().UnixNano()),
			Provider:    provider,
			ServiceCode: r.ServiceCode,
			ServiceName: r.ServiceName,
			Cost:        carrier.Money{Amount: r.TotalCharge, Currency: r.Currency},
			EstimatedDays: carrier.DayRange{
				Min: r.TransitDaysMin,
				Max: r.TransitDaysMax,
			},
			Features: c.settings.Features,
		})
	}
	return rates, nil
}

// CreateShipment creates a consignment with Emirates Post.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	c.logger.Info("Creating Emirates Post consignment",
		zap.String("order_id", req.OrderID),
		zap.String("service_code", req.ServiceCode),
	)

	var weight float64
	for _, p := range req.Packages {
		weight += p.Weight
	}

	apiReq := &ConsignmentRequest{
		ServiceCode: req.ServiceCode,
		Sender:      partyFromModel(req.Sender, req.Origin),
		Receiver:    partyFromModel(req.Recipient, req.Destination),
		Weight:      weight,
		Pieces:      len(req.Packages),
		Reference:   req.Reference,
	}

	apiResp, err := c.apiClient.CreateConsignment(ctx, apiReq)
	if err != nil {
		return nil, c.wrap("CreateShipment", err)
	}

	var eta *time.Time
	if apiResp.DeliveryDate != "" {
		if t, err := time.Parse("2006-01-02", apiResp.DeliveryDate); err == nil {
			eta = &t
		}
	}

	return &carrier.ShipmentResult{
		ShipmentID:        apiResp.ConsignmentID,
		TrackingNumber:    apiResp.TrackingNumber,
		TrackingURL:       "https://www.emiratespost.ae/track?number=" + apiResp.TrackingNumber,
		LabelURL:          apiResp.LabelURL,
		Status:            carrier.StatusCreated,
		EstimatedDelivery: eta,
		Cost:              carrier.Money{Amount: apiResp.TotalCharge, Currency: apiResp.Currency},
	}, nil
}

// TrackShipment returns normalized tracking for a consignment.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		return nil, c.wrap("TrackShipment", err)
	}

	events := make([]carrier.TrackingEvent, 0, len(apiResp.Events))
	for _, e := range apiResp.Events {
		ts, _ := time.Parse(time.RFC3339, e.Timestamp)
		events = append(events, carrier.TrackingEvent{
			Timestamp:   ts,
			Status:      carrier.MapStatus(statusTable, e.Code),
			Description: e.Description,
			Location:    e.Location,
		})
	}

	result := &carrier.TrackingResult{
		TrackingNumber: apiResp.TrackingNumber,
		Status:         carrier.MapStatus(statusTable, apiResp.Status),
		Events:         events,
	}
	if result.Status == carrier.StatusDelivered && len(events) > 0 {
		last := events[len(events)-1].Timestamp
		result.ActualDelivery = &last
	}
	return result, nil
}

// CancelShipment voids a consignment with Emirates Post.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	apiResp, err := c.apiClient.VoidConsignment(ctx, shipmentID)
	if err != nil {
		return nil, c.wrap("CancelShipment", err)
	}
	return &carrier.CancelResult{
		ShipmentID:         apiResp.ConsignmentID,
		Status:             carrier.StatusCancelled,
		ConfirmationNumber: apiResp.ConsignmentID + "-VOID",
	}, nil
}

// ValidateAddress performs local completeness checks. Emirates Post has no
// address validation endpoint; PO box or street address is required.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) error {
	if addr.City == "" {
		return fmt.Errorf("%w: city is required", carrier.ErrInvalidAddress)
	}
	if addr.Line1 == "" && addr.PostalCode == "" {
		return fmt.Errorf("%w: street address or PO box is required", carrier.ErrInvalidAddress)
	}
	return nil
}

// SchedulePickup is not offered by Emirates Post; consignments are dropped
// at a counter.
func (c *Client) SchedulePickup(ctx context.Context, req *carrier.PickupRequest) (*carrier.PickupResult, error) {
	return nil, carrier.NewCarrierError(carrierName, "SchedulePickup", "NOT_SUPPORTED",
		"Emirates Post does not support scheduled pickups")
}

func (c *Client) wrap(op string, err error) error {
	cerr := carrier.NewCarrierError(carrierName, op, "API_ERROR", "Emirates Post request failed").WithCause(err)
	if apiErr, ok := err.(*APIError); ok {
		cerr.Code = apiErr.Code
		cerr.Message = apiErr.Description
		cerr = cerr.WithStatusCode(apiErr.StatusCode).WithRetryable(apiErr.StatusCode >= 500)
	}
	c.logger.Error("Emirates Post API error", zap.String("op", op), zap.Error(err))
	return cerr
}

func partyFromModel(contact carrier.Contact, addr carrier.Address) Party {
	name := contact.Name
	if name == "" {
		name = addr.Name
	}
	return Party{
		Name:     name,
		Company:  contact.Company,
		Address1: addr.Line1,
		Address2: addr.Line2,
		City:     addr.City,
		Emirate:  addr.Emirate,
		POBox:    addr.PostalCode,
		Country:  addr.CountryCode,
		Phone:    contact.Phone,
		Email:    contact.Email,
	}
}

var _ carrier.Carrier = (*Client)(nil)
