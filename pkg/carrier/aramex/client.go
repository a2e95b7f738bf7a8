// Package aramex provides integration with the Aramex shipping API.
package aramex

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

const carrierName = "aramex"

// credentials is the shape of the opaque configuration blob for Aramex.
type credentials struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	AccountNumber string `json:"accountNumber"`
	AccountPin    string `json:"accountPin"`
	AccountEntity string `json:"accountEntity"`
	BaseURL       string `json:"baseURL"`
	UseMock       bool   `json:"useMock"`
}

// statusTable maps Aramex update codes into the shared tracking enumeration.
var statusTable = map[string]carrier.TrackingStatus{
	"SH001": carrier.StatusCreated,
	"SH003": carrier.StatusPickedUp,
	"SH005": carrier.StatusInTransit,
	"SH014": carrier.StatusInTransit,
	"SH021": carrier.StatusOutForDelivery,
	"SH006": carrier.StatusDelivered,
	"SH033": carrier.StatusException,
	"SH069": carrier.StatusReturned,
	"SH234": carrier.StatusCancelled,
}

// Client is the Aramex carrier client.
type Client struct {
	settings  carrier.Settings
	creds     credentials
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Aramex client from its persisted configuration.
// If the credential blob sets useMock, a mock API client is used.
func New(settings carrier.Settings, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	var creds credentials
	if len(settings.Credentials) > 0 {
		if err := json.Unmarshal(settings.Credentials, &creds); err != nil {
			return nil, fmt.Errorf("%w: aramex credentials: %v", carrier.ErrConfiguration, err)
		}
	}

	var apiClient APIClient
	if creds.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: creds.BaseURL,
			ClientInfo: ClientInfo{
				UserName:      creds.Username,
				Password:      creds.Password,
				AccountNumber: creds.AccountNumber,
				AccountPin:    creds.AccountPin,
				AccountEntity: creds.AccountEntity,
				CountryCode:   "AE",
				Version:       "v1.0",
			},
			Timeout: 30 * time.Second,
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

// NewWithAPIClient creates an Aramex client with a custom API client.
// This is useful for injecting mock clients in tests.
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
	return "Aramex"
}

// ValidateConfiguration reports whether the adapter can serve requests. A
// carrier without live credentials is still valid: it serves default rates.
func (c *Client) ValidateConfiguration(ctx context.Context) bool {
	if c.settings.Pricing.Currency == "" || c.settings.Pricing.BaseFee < 0 {
		return false
	}
	return len(c.settings.Services) > 0
}

// ServiceCodes returns the configured Aramex services.
func (c *Client) ServiceCodes() []carrier.ServiceCode {
	return c.settings.Services
}

// hasLiveCredentials reports whether the external API can be called at all.
func (c *Client) hasLiveCredentials() bool {
	return c.creds.UseMock || (c.creds.Username != "" && c.creds.Password != "" && c.creds.AccountNumber != "")
}

// GetRates returns shipping rates from Aramex, falling back to the locally
// computed default rates when the API is unreachable or unconfigured.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if !c.hasLiveCredentials() {
		c.logger.Debug("Aramex credentials not configured, using default rates")
		return carrier.DefaultRates(c.settings, req), nil
	}

	c.logger.Info("Getting Aramex rates",
		zap.String("origin_city", req.Origin.City),
		zap.String("destination_city", req.Destination.City),
		zap.Float64("weight_kg", req.Package.Weight),
	)

	apiReq := &RateRequest{
		Origin:      addressToAPI(req.Origin),
		Destination: addressToAPI(req.Destination),
		Details: ShipmentDetails{
			ActualWeight:   Weight{Value: req.Package.Weight, Unit: "KG"},
			NumberOfPieces: 1,
			ProductGroup:   productGroup(req.Origin, req.Destination),
			PaymentType:    "P",
			GoodsValue:     &MoneyValue{Amount: req.Package.DeclaredValue, Currency: req.Package.Currency},
		},
	}

	apiResp, err := c.apiClient.CalculateRate(ctx, apiReq)
	if err != nil {
		c.logger.Warn("Aramex API error, falling back to default rates", zap.Error(err))
		return carrier.DefaultRates(c.settings, req), nil
	}

	return c.ratesToModel(apiResp), nil
}

// CreateShipment creates a shipment with Aramex.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	c.logger.Info("Creating Aramex shipment",
		zap.String("order_id", req.OrderID),
		zap.String("service_code", req.ServiceCode),
	)

	apiReq := &ShipmentRequest{
		Shipper: PartyInfo{
			Name:    req.Sender.Name,
			Company: req.Sender.Company,
			Phone:   req.Sender.Phone,
			Email:   req.Sender.Email,
			Address: addressToAPI(req.Origin),
		},
		Consignee: PartyInfo{
			Name:    req.Recipient.Name,
			Company: req.Recipient.Company,
			Phone:   req.Recipient.Phone,
			Email:   req.Recipient.Email,
			Address: addressToAPI(req.Destination),
		},
		Details: ShipmentDetails{
			ActualWeight:   Weight{Value: totalWeight(req.Packages), Unit: "KG"},
			NumberOfPieces: len(req.Packages),
			ProductGroup:   productGroup(req.Origin, req.Destination),
			ProductType:    req.ServiceCode,
			PaymentType:    "P",
		},
		Reference: req.Reference,
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
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
		ShipmentID:        apiResp.ShipmentID,
		TrackingNumber:    apiResp.WaybillNumber,
		TrackingURL:       "https://www.aramex.com/track/results?ShipmentNumber=" + apiResp.WaybillNumber,
		LabelURL:          apiResp.LabelURL,
		Status:            carrier.StatusCreated,
		EstimatedDelivery: eta,
		Cost:              carrier.Money{Amount: apiResp.ChargedAmount.Amount, Currency: apiResp.ChargedAmount.Currency},
	}, nil
}

// TrackShipment returns normalized tracking for a waybill.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	apiResp, err := c.apiClient.TrackShipments(ctx, trackingNumber)
	if err != nil {
		return nil, c.wrap("TrackShipment", err)
	}

	events := make([]carrier.TrackingEvent, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		ts, _ := time.Parse(time.RFC3339, r.UpdateDateTime)
		events = append(events, carrier.TrackingEvent{
			Timestamp:   ts,
			Status:      carrier.MapStatus(statusTable, r.UpdateCode),
			Description: r.UpdateDescription,
			Location:    r.UpdateLocation,
		})
	}

	result := &carrier.TrackingResult{
		TrackingNumber: apiResp.WaybillNumber,
		Status:         carrier.MapStatus(statusTable, apiResp.UpdateCode),
		Events:         events,
	}
	if result.Status == carrier.StatusDelivered && len(events) > 0 {
		last := events[len(events)-1].Timestamp
		result.ActualDelivery = &last
	}
	return result, nil
}

// CancelShipment cancels a shipment with Aramex.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	apiResp, err := c.apiClient.CancelShipment(ctx, shipmentID)
	if err != nil {
		return nil, c.wrap("CancelShipment", err)
	}
	return &carrier.CancelResult{
		ShipmentID:         apiResp.ShipmentID,
		Status:             carrier.StatusCancelled,
		ConfirmationNumber: apiResp.ShipmentID + "-VOID",
	}, nil
}

// ValidateAddress checks the address against the Aramex location API.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) error {
	if addr.City == "" || addr.CountryCode == "" {
		return fmt.Errorf("%w: city and country are required", carrier.ErrInvalidAddress)
	}
	if !c.hasLiveCredentials() {
		return nil
	}

	api := addressToAPI(*addr)
	resp, err := c.apiClient.ValidateAddress(ctx, &api)
	if err != nil {
		return c.wrap("ValidateAddress", err)
	}
	if !resp.Valid {
		return fmt.Errorf("%w: rejected by carrier", carrier.ErrInvalidAddress)
	}
	return nil
}

// SchedulePickup books a pickup window with Aramex.
func (c *Client) SchedulePickup(ctx context.Context, req *carrier.PickupRequest) (*carrier.PickupResult, error) {
	apiReq := &PickupRequest{
		Address:     addressToAPI(req.Address),
		PickupDate:  req.Date.Format("2006-01-02"),
		ReadyTime:   req.ReadyTime,
		ClosingTime: req.ClosingTime,
		Pieces:      req.Packages,
	}

	apiResp, err := c.apiClient.CreatePickup(ctx, apiReq)
	if err != nil {
		return nil, c.wrap("SchedulePickup", err)
	}
	return &carrier.PickupResult{
		ConfirmationNumber: apiResp.ReferenceNumber,
		PickupDate:         req.Date,
	}, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func (c *Client) wrap(op string, err error) error {
	cerr := carrier.NewCarrierError(carrierName, op, "API_ERROR", "Aramex request failed").WithCause(err)
	if apiErr, ok := err.(*APIError); ok {
		cerr.Code = apiErr.Code
		cerr.Message = apiErr.Message
		cerr = cerr.WithStatusCode(apiErr.StatusCode).WithRetryable(apiErr.StatusCode >= 500)
	}
	c.logger.Error("Aramex API error", zap.String("op", op), zap.Error(err))
	return cerr
}

func (c *Client) ratesToModel(resp *RateResponse) []carrier.Rate {
	provider := carrier.ProviderInfo{Name: carrierName, DisplayName: c.DisplayName()}
	rates := make([]carrier.Rate, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		rates = append(rates, carrier.Rate{
			RateID:      fmt.Sprintf("arx-%s-%d", r.ProductType, time.Now().UnixNano()),
			Provider:    provider,
			ServiceCode: r.ProductType,
			ServiceName: r.ProductName,
			Cost:        carrier.Money{Amount: r.TotalAmount.Amount, Currency: r.TotalAmount.Currency},
			EstimatedDays: carrier.DayRange{
				Min: r.TransitDaysMin,
				Max: r.TransitDaysMax,
			},
			Features: c.settings.Features,
		})
	}
	return rates
}

func addressToAPI(addr carrier.Address) AddressInfo {
	return AddressInfo{
		Line1:       addr.Line1,
		Line2:       addr.Line2,
		City:        addr.City,
		StateCode:   addr.Emirate,
		PostCode:    addr.PostalCode,
		CountryCode: addr.CountryCode,
	}
}

func productGroup(origin, destination carrier.Address) string {
	if origin.CountryCode != "" && destination.CountryCode != "" && origin.CountryCode != destination.CountryCode {
		return "EXP"
	}
	return "DOM"
}

func totalWeight(pkgs []carrier.Package) float64 {
	var total float64
	for _, p := range pkgs {
		total += p.Weight
	}
	return total
}

var _ carrier.Carrier = (*Client)(nil)
