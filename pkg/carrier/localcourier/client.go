// Package localcourier implements an in-house same-city delivery fleet.
// There is no external API; rates, shipments and tracking are computed
// locally.
package localcourier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "localcourier"

// config is the shape of the configuration blob for the local fleet. The
// fleet needs no credentials; the blob only carries tuning knobs.
type config struct {
	// PerKmRate is added on top of the base fee for inter-city runs.
	PerKmRate float64 `json:"perKmRate"`
	// FreeDeliveryAbove waives the fee when the declared value exceeds it.
	FreeDeliveryAbove float64 `json:"freeDeliveryAbove"`
}

// cityDistances holds approximate road distances in km between cities the
// fleet serves. Keys are normalized lowercase pairs, smaller name first.
var cityDistances = map[string]float64{
	"abu dhabi|dubai":        140,
	"abu dhabi|sharjah":      160,
	"abu dhabi|al ain":       170,
	"dubai|sharjah":          30,
	"ajman|dubai":            40,
	"ajman|sharjah":          12,
	"al ain|dubai":           130,
	"dubai|ras al khaimah":   110,
	"ras al khaimah|sharjah": 90,
	"dubai|fujairah":         120,
}

func distanceBetween(a, b string) (float64, bool) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 0, true
	}
	key := a + "|" + b
	if b < a {
		key = b + "|" + a
	}
	d, ok := cityDistances[key]
	return d, ok
}

// Client is the local courier fleet client.
type Client struct {
	settings carrier.Settings
	cfg      config
	logger   *otelzap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates a local courier client from its persisted configuration.
func New(settings carrier.Settings, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	var cfg config
	if len(settings.Credentials) > 0 {
		if err := json.Unmarshal(settings.Credentials, &cfg); err != nil {
			return nil, fmt.Errorf("%w: localcourier config: %v", carrier.ErrConfiguration, err)
		}
	}
	return &Client{settings: settings, cfg: cfg, logger: logger, tracer: tracer, now: time.Now}, nil
}

// Name returns the carrier name.
func (c *Client) Name() string { return carrierName }

// DisplayName returns the configured display name.
func (c *Client) DisplayName() string {
	if c.settings.DisplayName != "" {
		return c.settings.DisplayName
	}
	return "Soukly Delivery"
}

// ValidateConfiguration checks the pricing baseline and service list.
func (c *Client) ValidateConfiguration(ctx context.Context) bool {
	if c.settings.Pricing.Currency == "" || c.settings.Pricing.BaseFee < 0 {
		return false
	}
	return len(c.settings.Services) > 0
}

// ServiceCodes returns the configured fleet services.
func (c *Client) ServiceCodes() []carrier.ServiceCode {
	return c.settings.Services
}

// GetRates computes rates locally. Same-city runs use the flat base fee;
// inter-city runs add a per-km surcharge from the distance table. The
// LOCAL_PICKUP service is always free. Unknown city pairs are not served.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if req.Destination.CountryCode != "" && req.Destination.CountryCode != "AE" {
		return nil, nil
	}

	distance, served := distanceBetween(req.Origin.City, req.Destination.City)
	if !served {
		c.logger.Debug("City pair not served by local fleet",
			zap.String("origin", req.Origin.City),
			zap.String("destination", req.Destination.City),
		)
		return nil, nil
	}

	provider := carrier.ProviderInfo{Name: carrierName, DisplayName: c.DisplayName()}
	rates := make([]carrier.Rate, 0, len(c.settings.Services))
	for _, svc := range c.settings.Services {
		if !svc.Active {
			continue
		}

		var amount float64
		switch {
		case svc.Code == "LOCAL_PICKUP":
			amount = 0
		case c.cfg.FreeDeliveryAbove > 0 && req.Package.DeclaredValue >= c.cfg.FreeDeliveryAbove:
			amount = 0
		default:
			amount = c.settings.Pricing.BaseFee + c.settings.Pricing.PerKgRate*req.Package.Weight
			amount += distance * c.cfg.PerKmRate
			amount = float64(int(amount*100+0.5)) / 100
		}

		rates = append(rates, carrier.Rate{
			RateID:        fmt.Sprintf("lcl-%s-%d", svc.Code, c.now().UnixNano()),
			Provider:      provider,
			ServiceCode:   svc.Code,
			ServiceName:   svc.Name,
			Cost:          carrier.Money{Amount: amount, Currency: c.settings.Pricing.Currency},
			EstimatedDays: carrier.DayRange{Min: svc.DaysMin, Max: svc.DaysMax},
			Features:      c.settings.Features,
		})
	}
	return rates, nil
}

// CreateShipment registers a local delivery and returns a synthetic
// tracking number with the dispatch time embedded in it.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	if err := c.ValidateAddress(ctx, &req.Destination); err != nil {
		return nil, err
	}

	dispatched := c.now()
	tracking := fmt.Sprintf("LCL-%d", dispatched.Unix())

	c.logger.Info("Local delivery registered",
		zap.String("order_id", req.OrderID),
		zap.String("tracking_number", tracking),
	)

	eta := dispatched.Add(deliveryWindow(req.ServiceCode))
	rates, _ := c.GetRates(ctx, &carrier.RateRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		Package:     firstPackage(req.Packages),
	})
	var cost carrier.Money
	for _, r := range rates {
		if r.ServiceCode == req.ServiceCode {
			cost = r.Cost
			break
		}
	}

	return &carrier.ShipmentResult{
		ShipmentID:        tracking,
		TrackingNumber:    tracking,
		Status:            carrier.StatusCreated,
		EstimatedDelivery: &eta,
		Cost:              cost,
	}, nil
}

// TrackShipment reconstructs the delivery timeline from the dispatch time
// embedded in the tracking number. The fleet has no telemetry; progress is
// inferred from elapsed time.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	dispatched, err := parseTrackingNumber(trackingNumber)
	if err != nil {
		return nil, carrier.NewCarrierError(carrierName, "TrackShipment", "INVALID_TRACKING",
			"unrecognized tracking number "+trackingNumber).WithCause(carrier.ErrShipmentNotFound)
	}

	elapsed := c.now().Sub(dispatched)
	events := []carrier.TrackingEvent{
		{Timestamp: dispatched, Status: carrier.StatusCreated, Description: "Delivery registered"},
	}
	status := carrier.StatusCreated

	stages := []struct {
		after       time.Duration
		status      carrier.TrackingStatus
		description string
	}{
		{30 * time.Minute, carrier.StatusPickedUp, "Courier collected the package"},
		{2 * time.Hour, carrier.StatusOutForDelivery, "Courier en route to recipient"},
		{6 * time.Hour, carrier.StatusDelivered, "Package delivered"},
	}
	for _, s := range stages {
		if elapsed < s.after {
			break
		}
		events = append(events, carrier.TrackingEvent{
			Timestamp:   dispatched.Add(s.after),
			Status:      s.status,
			Description: s.description,
		})
		status = s.status
	}

	result := &carrier.TrackingResult{
		TrackingNumber: trackingNumber,
		Status:         status,
		Events:         events,
	}
	if status == carrier.StatusDelivered {
		delivered := events[len(events)-1].Timestamp
		result.ActualDelivery = &delivered
	} else {
		eta := dispatched.Add(6 * time.Hour)
		result.EstimatedDelivery = &eta
	}
	return result, nil
}

// CancelShipment cancels a local delivery. Once the simulated courier is
// out for delivery the run can no longer be called back.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) (*carrier.CancelResult, error) {
	dispatched, err := parseTrackingNumber(shipmentID)
	if err != nil {
		return nil, carrier.NewCarrierError(carrierName, "CancelShipment", "INVALID_TRACKING",
			"unrecognized tracking number "+shipmentID).WithCause(carrier.ErrShipmentNotFound)
	}

	if c.now().Sub(dispatched) >= 2*time.Hour {
		return nil, carrier.NewCarrierError(carrierName, "CancelShipment", "OUT_FOR_DELIVERY",
			"courier is already out for delivery").WithCause(carrier.ErrCancellationNotAllowed)
	}

	return &carrier.CancelResult{
		ShipmentID:         shipmentID,
		Status:             carrier.StatusCancelled,
		ConfirmationNumber: shipmentID + "-CXL",
	}, nil
}

// ValidateAddress checks the address lies inside the served area.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) error {
	if addr.CountryCode != "" && addr.CountryCode != "AE" {
		return fmt.Errorf("%w: local fleet delivers inside the UAE only", carrier.ErrInvalidAddress)
	}
	if addr.City == "" {
		return fmt.Errorf("%w: city is required", carrier.ErrInvalidAddress)
	}
	if _, served := distanceBetween(addr.City, "Dubai"); !served {
		return fmt.Errorf("%w: city %q is outside the served area", carrier.ErrInvalidAddress, addr.City)
	}
	if addr.Line1 == "" {
		return fmt.Errorf("%w: street address is required", carrier.ErrInvalidAddress)
	}
	return nil
}

// SchedulePickup books a same-day pickup slot with the fleet dispatcher.
func (c *Client) SchedulePickup(ctx context.Context, req *carrier.PickupRequest) (*carrier.PickupResult, error) {
	if err := c.ValidateAddress(ctx, &req.Address); err != nil {
		return nil, err
	}
	return &carrier.PickupResult{
		ConfirmationNumber: fmt.Sprintf("LCLP-%d", c.now().UnixNano()%1000000),
		PickupDate:         req.Date,
	}, nil
}

func parseTrackingNumber(trackingNumber string) (time.Time, error) {
	raw, ok := strings.CutPrefix(trackingNumber, "LCL-")
	if !ok {
		return time.Time{}, fmt.Errorf("missing LCL prefix")
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}

func deliveryWindow(serviceCode string) time.Duration {
	if serviceCode == "LOCAL_EXPRESS" {
		return 3 * time.Hour
	}
	return 6 * time.Hour
}

func firstPackage(packages []carrier.Package) carrier.Package {
	if len(packages) > 0 {
		return packages[0]
	}
	return carrier.Package{}
}

var _ carrier.Carrier = (*Client)(nil)
