package aramex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using the
// Aramex JSON REST API.
type HTTPAPIClient struct {
	baseURL    string
	clientInfo ClientInfo
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL    string
	ClientInfo ClientInfo
	Timeout    time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		baseURL:    cfg.BaseURL,
		clientInfo: cfg.ClientInfo,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CalculateRate fetches shipping rates from the Aramex API.
func (c *HTTPAPIClient) CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	req.ClientInfo = c.clientInfo

	var resp RateResponse
	if err := c.post(ctx, "/RateCalculator/Service_1_0.svc/json/CalculateRate", req, &resp); err != nil {
		return nil, err
	}
	if resp.HasErrors {
		return nil, notificationError(resp.Notifications)
	}
	return &resp, nil
}

// CreateShipment creates a new shipment via the Aramex API.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	req.ClientInfo = c.clientInfo

	var resp ShipmentResponse
	if err := c.post(ctx, "/Shipping/Service_1_0.svc/json/CreateShipments", req, &resp); err != nil {
		return nil, err
	}
	if resp.HasErrors {
		return nil, notificationError(resp.Notifications)
	}
	return &resp, nil
}

// TrackShipments retrieves tracking information from the Aramex API.
func (c *HTTPAPIClient) TrackShipments(ctx context.Context, waybill string) (*TrackingResponse, error) {
	body := map[string]interface{}{
		"ClientInfo": c.clientInfo,
		"Shipments":  []string{waybill},
	}

	var resp TrackingResponse
	if err := c.post(ctx, "/Tracking/Service_1_0.svc/json/TrackShipments", body, &resp); err != nil {
		return nil, err
	}
	if resp.HasErrors {
		return nil, &APIError{Code: "TRACKING_ERROR", Message: "tracking lookup failed"}
	}
	return &resp, nil
}

// CancelShipment cancels a shipment via the Aramex API.
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, shipmentID string) (*CancelResponse, error) {
	body := map[string]interface{}{
		"ClientInfo": c.clientInfo,
		"ShipmentID": shipmentID,
	}

	var resp CancelResponse
	if err := c.post(ctx, "/Shipping/Service_1_0.svc/json/CancelShipment", body, &resp); err != nil {
		return nil, err
	}
	if resp.HasErrors {
		return nil, notificationError(resp.Notifications)
	}
	return &resp, nil
}

// ValidateAddress checks an address via the Aramex location API.
func (c *HTTPAPIClient) ValidateAddress(ctx context.Context, addr *AddressInfo) (*AddressValidationResponse, error) {
	body := map[string]interface{}{
		"ClientInfo": c.clientInfo,
		"Address":    addr,
	}

	var resp AddressValidationResponse
	if err := c.post(ctx, "/Location/Service_1_0.svc/json/ValidateAddress", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePickup schedules a pickup via the Aramex API.
func (c *HTTPAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	req.ClientInfo = c.clientInfo

	var resp PickupResponse
	if err := c.post(ctx, "/Shipping/Service_1_0.svc/json/CreatePickup", req, &resp); err != nil {
		return nil, err
	}
	if resp.HasErrors {
		return nil, notificationError(resp.Notifications)
	}
	return &resp, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    string(raw),
			StatusCode: resp.StatusCode,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func notificationError(notes []Notification) error {
	if len(notes) > 0 {
		return &APIError{Code: notes[0].Code, Message: notes[0].Message}
	}
	return &APIError{Code: "UNKNOWN", Message: "request rejected"}
}

var _ APIClient = (*HTTPAPIClient)(nil)
