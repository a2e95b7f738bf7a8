package dhlexpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using the
// DHL Express MyDHL REST API.
type HTTPAPIClient struct {
	baseURL       string
	apiKey        string
	apiSecret     string
	accountNumber string
	httpClient    *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	AccountNumber string
	Timeout       time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		apiSecret:     cfg.APISecret,
		accountNumber: cfg.AccountNumber,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// GetQuote fetches shipping product quotes from the DHL Express API.
func (c *HTTPAPIClient) GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	params := url.Values{}
	params.Set("accountNumber", c.accountNumber)
	params.Set("originCountryCode", req.OriginCountryCode)
	params.Set("originCityName", req.OriginCityName)
	params.Set("destinationCountryCode", req.DestinationCountryCode)
	params.Set("destinationCityName", req.DestinationCityName)
	params.Set("weight", fmt.Sprintf("%.3f", req.Weight))
	params.Set("plannedShippingDate", req.PlannedShippingDate)
	params.Set("isCustomsDeclarable", fmt.Sprintf("%t", req.IsCustomsDeclarable))
	params.Set("unitOfMeasurement", "metric")
	if req.OriginPostalCode != "" {
		params.Set("originPostalCode", req.OriginPostalCode)
	}
	if req.DestinationPostalCode != "" {
		params.Set("destinationPostalCode", req.DestinationPostalCode)
	}
	if req.Length > 0 {
		params.Set("length", fmt.Sprintf("%.1f", req.Length))
		params.Set("width", fmt.Sprintf("%.1f", req.Width))
		params.Set("height", fmt.Sprintf("%.1f", req.Height))
	}

	var resp QuoteResponse
	if err := c.do(ctx, http.MethodGet, "/rates?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateShipment creates a new shipment via the DHL Express API.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	var resp ShipmentResponse
	if err := c.do(ctx, http.MethodPost, "/shipments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTracking retrieves tracking information from the DHL Express API.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	var wrapper struct {
		Shipments []TrackingResponse `json:"shipments"`
	}
	path := fmt.Sprintf("/shipments/%s/tracking", url.PathEscape(trackingNumber))
	if err := c.do(ctx, http.MethodGet, path, nil, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Shipments) == 0 {
		return nil, &APIError{Status: 404, Title: "NOT_FOUND", Detail: "no tracking data for waybill " + trackingNumber}
	}
	return &wrapper.Shipments[0], nil
}

// RequestPickup schedules a courier pickup via the DHL Express API.
func (c *HTTPAPIClient) RequestPickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	var resp PickupResponse
	if err := c.do(ctx, http.MethodPost, "/pickups", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelPickup cancels a pickup via the DHL Express API.
func (c *HTTPAPIClient) CancelPickup(ctx context.Context, dispatchConfirmationNumber string) (*CancelPickupResponse, error) {
	path := fmt.Sprintf("/pickups/%s", url.PathEscape(dispatchConfirmationNumber))
	var resp CancelPickupResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Title != "" {
		apiErr.Status = resp.StatusCode
		return &apiErr
	}
	return &APIError{
		Status: resp.StatusCode,
		Title:  fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Detail: string(body),
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
