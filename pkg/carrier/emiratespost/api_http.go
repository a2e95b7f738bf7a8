package emiratespost

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using the
// Emirates Post XML gateway.
type HTTPAPIClient struct {
	baseURL      string
	apiKey       string
	customerCode string
	httpClient   *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	APIKey       string
	CustomerCode string
	Timeout      time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAPIClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		customerCode: cfg.CustomerCode,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// ============================================================================
// XML wire structures
// ============================================================================

type xmlRateRequest struct {
	XMLName         xml.Name `xml:"rate-request"`
	CustomerCode    string   `xml:"customer-code"`
	OriginCity      string   `xml:"origin>city"`
	DestinationCity string   `xml:"destination>city"`
	DestinationCountry string `xml:"destination>country-code,omitempty"`
	Weight          float64  `xml:"parcel>weight"`
	DeclaredValue   float64  `xml:"parcel>declared-value,omitempty"`
}

type xmlRateResponse struct {
	XMLName xml.Name       `xml:"rate-quotes"`
	QuoteID string         `xml:"quote-id"`
	Quotes  []xmlRateQuote `xml:"quote"`
}

type xmlRateQuote struct {
	ServiceCode    string  `xml:"service-code"`
	ServiceName    string  `xml:"service-name"`
	TotalCharge    float64 `xml:"charges>total"`
	Currency       string  `xml:"charges>currency"`
	TransitDaysMin int     `xml:"service-standard>transit-days-min"`
	TransitDaysMax int     `xml:"service-standard>transit-days-max"`
}

type xmlConsignmentRequest struct {
	XMLName      xml.Name `xml:"consignment-request"`
	CustomerCode string   `xml:"customer-code"`
	ServiceCode  string   `xml:"service-code"`
	Sender       xmlParty `xml:"sender"`
	Receiver     xmlParty `xml:"receiver"`
	Weight       float64  `xml:"parcel>weight"`
	Pieces       int      `xml:"parcel>pieces"`
	Reference    string   `xml:"reference,omitempty"`
}

type xmlParty struct {
	Name     string `xml:"name"`
	Company  string `xml:"company,omitempty"`
	Address1 string `xml:"address-line-1"`
	Address2 string `xml:"address-line-2,omitempty"`
	City     string `xml:"city"`
	Emirate  string `xml:"emirate,omitempty"`
	POBox    string `xml:"po-box,omitempty"`
	Country  string `xml:"country-code"`
	Phone    string `xml:"phone"`
	Email    string `xml:"email,omitempty"`
}

type xmlConsignmentResponse struct {
	XMLName        xml.Name `xml:"consignment"`
	ConsignmentID  string   `xml:"consignment-id"`
	TrackingNumber string   `xml:"tracking-number"`
	LabelURL       string   `xml:"label-url"`
	Status         string   `xml:"status"`
	TotalCharge    float64  `xml:"charges>total"`
	Currency       string   `xml:"charges>currency"`
	DeliveryDate   string   `xml:"expected-delivery-date"`
}

type xmlTrackingResponse struct {
	XMLName        xml.Name   `xml:"tracking-summary"`
	TrackingNumber string     `xml:"tracking-number"`
	Status         string     `xml:"current-status"`
	Events         []xmlEvent `xml:"events>event"`
}

type xmlEvent struct {
	Timestamp   string `xml:"timestamp"`
	Code        string `xml:"code"`
	Description string `xml:"description"`
	Location    string `xml:"location"`
}

type xmlVoidResponse struct {
	XMLName       xml.Name `xml:"void-result"`
	ConsignmentID string   `xml:"consignment-id"`
	Status        string   `xml:"status"`
}

type xmlErrors struct {
	XMLName xml.Name   `xml:"errors"`
	Errors  []xmlError `xml:"error"`
}

type xmlError struct {
	Code        string `xml:"code"`
	Description string `xml:"description"`
}

// ============================================================================
// API Implementation
// ============================================================================

// GetRates fetches shipping rates from the Emirates Post API.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	wire := xmlRateRequest{
		CustomerCode:       c.customerCode,
		OriginCity:         req.OriginCity,
		DestinationCity:    req.DestinationCity,
		DestinationCountry: req.DestinationCountry,
		Weight:             req.Weight,
		DeclaredValue:      req.DeclaredValue,
	}

	var resp xmlRateResponse
	if err := c.do(ctx, http.MethodPost, "/ws/rate", &wire, &resp); err != nil {
		return nil, err
	}

	rates := make([]Rate, len(resp.Quotes))
	for i, q := range resp.Quotes {
		rates[i] = Rate{
			ServiceCode:    q.ServiceCode,
			ServiceName:    q.ServiceName,
			TotalCharge:    q.TotalCharge,
			Currency:       q.Currency,
			TransitDaysMin: q.TransitDaysMin,
			TransitDaysMax: q.TransitDaysMax,
		}
	}
	return &RatesResponse{QuoteID: resp.QuoteID, Rates: rates}, nil
}

// CreateConsignment creates a new consignment via the Emirates Post API.
func (c *HTTPAPIClient) CreateConsignment(ctx context.Context, req *ConsignmentRequest) (*ConsignmentResponse, error) {
	wire := xmlConsignmentRequest{
		CustomerCode: c.customerCode,
		ServiceCode:  req.ServiceCode,
		Sender:       partyToXML(req.Sender),
		Receiver:     partyToXML(req.Receiver),
		Weight:       req.Weight,
		Pieces:       req.Pieces,
		Reference:    req.Reference,
	}

	var resp xmlConsignmentResponse
	if err := c.do(ctx, http.MethodPost, "/ws/consignment", &wire, &resp); err != nil {
		return nil, err
	}

	return &ConsignmentResponse{
		ConsignmentID:  resp.ConsignmentID,
		TrackingNumber: resp.TrackingNumber,
		LabelURL:       resp.LabelURL,
		Status:         resp.Status,
		TotalCharge:    resp.TotalCharge,
		Currency:       resp.Currency,
		DeliveryDate:   resp.DeliveryDate,
	}, nil
}

// GetTracking retrieves tracking information from the Emirates Post API.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	var resp xmlTrackingResponse
	path := fmt.Sprintf("/ws/track/%s", trackingNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]TrackingEvent, len(resp.Events))
	for i, e := range resp.Events {
		events[i] = TrackingEvent(e)
	}
	return &TrackingResponse{
		TrackingNumber: resp.TrackingNumber,
		Status:         resp.Status,
		Events:         events,
	}, nil
}

// VoidConsignment voids a consignment via the Emirates Post API.
func (c *HTTPAPIClient) VoidConsignment(ctx context.Context, consignmentID string) (*VoidResponse, error) {
	var resp xmlVoidResponse
	path := fmt.Sprintf("/ws/consignment/%s", consignmentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &VoidResponse{ConsignmentID: resp.ConsignmentID, Status: resp.Status}, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := xml.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/xml")
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.parseError(resp)
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errs xmlErrors
	if err := xml.Unmarshal(body, &errs); err == nil && len(errs.Errors) > 0 {
		return &APIError{
			Code:        errs.Errors[0].Code,
			Description: errs.Errors[0].Description,
			StatusCode:  resp.StatusCode,
		}
	}
	return &APIError{
		Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Description: string(body),
		StatusCode:  resp.StatusCode,
	}
}

func partyToXML(p Party) xmlParty {
	return xmlParty(p)
}

var _ APIClient = (*HTTPAPIClient)(nil)
