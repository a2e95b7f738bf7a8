// Package server exposes the fulfillment broker over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soukly/mirsal/internal/fulfillment"
	"github.com/soukly/mirsal/internal/store"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the fulfillment service.
type Server struct {
	port            int
	registry        *carrier.Registry
	aggregator      *carrier.Aggregator
	service         *fulfillment.Service
	reconciler      *fulfillment.Reconciler
	orders          *store.OrderRepository
	deliveryOptions *store.DeliveryOptionRepository
	logger          *otelzap.Logger
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Deps bundles the collaborators the server dispatches to.
type Deps struct {
	Registry        *carrier.Registry
	Aggregator      *carrier.Aggregator
	Service         *fulfillment.Service
	Reconciler      *fulfillment.Reconciler
	Orders          *store.OrderRepository
	DeliveryOptions *store.DeliveryOptionRepository
}

// New creates a new server instance.
func New(cfg Config, deps Deps, logger *otelzap.Logger) *Server {
	return &Server{
		port:            cfg.Port,
		registry:        deps.Registry,
		aggregator:      deps.Aggregator,
		service:         deps.Service,
		reconciler:      deps.Reconciler,
		orders:          deps.Orders,
		deliveryOptions: deps.DeliveryOptions,
		logger:          logger,
	}
}

// Handler builds the route table. Exposed separately from Run so tests can
// drive the mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/carriers", s.handleListCarriers)
	mux.HandleFunc("POST /v1/rates", s.handleGetRates)

	mux.HandleFunc("POST /v1/shipments", s.handleCreateShipment)
	mux.HandleFunc("GET /v1/tracking/{trackingNumber}", s.handleTracking)
	mux.HandleFunc("POST /v1/shipments/{trackingNumber}/cancel", s.handleCancelShipment)

	mux.HandleFunc("GET /v1/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("POST /v1/orders/{id}/status", s.handleUpdateOrderStatus)

	mux.HandleFunc("GET /v1/users/{userID}/delivery-options", s.handleListDeliveryOptions)
	mux.HandleFunc("POST /v1/users/{userID}/delivery-options", s.handleCreateDeliveryOption)
	mux.HandleFunc("POST /v1/users/{userID}/delivery-options/{optionID}/default", s.handleSetDefaultDeliveryOption)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"carriers": s.registry.Count(),
	})
}

type carrierSummary struct {
	Name        string                `json:"name"`
	DisplayName string                `json:"displayName"`
	Services    []carrier.ServiceCode `json:"services"`
}

func (s *Server) handleListCarriers(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	summaries := make([]carrierSummary, 0, len(all))
	for _, c := range all {
		summaries = append(summaries, carrierSummary{
			Name:        c.Name(),
			DisplayName: c.DisplayName(),
			Services:    c.ServiceCodes(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"carriers": summaries})
}

type rateRequest struct {
	Origin      carrier.Address `json:"origin"`
	Destination carrier.Address `json:"destination"`
	Package     carrier.Package `json:"package"`
	// Carrier limits the quote to one named carrier.
	Carrier string `json:"carrier,omitempty"`
	// Strategy picks a single winning rate: "cheapest" or "fastest".
	Strategy string `json:"strategy,omitempty"`
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	carrierReq := &carrier.RateRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		Package:     req.Package,
	}

	switch {
	case req.Carrier != "":
		rates, err := s.aggregator.GetRatesFrom(ctx, req.Carrier, carrierReq)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
	case req.Strategy == "cheapest":
		rate, err := s.aggregator.CheapestRate(ctx, carrierReq)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rate": rate})
	case req.Strategy == "fastest":
		rate, err := s.aggregator.FastestRate(ctx, carrierReq)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rate": rate})
	case req.Strategy != "":
		writeError(w, http.StatusBadRequest, "unknown strategy "+req.Strategy)
	default:
		rates, err := s.aggregator.GetAllRates(ctx, carrierReq)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
	}
}

type createShipmentRequest struct {
	OrderRef    string            `json:"orderRef"`
	Carrier     string            `json:"carrier"`
	ServiceCode string            `json:"serviceCode"`
	Sender      carrier.Contact   `json:"sender"`
	Origin      carrier.Address   `json:"origin"`
	Recipient   carrier.Contact   `json:"recipient"`
	Destination carrier.Address   `json:"destination"`
	Packages    []carrier.Package `json:"packages"`
	Reference   string            `json:"reference,omitempty"`
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.OrderRef == "" || req.Carrier == "" || len(req.Packages) == 0 {
		writeError(w, http.StatusBadRequest, "orderRef, carrier and packages are required")
		return
	}

	result, err := s.service.CreateShipment(r.Context(), &fulfillment.CreateShipmentInput{
		OrderRef:     req.OrderRef,
		ProviderName: req.Carrier,
		ServiceCode:  req.ServiceCode,
		Sender:       req.Sender,
		Origin:       req.Origin,
		Recipient:    req.Recipient,
		Destination:  req.Destination,
		Packages:     req.Packages,
		Reference:    req.Reference,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"shipment": result})
}

type shipmentView struct {
	OrderRef          string              `json:"orderRef"`
	Carrier           string              `json:"carrier"`
	ServiceCode       string              `json:"serviceCode,omitempty"`
	TrackingNumber    string              `json:"trackingNumber"`
	TrackingURL       string              `json:"trackingUrl,omitempty"`
	Status            string              `json:"status"`
	EstimatedDelivery *time.Time          `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time          `json:"actualDelivery,omitempty"`
	Events            []shipmentEventView `json:"events"`
}

type shipmentEventView struct {
	OccurredAt  time.Time `json:"occurredAt"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

func viewShipment(sh *store.Shipment) shipmentView {
	view := shipmentView{
		OrderRef:          sh.OrderRef,
		Carrier:           sh.Carrier,
		ServiceCode:       sh.ServiceCode,
		TrackingNumber:    sh.TrackingNumber,
		TrackingURL:       sh.TrackingURL,
		Status:            sh.Status,
		EstimatedDelivery: sh.EstimatedDelivery,
		ActualDelivery:    sh.ActualDelivery,
		Events:            make([]shipmentEventView, 0, len(sh.Events)),
	}
	for _, e := range sh.Events {
		view.Events = append(view.Events, shipmentEventView{
			OccurredAt:  e.OccurredAt,
			Status:      e.Status,
			Description: e.Description,
			Location:    e.Location,
		})
	}
	return view
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	trackingNumber := r.PathValue("trackingNumber")

	shipment, err := s.service.RefreshTracking(r.Context(), trackingNumber)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tracking": viewShipment(shipment)})
}

func (s *Server) handleCancelShipment(w http.ResponseWriter, r *http.Request) {
	trackingNumber := r.PathValue("trackingNumber")

	result, err := s.service.CancelShipment(r.Context(), trackingNumber)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cancellation": result})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("id")
	id, err := uuid.Parse(ref)
	if err != nil {
		writeError(w, http.StatusBadRequest, "order id must be a UUID")
		return
	}

	order, err := s.orders.FindByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status, err := s.reconciler.CurrentStatus(r.Context(), ref)
	if err != nil && !errors.Is(err, fulfillment.ErrNoBackingRecord) {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":           order,
		"canonicalStatus": status,
	})
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	ActorRole string `json:"actorRole,omitempty"`
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.ActorRole == "" {
		req.ActorRole = "system"
	}

	status, err := s.reconciler.UpdateStatus(r.Context(), ref,
		fulfillment.Status(req.Status), req.Note, req.ActorRole,
		r.Header.Get("Idempotency-Key"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": status})
}

type deliveryOptionRequest struct {
	Carrier     string `json:"carrier"`
	ServiceCode string `json:"serviceCode,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
	Settings    string `json:"settings,omitempty"`
}

func (s *Server) handleListDeliveryOptions(w http.ResponseWriter, r *http.Request) {
	options, err := s.deliveryOptions.FindByUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deliveryOptions": options})
}

func (s *Server) handleCreateDeliveryOption(w http.ResponseWriter, r *http.Request) {
	var req deliveryOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Carrier == "" {
		writeError(w, http.StatusBadRequest, "carrier is required")
		return
	}

	option := &store.DeliveryOption{
		UserID:      r.PathValue("userID"),
		Carrier:     req.Carrier,
		ServiceCode: req.ServiceCode,
		IsDefault:   req.IsDefault,
		Settings:    req.Settings,
	}
	if err := s.deliveryOptions.Create(r.Context(), option); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"deliveryOption": option})
}

func (s *Server) handleSetDefaultDeliveryOption(w http.ResponseWriter, r *http.Request) {
	optionID, err := uuid.Parse(r.PathValue("optionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "option id must be a UUID")
		return
	}

	if err := s.deliveryOptions.SetDefault(r.Context(), r.PathValue("userID"), optionID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"default": optionID})
}

// writeDomainError maps domain error kinds to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *fulfillment.InvalidTransitionError
	var integrity *fulfillment.DataIntegrityError
	var carrierErr *carrier.CarrierError

	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, invalid.Error())
	case errors.As(err, &integrity):
		writeError(w, http.StatusUnprocessableEntity, integrity.Error())
	case errors.Is(err, fulfillment.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fulfillment.ErrNoBackingRecord),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, carrier.ErrShipmentNotFound),
		errors.Is(err, carrier.ErrCarrierNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, carrier.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, carrier.ErrCancellationNotAllowed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, carrier.ErrCarrierUnhealthy), errors.Is(err, carrier.ErrCarrierUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &carrierErr):
		writeError(w, http.StatusBadGateway, carrierErr.Error())
	default:
		s.logger.Ctx(r.Context()).Error("Unhandled request error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
