package main

import (
	"context"

	"github.com/soukly/mirsal/internal/config"
	"github.com/soukly/mirsal/internal/telemetry"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/soukly/mirsal/pkg/carrier/aramex"
	"github.com/soukly/mirsal/pkg/carrier/dhlexpress"
	"github.com/soukly/mirsal/pkg/carrier/emiratespost"
	"github.com/soukly/mirsal/pkg/carrier/localcourier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return noop.NewTracerProvider().Tracer(cfg.ServiceName),
			func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

// carrierFactories maps each carrier name in the configuration store to its
// adapter constructor. Adding a carrier means adding one entry here.
func carrierFactories(logger *otelzap.Logger, tracer trace.Tracer) map[string]carrier.Factory {
	return map[string]carrier.Factory{
		"aramex": func(s carrier.Settings) (carrier.Carrier, error) {
			return aramex.New(s, logger, tracer)
		},
		"emiratespost": func(s carrier.Settings) (carrier.Carrier, error) {
			return emiratespost.New(s, logger, tracer)
		},
		"dhlexpress": func(s carrier.Settings) (carrier.Carrier, error) {
			return dhlexpress.New(s, logger, tracer)
		},
		"localcourier": func(s carrier.Settings) (carrier.Carrier, error) {
			return localcourier.New(s, logger, tracer)
		},
	}
}
