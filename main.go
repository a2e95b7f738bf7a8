package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soukly/mirsal/internal/fulfillment"
	"github.com/soukly/mirsal/internal/notify"
	"github.com/soukly/mirsal/internal/server"
	"github.com/soukly/mirsal/internal/store"
	"github.com/soukly/mirsal/internal/telemetry"
	"github.com/soukly/mirsal/pkg/carrier"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "mirsal",
	Short:   "Soukly Mirsal - Marketplace fulfillment broker",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fulfillment API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	carrierConfigs := store.NewCarrierConfigRepository(db)
	shipments := store.NewShipmentRepository(db)
	orders := store.NewOrderRepository(db)
	payments := store.NewPaymentRepository(db)
	deliveryOptions := store.NewDeliveryOptionRepository(db)

	registry := carrier.NewRegistry(carrierConfigs, carrierFactories(logger, tracer), logger)
	if err := registry.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing carrier registry: %w", err)
	}
	go runHealthChecks(ctx, registry, cfg.HealthCheckInterval)

	metrics := telemetry.NewMetrics()
	notifier := notify.NewLogNotifier(logger)
	reconciler := fulfillment.NewReconciler(orders, payments, notifier, metrics, logger)
	service := fulfillment.NewService(registry, shipments, orders, reconciler, metrics, logger)

	logger.Info("Starting Soukly Mirsal",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", registry.Names()),
	)

	srv := server.New(server.Config{Port: cfg.Port}, server.Deps{
		Registry:        registry,
		Aggregator:      carrier.NewAggregator(registry, logger),
		Service:         service,
		Reconciler:      reconciler,
		Orders:          orders,
		DeliveryOptions: deliveryOptions,
	}, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runHealthChecks(ctx context.Context, registry *carrier.Registry, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.PerformHealthChecks(ctx)
		}
	}
}
