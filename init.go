package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/tournevent/shipbridge/internal/config"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shiprocket"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics()
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initShiprocketClient(cfg *config.Config, metrics *telemetry.Metrics, logger *otelzap.Logger, tracer trace.Tracer) *shiprocket.Client {
	return shiprocket.New(shiprocket.Config{
		BaseURL:               cfg.BaseURL(),
		Email:                 cfg.Email,
		Password:              cfg.Password,
		DefaultPickupLocation: cfg.DefaultPickupLocation,
		DefaultChannelID:      cfg.DefaultChannelID,
		Defaults:              shiprocket.DefaultPackage,
		Events:                metrics,
		UseMock:               cfg.UseMock,
	}, logger, tracer)
}
