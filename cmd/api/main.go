package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcouto/autosales-backend/api/routes"
	"github.com/mcouto/autosales-backend/internal/payments"
	salesvc "github.com/mcouto/autosales-backend/internal/sales"
	"github.com/mcouto/autosales-backend/internal/vehicles"
	stripewebhook "github.com/mcouto/autosales-backend/internal/webhooks/stripe"
	"github.com/mcouto/autosales-backend/pkg/config"
	"github.com/mcouto/autosales-backend/pkg/db"
	"github.com/mcouto/autosales-backend/pkg/logger"
	"github.com/mcouto/autosales-backend/pkg/metrics"
	"github.com/mcouto/autosales-backend/pkg/migrate"
	"github.com/mcouto/autosales-backend/pkg/redis"
	"github.com/mcouto/autosales-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	vehicleClient, err := vehicles.NewClient(cfg.Vehicles.BaseURL, cfg.Vehicles.AuthToken,
		vehicles.WithTimeout(cfg.Vehicles.Timeout),
		vehicles.WithLogger(logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle client", err)
		os.Exit(1)
	}

	paymentLinks, err := payments.NewLinkService(payments.NewStripeClient(stripeClient), vehicleClient, cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment link service", err)
		os.Exit(1)
	}

	salesService, err := salesvc.NewService(salesvc.ServiceParams{
		Repo:          salesvc.NewRepository(dbClient.DB()),
		VehicleClient: vehicleClient,
		LinkIssuer:    paymentLinks,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Sales:   salesService,
		Stripe:  payments.NewStripeClient(stripeClient),
		Metrics: webhookMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			salesService,
			vehicleClient,
			stripeClient,
			stripeWebhookService,
			stripeWebhookGuard,
			webhookMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
