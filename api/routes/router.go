package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcouto/autosales-backend/api/controllers"
	webhookcontrollers "github.com/mcouto/autosales-backend/api/controllers/webhooks"
	"github.com/mcouto/autosales-backend/api/middleware"
	salesvc "github.com/mcouto/autosales-backend/internal/sales"
	"github.com/mcouto/autosales-backend/internal/vehicles"
	stripewebhook "github.com/mcouto/autosales-backend/internal/webhooks/stripe"
	"github.com/mcouto/autosales-backend/pkg/config"
	"github.com/mcouto/autosales-backend/pkg/db"
	"github.com/mcouto/autosales-backend/pkg/logger"
	"github.com/mcouto/autosales-backend/pkg/metrics"
	"github.com/mcouto/autosales-backend/pkg/redis"
	"github.com/mcouto/autosales-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	salesService salesvc.Service,
	vehicleClient *vehicles.Client,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	webhookMetrics *metrics.WebhookMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, webhookMetrics, logg))
		r.Put("/payment/{paymentCode}", webhookcontrollers.PaymentNotice(salesService, logg))
	})

	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Post("/", controllers.CreateSale(salesService, logg))
		r.Get("/", controllers.ListSales(salesService, logg))
		r.Get("/{saleId}", controllers.GetSale(salesService, logg))
		r.Put("/{saleId}", controllers.EditSale(salesService, logg))
		r.Put("/{saleId}/cancel", controllers.CancelSale(salesService, logg))
	})

	r.Route("/api/v1/vehicles", func(r chi.Router) {
		r.Get("/for-sale", controllers.VehiclesForSale(vehicleClient, logg))
		r.Get("/sold", controllers.VehiclesSold(vehicleClient, logg))
	})

	return r
}
