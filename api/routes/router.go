package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obafemi/chopwell-backend/api/controllers"
	webhookcontrollers "github.com/obafemi/chopwell-backend/api/controllers/webhooks"
	"github.com/obafemi/chopwell-backend/api/middleware"
	"github.com/obafemi/chopwell-backend/internal/batches"
	"github.com/obafemi/chopwell-backend/internal/orders"
	"github.com/obafemi/chopwell-backend/internal/payments"
	"github.com/obafemi/chopwell-backend/internal/products"
	"github.com/obafemi/chopwell-backend/pkg/config"
	"github.com/obafemi/chopwell-backend/pkg/db"
	"github.com/obafemi/chopwell-backend/pkg/logger"
)

// Deps collects everything the HTTP surface needs. Gatherer may be nil to
// skip the /metrics endpoint.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    db.Pinger
	Products products.Service
	Orders   orders.Service
	Batches  batches.Service
	Payments payments.Service
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, logg))
		r.Get("/low-stock", controllers.LowStockAlerts(deps.Products, logg))
		r.Post("/stock/deduct", controllers.BulkDeductStock(deps.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Post("/{productId}/restock", controllers.RestockProduct(deps.Products, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", controllers.CreateOrder(deps.Orders, logg))
		r.Get("/kitchen-queue", controllers.KitchenQueue(deps.Orders, logg))
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.GetOrder(deps.Orders, logg))
			r.Put("/items", controllers.ModifyOrder(deps.Orders, logg))
			r.Delete("/", controllers.DeleteDraft(deps.Orders, logg))
			r.Post("/confirm", controllers.ConfirmOrder(deps.Orders, logg))
			r.Post("/start-preparing", controllers.StartPreparingOrder(deps.Orders, logg))
			r.Post("/complete", controllers.CompleteOrder(deps.Orders, logg))
			r.Post("/cancel", controllers.CancelOrder(deps.Orders, logg))
		})
	})

	r.Route("/api/v1/batches", func(r chi.Router) {
		r.Post("/", controllers.PushBatch(deps.Batches, logg))
		r.Route("/{batchId}", func(r chi.Router) {
			r.Get("/", controllers.GetBatch(deps.Batches, logg))
			r.Post("/start-preparing", controllers.StartBatchPreparation(deps.Batches, logg))
			r.Post("/complete", controllers.CompleteBatch(deps.Batches, logg))
		})
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/sessions", controllers.CreatePaymentSession(deps.Payments, logg))
		r.Get("/sessions/{accountReference}/verify", controllers.VerifyPayment(deps.Payments, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/monnify", webhookcontrollers.Monnify(
			deps.Payments,
			cfg.Monnify.SecretKey,
			cfg.Monnify.AllowedIPs,
			logg,
		))
	})

	return r
}
