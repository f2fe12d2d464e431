package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Cesar4422/proyecto-mau/pkg/health"
	"github.com/Cesar4422/proyecto-mau/pkg/middleware"
)

const serviceName = "warehouse"

// RoleAdmin may switch the active allocation policy.
const RoleAdmin = "admin"

// Services are the operations exposed over HTTP.
type Services struct {
	Allocation AllocationRunner
	Policies   PolicyManager
	Movements  MovementRecorder
	Sales      SaleRecorder
	Orders     OrderManager
	Products   ProductCatalog
	Ledger     Reconciler
}

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	// AllocationRPS and AllocationBurst bound manual allocation runs per caller.
	AllocationRPS   float64
	AllocationBurst int
}

// NewRouter creates a chi router with all warehouse routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	allocations := NewAllocationHandler(svc.Allocation, svc.Policies, logger)
	stock := NewStockHandler(svc.Movements, svc.Sales, logger)
	orders := NewOrderHandler(svc.Orders, logger)
	products := NewProductHandler(svc.Products, svc.Ledger, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity)
		r.Use(middleware.RequestLogger(logger))

		r.With(middleware.RateLimit(cfg.AllocationRPS, cfg.AllocationBurst, logger)).
			Post("/allocations/run", allocations.Run)

		r.Route("/allocation-policies", func(r chi.Router) {
			r.Get("/", allocations.ListPolicies)
			r.Get("/active", allocations.GetActivePolicy)
			r.With(middleware.RequireRole(RoleAdmin)).Put("/active", allocations.SetActivePolicy)
		})

		r.Post("/movements", stock.RecordMovement)
		r.Get("/movements", stock.ListMovements)
		r.Post("/sales", stock.RecordSale)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.Create)
			r.Get("/", orders.List)
			r.Get("/{id}", orders.Get)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", products.Create)
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)
			r.Get("/{id}/reconciliation", products.Reconciliation)
		})

		r.Get("/alerts/low-stock", products.LowStock)
		r.Get("/dashboard/metrics", products.Dashboard)
	})

	return r
}
