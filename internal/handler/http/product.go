package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
	"github.com/Cesar4422/proyecto-mau/pkg/pagination"
)

const defaultLowStockLimit = 100

// ProductHandler serves the product catalogue and stock reports.
type ProductHandler struct {
	products ProductCatalog
	ledger   Reconciler
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products ProductCatalog, ledger Reconciler, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, ledger: ledger, logger: logger}
}

// CreateProductRequest is the JSON body for a new product. unit_price is
// accepted as a JSON string or number.
type CreateProductRequest struct {
	Code         string          `json:"code" validate:"notblank,max=64"`
	Name         string          `json:"name" validate:"notblank,max=255"`
	InitialStock int             `json:"initial_stock" validate:"gte=0"`
	ReorderPoint int             `json:"reorder_point" validate:"gte=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), domain.NewProduct{
		Code:         req.Code,
		Name:         req.Name,
		InitialStock: req.InitialStock,
		ReorderPoint: req.ReorderPoint,
		UnitPrice:    req.UnitPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	products, total, err := h.products.ListProducts(r.Context(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(products, total, params))
}

// Reconciliation handles GET /api/v1/products/{id}/reconciliation
func (h *ProductHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rec, err := h.ledger.Reconcile(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, rec)
}

// LowStock handles GET /api/v1/alerts/low-stock
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListLowStock(r.Context(), pagination.Limit(r, defaultLowStockLimit, maxListLimit))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// Dashboard handles GET /api/v1/dashboard/metrics
func (h *ProductHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.products.GetDashboardMetrics(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, metrics)
}
