package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
	"github.com/Cesar4422/proyecto-mau/pkg/pagination"
)

// OrderHandler serves order intake.
type OrderHandler struct {
	orders OrderManager
	logger *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders OrderManager, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// CreateOrderRequest is the JSON body for a new order.
type CreateOrderRequest struct {
	ProductID    int64  `json:"product_id" validate:"gt=0"`
	RequestedQty int    `json:"requested_qty" validate:"gt=0"`
	Priority     int    `json:"priority" validate:"gte=0"`
	ClientRef    string `json:"client_ref" validate:"notblank,max=100"`
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), domain.NewOrder{
		ProductID:    req.ProductID,
		RequestedQty: req.RequestedQty,
		Priority:     req.Priority,
		ClientRef:    req.ClientRef,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryID(w, r, "product_id")
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), domain.OrderFilter{
		Status:    domain.OrderStatus(r.URL.Query().Get("status")),
		ProductID: productID,
		Limit:     pagination.Limit(r, defaultListLimit, maxListLimit),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	httputil.WriteData(w, http.StatusOK, orders)
}
