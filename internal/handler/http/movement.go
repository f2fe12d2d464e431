package http

import (
	"log/slog"
	"net/http"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
	"github.com/Cesar4422/proyecto-mau/pkg/pagination"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// StockHandler serves stock movements and direct sales.
type StockHandler struct {
	movements MovementRecorder
	sales     SaleRecorder
	logger    *slog.Logger
}

// NewStockHandler creates a new stock HTTP handler.
func NewStockHandler(movements MovementRecorder, sales SaleRecorder, logger *slog.Logger) *StockHandler {
	return &StockHandler{movements: movements, sales: sales, logger: logger}
}

// RecordMovementRequest is the JSON body for a manual stock movement.
type RecordMovementRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Kind      string `json:"kind" validate:"required,oneof=inbound_purchase inbound_return outbound_sale outbound_writeoff"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Note      string `json:"note" validate:"notblank,max=500"`
}

// RecordSaleRequest is the JSON body for a direct sale.
type RecordSaleRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// RecordMovement handles POST /api/v1/movements
func (h *StockHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req RecordMovementRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.movements.RecordMovement(r.Context(), domain.MovementInput{
		ProductID: req.ProductID,
		Kind:      domain.MovementKind(req.Kind),
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}

// ListMovements handles GET /api/v1/movements
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryID(w, r, "product_id")
	if !ok {
		return
	}

	movements, err := h.movements.ListMovements(r.Context(), domain.MovementFilter{
		ProductID: productID,
		Kind:      domain.MovementKind(r.URL.Query().Get("kind")),
		Limit:     pagination.Limit(r, defaultListLimit, maxListLimit),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if movements == nil {
		movements = []domain.Movement{}
	}

	httputil.WriteData(w, http.StatusOK, movements)
}

// RecordSale handles POST /api/v1/sales
func (h *StockHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.sales.RecordSale(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}
