package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/httputil"
	"github.com/Cesar4422/proyecto-mau/pkg/validator"
)

// --- Service contracts ---

// AllocationRunner runs allocation for one product.
type AllocationRunner interface {
	RunAllocation(ctx context.Context, productID int64) (*domain.AllocationSummary, error)
}

// PolicyManager reads and switches the active allocation policy.
type PolicyManager interface {
	GetActivePolicy(ctx context.Context) (string, error)
	SetActivePolicy(ctx context.Context, name string) (*domain.AllocationPolicy, error)
	ListPolicies(ctx context.Context) ([]domain.AllocationPolicy, error)
}

// MovementRecorder records and lists stock movements.
type MovementRecorder interface {
	RecordMovement(ctx context.Context, in domain.MovementInput) (*domain.MovementResult, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error)
}

// SaleRecorder records direct sales.
type SaleRecorder interface {
	RecordSale(ctx context.Context, productID int64, quantity int) (*domain.SaleResult, error)
}

// OrderManager takes in and lists orders.
type OrderManager interface {
	CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// ProductCatalog manages products and stock reports.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, in domain.NewProduct) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error)
	ListLowStock(ctx context.Context, limit int) ([]domain.Product, error)
	GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error)
}

// Reconciler checks a product's stock against its ledger.
type Reconciler interface {
	Reconcile(ctx context.Context, productID int64) (*domain.Reconciliation, error)
}

// --- Shared helpers ---

// decodeRequest decodes and validates the JSON body into dst. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, err, nil)
		return false
	}
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
	})
	return false
}

// queryID reads an optional positive integer query parameter. A present but
// malformed value writes a 400 response and returns false.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: name + " must be a valid positive integer"},
		})
		return 0, false
	}
	return id, true
}
