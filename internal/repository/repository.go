package repository

import (
	"context"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
)

// ProductRepository defines product persistence. Stock is never written
// through it; see StockLedger.
type ProductRepository interface {
	// Create inserts a product and fills its ID and timestamps.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// List returns one page of products ordered by id, plus the total count.
	List(ctx context.Context, page, perPage int) ([]domain.Product, int, error)

	// ListLowStock returns products below their low-stock threshold, lowest
	// stock first.
	ListLowStock(ctx context.Context, limit int) ([]domain.Product, error)

	// DashboardMetrics computes the dashboard counters.
	DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error)
}

// OrderRepository defines order persistence outside allocation runs.
type OrderRepository interface {
	// Create inserts a pending order and fills its ID, status and timestamps.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// PolicyRepository defines allocation policy persistence.
type PolicyRepository interface {
	// List returns every configured policy, active first.
	List(ctx context.Context) ([]domain.AllocationPolicy, error)

	// GetActive returns the active policy or ErrNotFound when none is active.
	GetActive(ctx context.Context) (*domain.AllocationPolicy, error)

	// SetActive makes name the only active policy, creating it if needed.
	SetActive(ctx context.Context, name, actorID string) (*domain.AllocationPolicy, error)
}

// MovementRepository reads the movement ledger. Movements are appended only
// through LedgerTx and have no update or delete path.
type MovementRepository interface {
	// List returns movements matching the filter, newest first.
	List(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error)

	// Reconciliation totals a product's history against its current stock.
	Reconciliation(ctx context.Context, productID int64) (*domain.Reconciliation, error)
}

// StockLedger runs stock-changing work in a single transaction.
type StockLedger interface {
	// WithinTx runs fn in a transaction that commits only if fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the set of writes allowed inside a stock transaction. Every
// stock change is a relative delta paired with the record that motivates it.
type LedgerTx interface {
	// LockProduct reads the product row and holds its row lock until the
	// transaction ends.
	LockProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// ListOpenOrders returns pending and partial orders for the product in
	// id order, locking their rows.
	ListOpenOrders(ctx context.Context, productID int64) ([]domain.Order, error)

	// ApplyGrant adds the grant to the order's allocated quantity. It fails
	// with ErrConflict if that would exceed the requested quantity.
	ApplyGrant(ctx context.Context, grant domain.Grant) (*domain.Order, error)

	// AdjustStock applies delta to the product's stock and returns the new
	// level. It fails with ErrInsufficientStock if stock would go negative.
	AdjustStock(ctx context.Context, productID int64, delta int) (int, error)

	// InsertMovement appends a movement and fills its ID and timestamp.
	InsertMovement(ctx context.Context, movement *domain.Movement) error

	// InsertSale records a sale and fills its ID and timestamp.
	InsertSale(ctx context.Context, sale *domain.Sale) error
}
