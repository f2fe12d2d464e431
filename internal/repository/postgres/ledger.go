package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

// StockLedger implements repository.StockLedger using PostgreSQL. Every
// transaction runs at READ COMMITTED; correctness comes from row locks and
// guarded relative updates rather than isolation level.
type StockLedger struct {
	pool database.TxBeginner
}

// NewStockLedger creates a new PostgreSQL-backed stock ledger.
func NewStockLedger(pool database.TxBeginner) *StockLedger {
	return &StockLedger{pool: pool}
}

// WithinTx runs fn in a transaction.
func (l *StockLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	return database.RunInTx(ctx, l.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx pgx.Tx
}

// LockProduct reads the product with FOR UPDATE.
func (t *ledgerTx) LockProduct(ctx context.Context, productID int64) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	ctx, end := database.TraceQuery(ctx, "LockProduct", query)
	defer func() { end(err) }()

	p, err = scanProduct(t.tx.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

// ListOpenOrders returns pending and partial orders in id order, locked.
func (t *ledgerTx) ListOpenOrders(ctx context.Context, productID int64) (orders []domain.Order, err error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE product_id = $1 AND status IN ('pending', 'partial')
		ORDER BY id ASC
		FOR UPDATE`

	ctx, end := database.TraceQuery(ctx, "ListOpenOrders", query)
	defer func() { end(err) }()

	rows, err := t.tx.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	return collectOrders(rows)
}

// ApplyGrant increases allocated_qty, refusing to pass requested_qty.
func (t *ledgerTx) ApplyGrant(ctx context.Context, grant domain.Grant) (o *domain.Order, err error) {
	query := `
		UPDATE orders
		SET allocated_qty = allocated_qty + $1, updated_at = NOW()
		WHERE id = $2 AND allocated_qty + $1 <= requested_qty
		RETURNING ` + orderColumns

	ctx, end := database.TraceQuery(ctx, "ApplyGrant", query)
	defer func() { end(err) }()

	o, err = scanOrder(t.tx.QueryRow(ctx, query, grant.Quantity, grant.OrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("grant of %d exceeds remaining need of order %d: %w",
				grant.Quantity, grant.OrderID, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("apply grant to order %d: %w", grant.OrderID, err)
	}
	return o, nil
}

// AdjustStock applies a relative delta, refusing to go below zero.
func (t *ledgerTx) AdjustStock(ctx context.Context, productID int64, delta int) (stock int, err error) {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING stock`

	ctx, end := database.TraceQuery(ctx, "AdjustStock", query)
	defer func() { end(err) }()

	if err = t.tx.QueryRow(ctx, query, delta, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("adjust stock of product %d by %d: %w", productID, delta, apperrors.ErrInsufficientStock)
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return stock, nil
}

// InsertMovement appends a movement row.
func (t *ledgerTx) InsertMovement(ctx context.Context, m *domain.Movement) (err error) {
	query := `
		INSERT INTO movements (product_id, kind, quantity, actor_id, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	ctx, end := database.TraceQuery(ctx, "InsertMovement", query)
	defer func() { end(err) }()

	if err = t.tx.QueryRow(ctx, query,
		m.ProductID,
		string(m.Kind),
		m.Quantity,
		m.ActorID,
		m.Note,
	).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// InsertSale records a sale row.
func (t *ledgerTx) InsertSale(ctx context.Context, s *domain.Sale) (err error) {
	query := `
		INSERT INTO sales (product_id, quantity, unit_price, amount, actor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	ctx, end := database.TraceQuery(ctx, "InsertSale", query)
	defer func() { end(err) }()

	if err = t.tx.QueryRow(ctx, query,
		s.ProductID,
		s.Quantity,
		s.UnitPrice,
		s.Amount,
		s.ActorID,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}
