package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

const movementColumns = `id, product_id, kind, quantity, actor_id, note, created_at`

// MovementRepository implements repository.MovementRepository using PostgreSQL.
type MovementRepository struct {
	pool database.DBTX
}

// NewMovementRepository creates a new PostgreSQL-backed movement repository.
func NewMovementRepository(pool database.DBTX) *MovementRepository {
	return &MovementRepository{pool: pool}
}

func scanMovement(row scanner) (*domain.Movement, error) {
	var (
		m    domain.Movement
		kind string
	)
	if err := row.Scan(&m.ID, &m.ProductID, &kind, &m.Quantity, &m.ActorID, &m.Note, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = domain.MovementKind(kind)
	return &m, nil
}

// List returns movements matching the filter, newest first.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ProductID > 0 {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argIndex))
		args = append(args, filter.ProductID)
		argIndex++
	}

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIndex))
		args = append(args, string(filter.Kind))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM movements
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		movementColumns, whereClause, argIndex,
	)
	args = append(args, clampLimit(filter.Limit, 100, 500))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement row: %w", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movement rows: %w", err)
	}
	return movements, nil
}

// Reconciliation totals the product's movements, sales and allocations.
func (r *MovementRepository) Reconciliation(ctx context.Context, productID int64) (*domain.Reconciliation, error) {
	query := `
		SELECT
			p.initial_stock,
			p.stock,
			COALESCE((
				SELECT SUM(CASE WHEN m.kind IN ('inbound_purchase', 'inbound_return')
				                THEN m.quantity ELSE -m.quantity END)
				FROM movements m WHERE m.product_id = p.id
			), 0),
			COALESCE((SELECT SUM(s.quantity) FROM sales s WHERE s.product_id = p.id), 0),
			COALESCE((SELECT SUM(o.allocated_qty) FROM orders o WHERE o.product_id = p.id), 0)
		FROM products p
		WHERE p.id = $1`

	var initial, actual, movementsNet, sold, allocated int
	err := r.pool.QueryRow(ctx, query, productID).Scan(&initial, &actual, &movementsNet, &sold, &allocated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("reconcile product: %w", err)
	}

	return domain.NewReconciliation(productID, initial, movementsNet, sold, allocated, actual), nil
}
