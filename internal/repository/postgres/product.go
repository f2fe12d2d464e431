package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

const productColumns = `id, code, name, stock, initial_stock, reorder_point, unit_price, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row scanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Stock,
		&p.InitialStock,
		&p.ReorderPoint,
		&p.UnitPrice,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product. Stock starts at the initial stock.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (code, name, stock, initial_stock, reorder_point, unit_price)
		VALUES ($1, $2, $3, $3, $4, $5)
		RETURNING ` + productColumns

	created, err := scanProduct(r.pool.QueryRow(ctx, query,
		product.Code,
		product.Name,
		product.InitialStock,
		product.ReorderPoint,
		product.UnitPrice,
	))
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return apperrors.AlreadyExists("product", "code", product.Code)
		}
		return fmt.Errorf("create product: %w", err)
	}

	*product = *created
	return nil
}

// GetByID retrieves a product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// List returns one page of products ordered by id.
func (r *ProductRepository) List(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + productColumns + `, count(*) OVER() AS total_count
		FROM products
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Code,
			&p.Name,
			&p.Stock,
			&p.InitialStock,
			&p.ReorderPoint,
			&p.UnitPrice,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, totalCount, nil
}

// ListLowStock returns products whose stock is below their reorder point, or
// below the default threshold when no reorder point is set.
func (r *ProductRepository) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE stock < CASE WHEN reorder_point > 0 THEN reorder_point ELSE $1 END
		ORDER BY stock ASC, id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, domain.DefaultLowStockThreshold, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan low stock row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock rows: %w", err)
	}
	return products, nil
}

// DashboardMetrics computes the dashboard counters in one round trip.
func (r *ProductRepository) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE stock = 0),
			(SELECT COUNT(*) FROM orders WHERE status <> 'fulfilled'),
			COUNT(*),
			COALESCE(SUM(stock), 0)
		FROM products`

	var m domain.DashboardMetrics
	if err := r.pool.QueryRow(ctx, query).Scan(
		&m.OutOfStockProducts,
		&m.OpenOrders,
		&m.TotalProducts,
		&m.TotalUnits,
	); err != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}
	return &m, nil
}
