package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

// ProductService manages the product catalogue and stock reports.
type ProductService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

// CreateProduct registers a product with its opening stock.
func (s *ProductService) CreateProduct(ctx context.Context, in domain.NewProduct) (*domain.Product, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Code == "":
		return nil, apperrors.InvalidInput("code is required")
	case in.Name == "":
		return nil, apperrors.InvalidInput("name is required")
	case in.InitialStock < 0:
		return nil, apperrors.InvalidInput("initial_stock must not be negative")
	case in.ReorderPoint < 0:
		return nil, apperrors.InvalidInput("reorder_point must not be negative")
	case in.UnitPrice.IsNegative():
		return nil, apperrors.InvalidInput("unit_price must not be negative")
	}

	p := &domain.Product{
		Code:         in.Code,
		Name:         in.Name,
		Stock:        in.InitialStock,
		InitialStock: in.InitialStock,
		ReorderPoint: in.ReorderPoint,
		UnitPrice:    in.UnitPrice,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", p.ID),
		slog.String("code", p.Code),
		slog.Int("initial_stock", p.InitialStock),
	)
	return p, nil
}

// GetProduct retrieves a product by ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts returns one page of products and the total count.
func (s *ProductService) ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	products, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// ListLowStock returns products below their low-stock threshold, lowest
// stock first.
func (s *ProductService) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.repo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

// GetDashboardMetrics returns the dashboard counters.
func (s *ProductService) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	m, err := s.repo.DashboardMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}
	return m, nil
}
