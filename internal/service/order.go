package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// OrderService takes in orders that allocation runs later serve.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, products: products, logger: logger}
}

// CreateOrder registers a pending order for an existing product.
func (s *OrderService) CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	in.ClientRef = strings.TrimSpace(in.ClientRef)
	switch {
	case in.ProductID <= 0:
		return nil, apperrors.InvalidInput("product_id must be a positive integer")
	case in.RequestedQty <= 0:
		return nil, apperrors.InvalidInput("requested_qty must be greater than zero")
	case in.Priority < 0:
		return nil, apperrors.InvalidInput("priority must not be negative")
	case in.ClientRef == "":
		return nil, apperrors.InvalidInput("client_ref is required")
	}
	if in.ActorID == "" {
		in.ActorID = logger.ActorIDFromContext(ctx)
	}

	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ProductID:    in.ProductID,
		RequestedQty: in.RequestedQty,
		Priority:     in.Priority,
		ClientRef:    in.ClientRef,
		CreatedBy:    in.ActorID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("product_id", order.ProductID),
		slog.Int("requested_qty", order.RequestedQty),
		slog.Int("priority", order.Priority),
	)
	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns orders matching the filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("status %q is not a valid order status", filter.Status))
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
