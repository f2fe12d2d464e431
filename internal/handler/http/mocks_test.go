package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
)

type mockAllocationRunner struct{ mock.Mock }

func (m *mockAllocationRunner) RunAllocation(ctx context.Context, productID int64) (*domain.AllocationSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationSummary), args.Error(1)
}

type mockPolicyManager struct{ mock.Mock }

func (m *mockPolicyManager) GetActivePolicy(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockPolicyManager) SetActivePolicy(ctx context.Context, name string) (*domain.AllocationPolicy, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationPolicy), args.Error(1)
}

func (m *mockPolicyManager) ListPolicies(ctx context.Context) ([]domain.AllocationPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AllocationPolicy), args.Error(1)
}

type mockMovementRecorder struct{ mock.Mock }

func (m *mockMovementRecorder) RecordMovement(ctx context.Context, in domain.MovementInput) (*domain.MovementResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MovementResult), args.Error(1)
}

func (m *mockMovementRecorder) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Movement), args.Error(1)
}

type mockSaleRecorder struct{ mock.Mock }

func (m *mockSaleRecorder) RecordSale(ctx context.Context, productID int64, quantity int) (*domain.SaleResult, error) {
	args := m.Called(ctx, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleResult), args.Error(1)
}

type mockOrderManager struct{ mock.Mock }

func (m *mockOrderManager) CreateOrder(ctx context.Context, in domain.NewOrder) (*domain.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderManager) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderManager) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockProductCatalog struct{ mock.Mock }

func (m *mockProductCatalog) CreateProduct(ctx context.Context, in domain.NewProduct) (*domain.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductCatalog) ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductCatalog) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductCatalog) GetDashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardMetrics), args.Error(1)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) Reconcile(ctx context.Context, productID int64) (*domain.Reconciliation, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}
