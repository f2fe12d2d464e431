package service

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	"github.com/Cesar4422/proyecto-mau/internal/lock"
	"github.com/Cesar4422/proyecto-mau/internal/policy"
	"github.com/Cesar4422/proyecto-mau/internal/repository/postgres"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newAllocationService(ledger *fakeLedger, active string) (*AllocationService, *recordingPublisher) {
	producer, pub := newTestProducer()
	svc := NewAllocationService(ledger, staticPolicy{name: active}, lock.NewLocalLocker(time.Second), producer, testLogger())
	return svc, pub
}

func openOrder(id int64, requested, allocated, priority int, submitted time.Time) domain.Order {
	return domain.Order{
		ID:           id,
		ProductID:    1,
		RequestedQty: requested,
		AllocatedQty: allocated,
		Priority:     priority,
		SubmittedAt:  submitted,
		Status:       domain.DeriveStatus(requested, allocated),
	}
}

func expectGrant(tx *mockLedgerTx, orderID int64, qty int) {
	tx.On("ApplyGrant", mock.Anything, domain.Grant{OrderID: orderID, Quantity: qty}).
		Return(&domain.Order{ID: orderID}, nil).Once()
}

// ============================================================================
// Scenarios
// ============================================================================

func TestRunAllocation_FIFOPartialFill(t *testing.T) {
	ledger := newFakeLedger()
	svc, pub := newAllocationService(ledger, policy.NameFIFO)
	ctx := context.Background()

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{
		openOrder(1, 5, 0, 1, t0),
		openOrder(2, 7, 0, 1, t0.Add(time.Hour)),
	}, nil)
	expectGrant(ledger.tx, 1, 5)
	expectGrant(ledger.tx, 2, 5)
	ledger.tx.On("AdjustStock", mock.Anything, int64(1), -10).Return(0, nil)

	before := testutil.ToFloat64(AllocationUnitsGranted)

	summary, err := svc.RunAllocation(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, []domain.Grant{{OrderID: 1, Quantity: 5}, {OrderID: 2, Quantity: 5}}, summary.Allocations)
	assert.Equal(t, 10, summary.TotalGranted)
	assert.Equal(t, 10, summary.StockBefore)
	assert.Equal(t, 0, summary.StockAfter)
	assert.Equal(t, policy.NameFIFO, summary.Policy)
	assert.False(t, summary.PolicyFallback)
	assert.Equal(t, MessageAllocated, summary.Message)
	assert.NotEmpty(t, summary.RunID)
	assert.True(t, ledger.committed)

	assert.Equal(t, before+10, testutil.ToFloat64(AllocationUnitsGranted))
	assert.Equal(t, []string{event.TopicAllocationCompleted, event.TopicStockLow}, pub.Topics())
	ledger.tx.AssertExpectations(t)
}

func TestRunAllocation_HighestPriorityTakesScarceStock(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, policy.NameHighest)

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 4, ReorderPoint: 2}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{
		openOrder(1, 10, 0, 1, t0),
		openOrder(2, 10, 0, 3, t0.Add(time.Hour)),
	}, nil)
	expectGrant(ledger.tx, 2, 4)
	ledger.tx.On("AdjustStock", mock.Anything, int64(1), -4).Return(0, nil)

	summary, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grant{{OrderID: 2, Quantity: 4}}, summary.Allocations)
	ledger.tx.AssertNotCalled(t, "ApplyGrant", mock.Anything, domain.Grant{OrderID: 1, Quantity: 4})
}

func TestRunAllocation_UnknownPolicyFallsBack(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, "round_robin")

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{
		openOrder(1, 5, 0, 0, t0),
		openOrder(2, 7, 0, 0, t0.Add(time.Hour)),
	}, nil)
	expectGrant(ledger.tx, 1, 5)
	expectGrant(ledger.tx, 2, 5)
	ledger.tx.On("AdjustStock", mock.Anything, int64(1), -10).Return(0, nil)

	before := testutil.ToFloat64(AllocationPolicyFallback)

	summary, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, summary.PolicyFallback)
	assert.Equal(t, policy.NameFIFO, summary.Policy)
	assert.Equal(t, before+1, testutil.ToFloat64(AllocationPolicyFallback))
}

func TestRunAllocation_NoOpenOrders(t *testing.T) {
	ledger := newFakeLedger()
	svc, pub := newAllocationService(ledger, policy.NameFIFO)

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{}, nil)

	summary, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, MessageNoOpenOrders, summary.Message)
	assert.NotNil(t, summary.Allocations)
	assert.Empty(t, summary.Allocations)
	assert.Equal(t, 10, summary.StockAfter)
	assert.Empty(t, pub.Topics())
	ledger.tx.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAllocation_NoStock(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, policy.NameFIFO)

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 0}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{openOrder(1, 5, 0, 0, t0)}, nil)

	summary, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, MessageNoStock, summary.Message)
	assert.Zero(t, summary.TotalGranted)
	ledger.tx.AssertNotCalled(t, "ApplyGrant", mock.Anything, mock.Anything)
}

func TestRunAllocation_UnknownProduct(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, policy.NameFIFO)

	ledger.tx.On("LockProduct", mock.Anything, int64(404)).Return(nil, apperrors.NotFound("product", int64(404)))

	_, err := svc.RunAllocation(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrAllocationFailed)
}

func TestRunAllocation_ApplyFailureRollsBack(t *testing.T) {
	ledger := newFakeLedger()
	svc, pub := newAllocationService(ledger, policy.NameFIFO)

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{
		openOrder(1, 5, 0, 0, t0),
		openOrder(2, 7, 0, 0, t0.Add(time.Hour)),
	}, nil)
	expectGrant(ledger.tx, 1, 5)
	ledger.tx.On("ApplyGrant", mock.Anything, domain.Grant{OrderID: 2, Quantity: 5}).
		Return(nil, apperrors.ErrConflict)

	_, err := svc.RunAllocation(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrAllocationFailed)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.False(t, ledger.committed)
	assert.Empty(t, pub.Topics())
	ledger.tx.AssertNotCalled(t, "AdjustStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAllocation_PublishFailureDoesNotFailRun(t *testing.T) {
	ledger := newFakeLedger()
	svc, pub := newAllocationService(ledger, policy.NameFIFO)
	pub.err = errors.New("broker down")

	ledger.tx.On("LockProduct", mock.Anything, int64(1)).Return(&domain.Product{ID: 1, Stock: 10}, nil)
	ledger.tx.On("ListOpenOrders", mock.Anything, int64(1)).Return([]domain.Order{openOrder(1, 3, 0, 0, t0)}, nil)
	expectGrant(ledger.tx, 1, 3)
	ledger.tx.On("AdjustStock", mock.Anything, int64(1), -3).Return(7, nil)

	summary, err := svc.RunAllocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.StockAfter)
}

func TestRunAllocation_LockBusy(t *testing.T) {
	ledger := newFakeLedger()
	producer, _ := newTestProducer()
	locker := lock.NewLocalLocker(10 * time.Millisecond)
	svc := NewAllocationService(ledger, staticPolicy{name: policy.NameFIFO}, locker, producer, testLogger())

	release, err := locker.Acquire(context.Background(), lock.ProductKey(1))
	require.NoError(t, err)
	defer release(context.Background())

	_, err = svc.RunAllocation(context.Background(), 1)
	assert.ErrorIs(t, err, lock.ErrNotObtained)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Zero(t, ledger.calls)
}

func TestRunAllocation_PolicyLookupError(t *testing.T) {
	ledger := newFakeLedger()
	producer, _ := newTestProducer()
	svc := NewAllocationService(ledger, staticPolicy{err: errors.New("db down")}, lock.NewLocalLocker(0), producer, testLogger())

	_, err := svc.RunAllocation(context.Background(), 1)
	assert.Error(t, err)
	assert.Zero(t, ledger.calls)
}

func TestRunAllocation_InvalidProductID(t *testing.T) {
	ledger := newFakeLedger()
	svc, _ := newAllocationService(ledger, policy.NameFIFO)

	_, err := svc.RunAllocation(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Zero(t, ledger.calls)
}

// ============================================================================
// Against the PostgreSQL ledger
// ============================================================================

var (
	pgProductCols = []string{"id", "code", "name", "stock", "initial_stock", "reorder_point", "unit_price", "created_at", "updated_at"}
	pgOrderCols   = []string{"id", "product_id", "requested_qty", "allocated_qty", "priority", "client_ref", "status", "created_by", "submitted_at", "updated_at"}
)

func TestRunAllocationWithPolicy_PostgresCommit(t *testing.T) {
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	defer pool.Close()

	producer, _ := newTestProducer()
	svc := NewAllocationService(postgres.NewStockLedger(pool), staticPolicy{}, lock.NewLocalLocker(0), producer, testLogger())

	pool.ExpectBegin()
	pool.ExpectQuery("FROM products WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(pgProductCols).
			AddRow(int64(1), "SKU-1", "Tuerca", 6, 6, 0, decimal.Zero, t0, t0))
	pool.ExpectQuery("FROM orders").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(pgOrderCols).
			AddRow(int64(1), int64(1), 8, 0, 0, "A", "pending", "", t0, t0).
			AddRow(int64(2), int64(1), 2, 0, 0, "B", "pending", "", t0.Add(time.Minute), t0))
	pool.ExpectQuery("UPDATE orders").
		WithArgs(2, int64(2)).
		WillReturnRows(pgxmock.NewRows(pgOrderCols).
			AddRow(int64(2), int64(1), 2, 2, 0, "B", "fulfilled", "", t0.Add(time.Minute), t0))
	pool.ExpectQuery("UPDATE orders").
		WithArgs(4, int64(1)).
		WillReturnRows(pgxmock.NewRows(pgOrderCols).
			AddRow(int64(1), int64(1), 8, 4, 0, "A", "partial", "", t0, t0))
	pool.ExpectQuery("UPDATE products").
		WithArgs(-6, int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(0))
	pool.ExpectCommit()

	summary, err := svc.RunAllocationWithPolicy(context.Background(), 1, policy.NameSmallestQty)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grant{{OrderID: 2, Quantity: 2}, {OrderID: 1, Quantity: 4}}, summary.Allocations)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRunAllocationWithPolicy_PostgresRollbackOnStockGuard(t *testing.T) {
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	defer pool.Close()

	producer, pub := newTestProducer()
	svc := NewAllocationService(postgres.NewStockLedger(pool), staticPolicy{}, lock.NewLocalLocker(0), producer, testLogger())

	pool.ExpectBegin()
	pool.ExpectQuery("FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(pgProductCols).
			AddRow(int64(1), "SKU-1", "Tuerca", 3, 3, 0, decimal.Zero, t0, t0))
	pool.ExpectQuery("FROM orders").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(pgOrderCols).
			AddRow(int64(1), int64(1), 3, 0, 0, "A", "pending", "", t0, t0))
	pool.ExpectQuery("UPDATE orders").
		WithArgs(3, int64(1)).
		WillReturnRows(pgxmock.NewRows(pgOrderCols).
			AddRow(int64(1), int64(1), 3, 3, 0, "A", "fulfilled", "", t0, t0))
	pool.ExpectQuery("UPDATE products").
		WithArgs(-3, int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}))
	pool.ExpectRollback()

	_, err = svc.RunAllocationWithPolicy(context.Background(), 1, policy.NameFIFO)
	assert.ErrorIs(t, err, apperrors.ErrAllocationFailed)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Empty(t, pub.Topics())
	assert.NoError(t, pool.ExpectationsWereMet())
}
