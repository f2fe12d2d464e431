package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	pkgkafka "github.com/Cesar4422/proyecto-mau/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Event capture ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordingPublisher) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	pub := &recordingPublisher{}
	return event.NewProducer(pub, testLogger()), pub
}

// --- Mock StockLedger ---

// fakeLedger runs fn against a mock transaction and records whether the
// transaction would have committed.
type fakeLedger struct {
	tx        *mockLedgerTx
	committed bool
	calls     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{tx: new(mockLedgerTx)}
}

func (l *fakeLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	l.calls++
	if err := fn(ctx, l.tx); err != nil {
		return err
	}
	l.committed = true
	return nil
}

type mockLedgerTx struct {
	mock.Mock
}

func (m *mockLedgerTx) LockProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockLedgerTx) ListOpenOrders(ctx context.Context, productID int64) ([]domain.Order, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockLedgerTx) ApplyGrant(ctx context.Context, grant domain.Grant) (*domain.Order, error) {
	args := m.Called(ctx, grant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockLedgerTx) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	args := m.Called(ctx, productID, delta)
	return args.Int(0), args.Error(1)
}

func (m *mockLedgerTx) InsertMovement(ctx context.Context, movement *domain.Movement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *mockLedgerTx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

// --- Mock repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, page, perPage int) ([]domain.Product, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardMetrics), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockPolicyRepository struct {
	mock.Mock
}

func (m *mockPolicyRepository) List(ctx context.Context) ([]domain.AllocationPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AllocationPolicy), args.Error(1)
}

func (m *mockPolicyRepository) GetActive(ctx context.Context) (*domain.AllocationPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationPolicy), args.Error(1)
}

func (m *mockPolicyRepository) SetActive(ctx context.Context, name, actorID string) (*domain.AllocationPolicy, error) {
	args := m.Called(ctx, name, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationPolicy), args.Error(1)
}

type mockMovementRepository struct {
	mock.Mock
}

func (m *mockMovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Movement), args.Error(1)
}

func (m *mockMovementRepository) Reconciliation(ctx context.Context, productID int64) (*domain.Reconciliation, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

// staticPolicy is an ActivePolicySource with a fixed answer.
type staticPolicy struct {
	name string
	err  error
}

func (s staticPolicy) GetActivePolicy(context.Context) (string, error) { return s.name, s.err }
