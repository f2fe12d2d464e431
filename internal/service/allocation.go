package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	"github.com/Cesar4422/proyecto-mau/internal/lock"
	"github.com/Cesar4422/proyecto-mau/internal/policy"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
)

// Summary messages.
const (
	MessageNoOpenOrders = "no open orders for this product"
	MessageNoStock      = "no stock available to allocate"
	MessageAllocated    = "allocation completed"
)

// ActivePolicySource supplies the name of the active allocation policy.
type ActivePolicySource interface {
	GetActivePolicy(ctx context.Context) (string, error)
}

// AllocationService distributes a product's stock across its open orders.
type AllocationService struct {
	ledger   repository.StockLedger
	policies ActivePolicySource
	locker   lock.Locker
	producer *event.Producer
	logger   *slog.Logger
}

// NewAllocationService creates a new allocation service.
func NewAllocationService(
	ledger repository.StockLedger,
	policies ActivePolicySource,
	locker lock.Locker,
	producer *event.Producer,
	logger *slog.Logger,
) *AllocationService {
	return &AllocationService{
		ledger:   ledger,
		policies: policies,
		locker:   locker,
		producer: producer,
		logger:   logger,
	}
}

// RunAllocation runs allocation for a product under the active policy.
func (s *AllocationService) RunAllocation(ctx context.Context, productID int64) (*domain.AllocationSummary, error) {
	name, err := s.policies.GetActivePolicy(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunAllocationWithPolicy(ctx, productID, name)
}

// RunAllocationWithPolicy runs allocation for a product under the named
// policy. The whole run is one transaction: either every grant and the stock
// decrement are applied, or nothing is.
func (s *AllocationService) RunAllocationWithPolicy(ctx context.Context, productID int64, policyName string) (*domain.AllocationSummary, error) {
	if productID <= 0 {
		return nil, apperrors.InvalidInput("product_id must be a positive integer")
	}

	start := time.Now()
	defer func() { AllocationRunDuration.Observe(time.Since(start).Seconds()) }()

	release, err := s.locker.Acquire(ctx, lock.ProductKey(productID))
	if err != nil {
		AllocationRuns.WithLabelValues(resultLockBusy).Inc()
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.ErrorContext(ctx, "failed to release allocation lock",
				slog.Int64("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}()

	summary := &domain.AllocationSummary{
		RunID:       uuid.NewString(),
		ProductID:   productID,
		Allocations: []domain.Grant{},
	}
	var updated *domain.Product

	err = s.ledger.WithinTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}
		summary.StockBefore = product.Stock
		summary.StockAfter = product.Stock

		orders, err := tx.ListOpenOrders(ctx, productID)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			summary.Message = MessageNoOpenOrders
			return nil
		}

		p, fellBack := policy.Resolve(policyName)
		summary.Policy = p.Name()
		summary.PolicyFallback = fellBack
		if fellBack {
			AllocationPolicyFallback.Inc()
			s.logger.WarnContext(ctx, "unknown allocation policy, using default",
				slog.String("configured", policyName),
				slog.String("using", p.Name()),
				slog.Int64("product_id", productID),
			)
		}

		grants := policy.Allocate(p, product.Stock, policy.FromOrders(orders))
		if len(grants) == 0 {
			summary.Message = MessageNoStock
			return nil
		}

		for _, g := range grants {
			if _, err := tx.ApplyGrant(ctx, g); err != nil {
				return err
			}
		}

		total := policy.Total(grants)
		newStock, err := tx.AdjustStock(ctx, productID, -total)
		if err != nil {
			return err
		}

		summary.Allocations = grants
		summary.TotalGranted = total
		summary.StockAfter = newStock
		summary.Message = MessageAllocated

		product.Stock = newStock
		updated = product
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			AllocationRuns.WithLabelValues(resultNotFound).Inc()
			return nil, err
		}
		AllocationRuns.WithLabelValues(resultFailed).Inc()
		s.logger.ErrorContext(ctx, "allocation run failed",
			slog.Int64("product_id", productID),
			slog.String("run_id", summary.RunID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.AllocationFailed(productID, err)
	}

	switch {
	case summary.TotalGranted > 0:
		AllocationRuns.WithLabelValues(resultAllocated).Inc()
		AllocationUnitsGranted.Add(float64(summary.TotalGranted))
	case summary.Message == MessageNoOpenOrders:
		AllocationRuns.WithLabelValues(resultNoOrders).Inc()
	default:
		AllocationRuns.WithLabelValues(resultNoStock).Inc()
	}

	if summary.TotalGranted > 0 {
		if err := s.producer.PublishAllocationCompleted(ctx, summary); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish allocation.completed event",
				slog.Int64("product_id", productID),
				slog.String("run_id", summary.RunID),
				slog.String("error", err.Error()),
			)
		}
		notifyStockLow(ctx, s.producer, s.logger, updated)
	}

	s.logger.InfoContext(ctx, "allocation run completed",
		slog.String("run_id", summary.RunID),
		slog.Int64("product_id", productID),
		slog.String("policy", summary.Policy),
		slog.Bool("policy_fallback", summary.PolicyFallback),
		slog.Int("stock_before", summary.StockBefore),
		slog.Int("stock_after", summary.StockAfter),
		slog.Int("total_granted", summary.TotalGranted),
		slog.Int("orders_served", len(summary.Allocations)),
	)

	return summary, nil
}
