package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
)

// LedgerService audits stock against the records that changed it.
type LedgerService struct {
	movements repository.MovementRepository
	logger    *slog.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(movements repository.MovementRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{movements: movements, logger: logger}
}

// Reconcile compares a product's stock with initial stock plus signed
// movements minus sales and allocations.
func (s *LedgerService) Reconcile(ctx context.Context, productID int64) (*domain.Reconciliation, error) {
	r, err := s.movements.Reconciliation(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("reconcile product %d: %w", productID, err)
	}
	if !r.Balanced {
		s.logger.WarnContext(ctx, "stock ledger out of balance",
			slog.Int64("product_id", productID),
			slog.Int("expected_stock", r.ExpectedStock),
			slog.Int("actual_stock", r.ActualStock),
		)
	}
	return r, nil
}
