package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// MovementService records manual stock adjustments.
type MovementService struct {
	ledger    repository.StockLedger
	movements repository.MovementRepository
	producer  *event.Producer
	logger    *slog.Logger
}

// NewMovementService creates a new movement service.
func NewMovementService(
	ledger repository.StockLedger,
	movements repository.MovementRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *MovementService {
	return &MovementService{
		ledger:    ledger,
		movements: movements,
		producer:  producer,
		logger:    logger,
	}
}

func validateMovement(in *domain.MovementInput) error {
	in.Note = strings.TrimSpace(in.Note)
	switch {
	case in.ProductID <= 0:
		return apperrors.InvalidInput("product_id must be a positive integer")
	case !in.Kind.IsValid():
		return apperrors.InvalidInput(fmt.Sprintf("kind %q is not a valid movement kind", in.Kind))
	case in.Quantity <= 0:
		return apperrors.InvalidInput("quantity must be greater than zero")
	case in.Note == "":
		return apperrors.InvalidInput("note is required")
	}
	return nil
}

// RecordMovement applies the movement's signed quantity to the product's
// stock and appends it to the ledger. A movement that would take stock below
// zero is rejected and leaves no trace.
func (s *MovementService) RecordMovement(ctx context.Context, in domain.MovementInput) (*domain.MovementResult, error) {
	if err := validateMovement(&in); err != nil {
		return nil, err
	}
	if in.ActorID == "" {
		in.ActorID = logger.ActorIDFromContext(ctx)
	}

	var (
		result  *domain.MovementResult
		updated *domain.Product
	)
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		product, err := tx.LockProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}

		delta := in.Kind.Delta(in.Quantity)
		if product.Stock+delta < 0 {
			return apperrors.InsufficientStock(product.Stock, in.Quantity)
		}

		newStock, err := tx.AdjustStock(ctx, in.ProductID, delta)
		if err != nil {
			return err
		}

		m := &domain.Movement{
			ProductID: in.ProductID,
			Kind:      in.Kind,
			Quantity:  in.Quantity,
			ActorID:   in.ActorID,
			Note:      in.Note,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return err
		}

		result = &domain.MovementResult{
			PreviousStock: product.Stock,
			NewStock:      newStock,
			Movement:      m,
		}
		product.Stock = newStock
		updated = product
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}

	StockMovements.WithLabelValues(string(in.Kind)).Inc()

	if err := s.producer.PublishMovementRecorded(ctx, result.Movement, result.NewStock); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish movement.recorded event",
			slog.Int64("movement_id", result.Movement.ID),
			slog.String("error", err.Error()),
		)
	}
	if !in.Kind.IsInbound() {
		notifyStockLow(ctx, s.producer, s.logger, updated)
	}

	s.logger.InfoContext(ctx, "stock movement recorded",
		slog.Int64("movement_id", result.Movement.ID),
		slog.Int64("product_id", in.ProductID),
		slog.String("kind", string(in.Kind)),
		slog.Int("quantity", in.Quantity),
		slog.Int("previous_stock", result.PreviousStock),
		slog.Int("new_stock", result.NewStock),
	)
	return result, nil
}

// ListMovements returns recorded movements, newest first.
func (s *MovementService) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("kind %q is not a valid movement kind", filter.Kind))
	}
	movements, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}
