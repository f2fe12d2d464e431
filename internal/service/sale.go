package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// SalesService records direct point-of-sale deductions.
type SalesService struct {
	ledger   repository.StockLedger
	producer *event.Producer
	logger   *slog.Logger
}

// NewSalesService creates a new sales service.
func NewSalesService(ledger repository.StockLedger, producer *event.Producer, logger *slog.Logger) *SalesService {
	return &SalesService{ledger: ledger, producer: producer, logger: logger}
}

// RecordSale deducts quantity from the product's stock. The sale is all or
// nothing: if stock is short it fails with the quantity available.
func (s *SalesService) RecordSale(ctx context.Context, productID int64, quantity int) (*domain.SaleResult, error) {
	if productID <= 0 {
		return nil, apperrors.InvalidInput("product_id must be a positive integer")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than zero")
	}

	var (
		result  *domain.SaleResult
		updated *domain.Product
	)
	err := s.ledger.WithinTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}
		if product.Stock < quantity {
			return apperrors.InsufficientStock(product.Stock, quantity)
		}

		newStock, err := tx.AdjustStock(ctx, productID, -quantity)
		if err != nil {
			return err
		}

		sale := &domain.Sale{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.UnitPrice,
			Amount:    product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
			ActorID:   logger.ActorIDFromContext(ctx),
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		result = &domain.SaleResult{Sale: sale, PreviousStock: product.Stock, NewStock: newStock}
		product.Stock = newStock
		updated = product
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	SalesRecorded.Inc()

	if err := s.producer.PublishSaleRecorded(ctx, result.Sale, result.NewStock); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.recorded event",
			slog.Int64("sale_id", result.Sale.ID),
			slog.String("error", err.Error()),
		)
	}
	notifyStockLow(ctx, s.producer, s.logger, updated)

	s.logger.InfoContext(ctx, "sale recorded",
		slog.Int64("sale_id", result.Sale.ID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
		slog.String("amount", result.Sale.Amount.StringFixed(2)),
		slog.Int("new_stock", result.NewStock),
	)
	return result, nil
}
