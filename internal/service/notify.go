package service

import (
	"context"
	"log/slog"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	"github.com/Cesar4422/proyecto-mau/internal/event"
)

// notifyStockLow publishes stock.low when the product is below its
// threshold. It runs after commit; failures are only logged.
func notifyStockLow(ctx context.Context, producer *event.Producer, logger *slog.Logger, product *domain.Product) {
	if product == nil || !product.IsLowStock() {
		return
	}
	LowStockEvents.Inc()
	if err := producer.PublishStockLow(ctx, product); err != nil {
		logger.ErrorContext(ctx, "failed to publish stock.low event",
			slog.Int64("product_id", product.ID),
			slog.Int("stock", product.Stock),
			slog.String("error", err.Error()),
		)
	}
}
