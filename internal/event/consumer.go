package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	apperrors "github.com/Cesar4422/proyecto-mau/pkg/errors"
	pkgkafka "github.com/Cesar4422/proyecto-mau/pkg/kafka"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// TopicAllocationRequested carries requests to run allocation for a product.
var TopicAllocationRequested = pkgkafka.Topic("allocation", "requested")

// AllocationRunner is the part of the allocation engine the consumer needs.
type AllocationRunner interface {
	RunAllocation(ctx context.Context, productID int64) (*domain.AllocationSummary, error)
}

// AllocationRequestedData is the expected payload of allocation.requested.
type AllocationRequestedData struct {
	ProductID int64 `json:"product_id"`
}

// Consumer processes incoming Kafka events for the warehouse service.
type Consumer struct {
	logger *slog.Logger
	runner AllocationRunner
}

// NewConsumer creates a new event consumer.
func NewConsumer(runner AllocationRunner, logger *slog.Logger) *Consumer {
	return &Consumer{
		runner: runner,
		logger: logger,
	}
}

// HandleAllocationRequested runs allocation for the requested product.
// Requests for unknown products are dropped rather than retried.
func (c *Consumer) HandleAllocationRequested(ctx context.Context, event *pkgkafka.Event) error {
	var data AllocationRequestedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal allocation.requested data: %w", err)
	}
	if data.ProductID <= 0 {
		c.logger.WarnContext(ctx, "dropping allocation request without product",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	if actor := event.Metadata["actor_id"]; actor != "" {
		ctx = logger.WithActorID(ctx, actor)
	}

	c.logger.InfoContext(ctx, "processing allocation.requested event",
		slog.String("event_id", event.EventID),
		slog.Int64("product_id", data.ProductID),
	)

	summary, err := c.runner.RunAllocation(ctx, data.ProductID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.logger.WarnContext(ctx, "dropping allocation request for unknown product",
				slog.Int64("product_id", data.ProductID),
			)
			return nil
		}
		return fmt.Errorf("run allocation for product %d: %w", data.ProductID, err)
	}

	c.logger.InfoContext(ctx, "allocation request processed",
		slog.Int64("product_id", data.ProductID),
		slog.Int("total_granted", summary.TotalGranted),
	)
	return nil
}
