package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
	pkgkafka "github.com/Cesar4422/proyecto-mau/pkg/kafka"
	"github.com/Cesar4422/proyecto-mau/pkg/logger"
)

// Topics published by the warehouse service.
var (
	TopicAllocationCompleted = pkgkafka.Topic("allocation", "completed")
	TopicMovementRecorded    = pkgkafka.Topic("movement", "recorded")
	TopicSaleRecorded        = pkgkafka.Topic("sale", "recorded")
	TopicStockLow            = pkgkafka.Topic("stock", "low")
)

// Aggregate types.
const (
	AggregateTypeProduct = "product"
	AggregateTypeSale    = "sale"
)

// SourceWarehouseService identifies events emitted by this service.
const SourceWarehouseService = "warehouse-service"

// AllocationCompletedData is the payload for allocation.completed.
type AllocationCompletedData struct {
	RunID          string         `json:"run_id"`
	ProductID      int64          `json:"product_id"`
	Policy         string         `json:"policy"`
	PolicyFallback bool           `json:"policy_fallback"`
	StockBefore    int            `json:"stock_before"`
	StockAfter     int            `json:"stock_after"`
	TotalGranted   int            `json:"total_granted"`
	Allocations    []domain.Grant `json:"allocations"`
}

// MovementRecordedData is the payload for movement.recorded.
type MovementRecordedData struct {
	MovementID int64  `json:"movement_id"`
	ProductID  int64  `json:"product_id"`
	Kind       string `json:"kind"`
	Quantity   int    `json:"quantity"`
	Delta      int    `json:"delta"`
	NewStock   int    `json:"new_stock"`
	ActorID    string `json:"actor_id"`
}

// SaleRecordedData is the payload for sale.recorded.
type SaleRecordedData struct {
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	NewStock  int             `json:"new_stock"`
	ActorID   string          `json:"actor_id"`
}

// StockLowData is the payload for stock.low.
type StockLowData struct {
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// Producer publishes warehouse domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer on top of any publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceWarehouseService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if actor := logger.ActorIDFromContext(ctx); actor != "" {
		event.WithMetadata("actor_id", actor)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

func productKey(id int64) string { return strconv.FormatInt(id, 10) }

// PublishAllocationCompleted publishes an allocation.completed event.
func (p *Producer) PublishAllocationCompleted(ctx context.Context, s *domain.AllocationSummary) error {
	return p.publish(ctx, TopicAllocationCompleted, productKey(s.ProductID), AggregateTypeProduct, AllocationCompletedData{
		RunID:          s.RunID,
		ProductID:      s.ProductID,
		Policy:         s.Policy,
		PolicyFallback: s.PolicyFallback,
		StockBefore:    s.StockBefore,
		StockAfter:     s.StockAfter,
		TotalGranted:   s.TotalGranted,
		Allocations:    s.Allocations,
	})
}

// PublishMovementRecorded publishes a movement.recorded event.
func (p *Producer) PublishMovementRecorded(ctx context.Context, m *domain.Movement, newStock int) error {
	return p.publish(ctx, TopicMovementRecorded, productKey(m.ProductID), AggregateTypeProduct, MovementRecordedData{
		MovementID: m.ID,
		ProductID:  m.ProductID,
		Kind:       string(m.Kind),
		Quantity:   m.Quantity,
		Delta:      m.Kind.Delta(m.Quantity),
		NewStock:   newStock,
		ActorID:    m.ActorID,
	})
}

// PublishSaleRecorded publishes a sale.recorded event keyed by product so it
// stays ordered with the product's other stock events.
func (p *Producer) PublishSaleRecorded(ctx context.Context, s *domain.Sale, newStock int) error {
	return p.publish(ctx, TopicSaleRecorded, productKey(s.ProductID), AggregateTypeSale, SaleRecordedData{
		SaleID:    s.ID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		Amount:    s.Amount,
		NewStock:  newStock,
		ActorID:   s.ActorID,
	})
}

// PublishStockLow publishes a stock.low event.
func (p *Producer) PublishStockLow(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicStockLow, productKey(product.ID), AggregateTypeProduct, StockLowData{
		ProductID: product.ID,
		Code:      product.Code,
		Stock:     product.Stock,
		Threshold: product.LowStockThreshold(),
	})
}
