package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Order status
// ============================================================================

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		requested, allocated int
		want                 OrderStatus
	}{
		{7, 0, OrderStatusPending},
		{7, 3, OrderStatusPartial},
		{7, 7, OrderStatusFulfilled},
		{1, 1, OrderStatusFulfilled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveStatus(tt.requested, tt.allocated),
			"requested=%d allocated=%d", tt.requested, tt.allocated)
	}
}

func TestOrder_RemainingNeedNeverNegative(t *testing.T) {
	assert.Equal(t, 4, (&Order{RequestedQty: 7, AllocatedQty: 3}).RemainingNeed())
	assert.Equal(t, 0, (&Order{RequestedQty: 7, AllocatedQty: 7}).RemainingNeed())
	assert.Equal(t, 0, (&Order{RequestedQty: 5, AllocatedQty: 9}).RemainingNeed())
}

func TestOrder_IsOpen(t *testing.T) {
	assert.True(t, (&Order{Status: OrderStatusPending}).IsOpen())
	assert.True(t, (&Order{Status: OrderStatusPartial}).IsOpen())
	assert.False(t, (&Order{Status: OrderStatusFulfilled}).IsOpen())
}

func TestOrderStatus_IsValid(t *testing.T) {
	assert.True(t, OrderStatusPartial.IsValid())
	assert.False(t, OrderStatus("cancelled").IsValid())
}

// ============================================================================
// Movement kinds
// ============================================================================

func TestMovementKind_Delta(t *testing.T) {
	assert.Equal(t, 10, MovementInboundPurchase.Delta(10))
	assert.Equal(t, 2, MovementInboundReturn.Delta(2))
	assert.Equal(t, -20, MovementOutboundSale.Delta(20))
	assert.Equal(t, -1, MovementOutboundWriteoff.Delta(1))
}

func TestMovementKind_IsValid(t *testing.T) {
	for _, k := range MovementKinds() {
		assert.True(t, k.IsValid(), "kind %q", k)
	}
	assert.False(t, MovementKind("entrada").IsValid())
	assert.False(t, MovementKind("").IsValid())
}

// ============================================================================
// Product low stock
// ============================================================================

func TestProduct_IsLowStock(t *testing.T) {
	tests := []struct {
		name    string
		stock   int
		reorder int
		want    bool
	}{
		{"default threshold below", 4, 0, true},
		{"default threshold at", 5, 0, false},
		{"custom threshold below", 9, 10, true},
		{"custom threshold above", 11, 10, false},
		{"out of stock", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Stock: tt.stock, ReorderPoint: tt.reorder}
			assert.Equal(t, tt.want, p.IsLowStock())
		})
	}
}

// ============================================================================
// Reconciliation
// ============================================================================

func TestNewReconciliation(t *testing.T) {
	r := NewReconciliation(1, 100, 15, 20, 30, 65)
	assert.Equal(t, 65, r.ExpectedStock)
	assert.True(t, r.Balanced)

	r = NewReconciliation(1, 100, 15, 20, 30, 60)
	assert.False(t, r.Balanced)
}
