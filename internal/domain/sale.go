package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immediate point-of-sale deduction. It is all or nothing.
type Sale struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	ActorID   string          `json:"actor_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaleResult reports a recorded sale with the stock on either side of it.
type SaleResult struct {
	Sale          *Sale `json:"sale"`
	PreviousStock int   `json:"previous_stock"`
	NewStock      int   `json:"new_stock"`
}

// Reconciliation compares a product's stock with the stock implied by its
// history.
type Reconciliation struct {
	ProductID      int64 `json:"product_id"`
	InitialStock   int   `json:"initial_stock"`
	MovementsNet   int   `json:"movements_net"`
	SoldUnits      int   `json:"sold_units"`
	AllocatedUnits int   `json:"allocated_units"`
	ExpectedStock  int   `json:"expected_stock"`
	ActualStock    int   `json:"actual_stock"`
	Balanced       bool  `json:"balanced"`
}

// NewReconciliation computes ExpectedStock and Balanced from the totals.
func NewReconciliation(productID int64, initial, movementsNet, sold, allocated, actual int) *Reconciliation {
	expected := initial + movementsNet - sold - allocated
	return &Reconciliation{
		ProductID:      productID,
		InitialStock:   initial,
		MovementsNet:   movementsNet,
		SoldUnits:      sold,
		AllocatedUnits: allocated,
		ExpectedStock:  expected,
		ActualStock:    actual,
		Balanced:       expected == actual,
	}
}
