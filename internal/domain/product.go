package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies to products whose reorder point is zero.
const DefaultLowStockThreshold = 5

// Product is a stocked item. Stock is only changed through allocation runs,
// sales and movements, never written directly.
type Product struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Stock        int             `json:"stock"`
	InitialStock int             `json:"initial_stock"`
	ReorderPoint int             `json:"reorder_point"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStockThreshold is the stock level below which the product is low.
func (p *Product) LowStockThreshold() int {
	if p.ReorderPoint > 0 {
		return p.ReorderPoint
	}
	return DefaultLowStockThreshold
}

// IsLowStock reports whether stock is strictly below the threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock < p.LowStockThreshold()
}

// NewProduct carries the fields needed to register a product.
type NewProduct struct {
	Code         string
	Name         string
	InitialStock int
	ReorderPoint int
	UnitPrice    decimal.Decimal
}

// DashboardMetrics are the headline counters shown on the operator dashboard.
type DashboardMetrics struct {
	OutOfStockProducts int   `json:"out_of_stock_products"`
	OpenOrders         int   `json:"open_orders"`
	TotalProducts      int   `json:"total_products"`
	TotalUnits         int64 `json:"total_units"`
}
