package domain

import "time"

// DefaultPolicyName is used when no allocation policy is active.
const DefaultPolicyName = "priority_fifo"

// AllocationPolicy is a configured ranking rule. Exactly one is active.
type AllocationPolicy struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grant is the quantity one order receives in an allocation run.
type Grant struct {
	OrderID  int64 `json:"order_id"`
	Quantity int   `json:"quantity_granted"`
}

// AllocationSummary describes a completed allocation run.
type AllocationSummary struct {
	RunID          string  `json:"run_id"`
	ProductID      int64   `json:"product_id"`
	Policy         string  `json:"policy"`
	PolicyFallback bool    `json:"policy_fallback"`
	StockBefore    int     `json:"stock_before"`
	StockAfter     int     `json:"stock_after"`
	TotalGranted   int     `json:"total_granted"`
	Allocations    []Grant `json:"allocations"`
	Message        string  `json:"message"`
}
