package domain

import "time"

// OrderStatus is derived from allocated vs requested quantity.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusFulfilled OrderStatus = "fulfilled"
)

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPartial, OrderStatusFulfilled:
		return true
	}
	return false
}

// DeriveStatus computes the status for the given quantities. The database
// computes the same expression as a generated column.
func DeriveStatus(requested, allocated int) OrderStatus {
	switch {
	case allocated <= 0:
		return OrderStatusPending
	case allocated >= requested:
		return OrderStatusFulfilled
	default:
		return OrderStatusPartial
	}
}

// Order is a request for stock of one product. RequestedQty and SubmittedAt
// never change after creation; AllocatedQty only grows.
type Order struct {
	ID           int64       `json:"id"`
	ProductID    int64       `json:"product_id"`
	RequestedQty int         `json:"requested_qty"`
	AllocatedQty int         `json:"allocated_qty"`
	Priority     int         `json:"priority"`
	ClientRef    string      `json:"client_ref"`
	Status       OrderStatus `json:"status"`
	CreatedBy    string      `json:"created_by,omitempty"`
	SubmittedAt  time.Time   `json:"submitted_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// RemainingNeed is how much more the order can receive, never negative.
func (o *Order) RemainingNeed() int {
	if n := o.RequestedQty - o.AllocatedQty; n > 0 {
		return n
	}
	return 0
}

// IsOpen reports whether the order still takes part in allocation runs.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartial
}

// NewOrder carries the fields accepted by order intake.
type NewOrder struct {
	ProductID    int64
	RequestedQty int
	Priority     int
	ClientRef    string
	ActorID      string
}

// OrderFilter narrows order listings. Zero values mean no filter.
type OrderFilter struct {
	Status    OrderStatus
	ProductID int64
	Limit     int
}
