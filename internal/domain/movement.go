package domain

import "time"

// MovementKind is the reason for a manual stock adjustment.
type MovementKind string

const (
	MovementInboundPurchase  MovementKind = "inbound_purchase"
	MovementInboundReturn    MovementKind = "inbound_return"
	MovementOutboundSale     MovementKind = "outbound_sale"
	MovementOutboundWriteoff MovementKind = "outbound_writeoff"
)

// MovementKinds lists every valid kind.
func MovementKinds() []MovementKind {
	return []MovementKind{
		MovementInboundPurchase,
		MovementInboundReturn,
		MovementOutboundSale,
		MovementOutboundWriteoff,
	}
}

// IsValid reports whether k is one of MovementKinds.
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementInboundPurchase, MovementInboundReturn, MovementOutboundSale, MovementOutboundWriteoff:
		return true
	}
	return false
}

// IsInbound reports whether the kind adds stock.
func (k MovementKind) IsInbound() bool {
	return k == MovementInboundPurchase || k == MovementInboundReturn
}

// Delta is the signed stock change for quantity units of this kind.
func (k MovementKind) Delta(quantity int) int {
	if k.IsInbound() {
		return quantity
	}
	return -quantity
}

// Movement is an append-only ledger entry for a manual stock adjustment.
type Movement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Kind      MovementKind `json:"kind"`
	Quantity  int          `json:"quantity"`
	ActorID   string       `json:"actor_id"`
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}

// MovementInput is a request to record a movement.
type MovementInput struct {
	ProductID int64
	Kind      MovementKind
	Quantity  int
	ActorID   string
	Note      string
}

// MovementResult reports the stock on either side of a recorded movement.
type MovementResult struct {
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Movement      *Movement `json:"movement"`
}

// MovementFilter narrows movement listings. Zero values mean no filter.
type MovementFilter struct {
	ProductID int64
	Kind      MovementKind
	Limit     int
}
