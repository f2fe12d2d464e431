// Package policy ranks competing orders and draws product stock down across
// them. Everything here is pure: no I/O, no shared state, and inputs are never
// modified.
package policy

import (
	"sort"
	"time"

	"github.com/Cesar4422/proyecto-mau/internal/domain"
)

// Known policy names.
const (
	NameFIFO        = "priority_fifo"
	NameHighest     = "priority_highest"
	NameSmallestQty = "priority_smallest_qty"
	NameClient      = "priority_client"
)

// Candidate is the slice of an open order the ranking rules look at.
type Candidate struct {
	OrderID      int64
	RequestedQty int
	AllocatedQty int
	Priority     int
	SubmittedAt  time.Time
}

// FromOrder builds a Candidate from an order.
func FromOrder(o domain.Order) Candidate {
	return Candidate{
		OrderID:      o.ID,
		RequestedQty: o.RequestedQty,
		AllocatedQty: o.AllocatedQty,
		Priority:     o.Priority,
		SubmittedAt:  o.SubmittedAt,
	}
}

// FromOrders converts a list of orders, preserving their order.
func FromOrders(orders []domain.Order) []Candidate {
	out := make([]Candidate, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}

// Policy is a ranking rule. Less reports whether a is served before b;
// candidates that compare equal keep their input order.
type Policy interface {
	Name() string
	Less(a, b Candidate) bool
}

type rule struct {
	name string
	less func(a, b Candidate) bool
}

func (r rule) Name() string { return r.name }
func (r rule) Less(a, b Candidate) bool { return r.less(a, b) }

func earliestFirst(a, b Candidate) bool { return a.SubmittedAt.Before(b.SubmittedAt) }

func highestFirst(a, b Candidate) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return earliestFirst(a, b)
}

func smallestFirst(a, b Candidate) bool { return a.RequestedQty < b.RequestedQty }

var registry = map[string]Policy{
	NameFIFO:        rule{name: NameFIFO, less: earliestFirst},
	NameHighest:     rule{name: NameHighest, less: highestFirst},
	NameSmallestQty: rule{name: NameSmallestQty, less: smallestFirst},
	NameClient:      rule{name: NameClient, less: highestFirst},
}

// Default returns the policy used when none is configured.
func Default() Policy { return registry[NameFIFO] }

// Resolve looks up a policy by name. Unknown or empty names resolve to the
// default policy and report fellBack so the caller can surface it.
func Resolve(name string) (p Policy, fellBack bool) {
	if p, ok := registry[name]; ok {
		return p, false
	}
	return Default(), true
}

// IsKnown reports whether name is a registered policy.
func IsKnown(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names lists the registered policy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rank returns a copy of orders sorted by p. Ties keep input order.
func Rank(p Policy, orders []Candidate) []Candidate {
	ranked := make([]Candidate, len(orders))
	copy(ranked, orders)
	sort.SliceStable(ranked, func(i, j int) bool {
		return p.Less(ranked[i], ranked[j])
	})
	return ranked
}

// Allocate walks the ranked orders and grants each one as much of its
// remaining need as stock allows. Orders that would receive nothing are
// omitted; the sum of grants never exceeds stock.
func Allocate(p Policy, stock int, orders []Candidate) []domain.Grant {
	grants := make([]domain.Grant, 0, len(orders))
	if stock <= 0 || len(orders) == 0 {
		return grants
	}

	left := stock
	for _, c := range Rank(p, orders) {
		if left == 0 {
			break
		}
		need := c.RequestedQty - c.AllocatedQty
		if need <= 0 {
			continue
		}
		g := min(need, left)
		grants = append(grants, domain.Grant{OrderID: c.OrderID, Quantity: g})
		left -= g
	}
	return grants
}

// Total sums the granted quantities.
func Total(grants []domain.Grant) int {
	total := 0
	for _, g := range grants {
		total += g.Quantity
	}
	return total
}
