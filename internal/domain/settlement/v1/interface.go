package settlementv1

import orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"

// Decision is what a Policy wants to happen to a pending order this cycle.
type Decision int

const (
	// Hold keeps the order pending for a later cycle.
	Hold Decision = iota
	// Complete fills the order.
	Complete
	// Reject rejects the order.
	Reject
)

// Outcome carries a decision and, for fills, the price to settle at.
type Outcome struct {
	Decision  Decision
	FillPrice float64
	Reason    string
}

// Policy decides the fate of pending orders. Implementations are called from a single goroutine.
type Policy interface {
	Decide(order *orderv1.Order) Outcome
}
