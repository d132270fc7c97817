// Package settlement decides the fate of pending orders and emits them as completed or rejected.
package settlement

import (
	"context"
	"sync"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	settlementv1 "github.com/muhammadchandra19/market-simulator/internal/domain/settlement/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
)

// Stats are the simulator's running counters.
type Stats struct {
	Submitted  uint64
	Completed  uint64
	Rejected   uint64
	Duplicates uint64
	Requeued   uint64
}

// DefaultDecidedWindow is how many decided order ids a Simulator remembers by default.
const DefaultDecidedWindow = 1 << 16

// Simulator queues pending orders and resolves them once per cycle. Every order id
// transitions out of Pending at most once while it is pending or among the most recently
// decided ids; older decided ids are forgotten to keep memory bounded.
type Simulator struct {
	policy settlementv1.Policy
	logger logger.Interface

	mu      sync.Mutex
	pending []*orderv1.Order
	seen    map[string]struct{}
	// decided is a ring of the last len(decided) decided ids; next is the slot to overwrite.
	decided []string
	next    int
	outbox  []*orderv1.Order
	stats   Stats
}

// NewSimulator creates a Simulator that remembers up to window decided order ids.
// A window of zero or less uses DefaultDecidedWindow.
func NewSimulator(policy settlementv1.Policy, log logger.Interface, window int) *Simulator {
	if window <= 0 {
		window = DefaultDecidedWindow
	}
	return &Simulator{
		policy:  policy,
		logger:  log,
		seen:    make(map[string]struct{}),
		decided: make([]string, window),
	}
}

// forget records orderID as decided and evicts the oldest decided id once the window is full.
func (s *Simulator) forget(orderID string) {
	if old := s.decided[s.next]; old != "" {
		delete(s.seen, old)
	}
	s.decided[s.next] = orderID
	s.next = (s.next + 1) % len(s.decided)
}

// Submit queues order for settlement. It returns false without error for an id that is
// already pending or decided. Orders that are not Pending or cannot be routed back are refused.
// A routable Pending order with an action other than Buy or Sell is rejected on the next cycle.
func (s *Simulator) Submit(ctx context.Context, order *orderv1.Order) (bool, error) {
	if order.Status != orderv1.StatusPending {
		return false, errors.NewErrorDetails("only pending orders can be settled", string(errors.InvalidOrderError), "status")
	}
	if order.OrderID == "" {
		return false, errors.NewErrorDetails("order id is required", string(errors.InvalidOrderError), "order_id")
	}
	if order.BrokerID == 0 || order.ClientID == 0 {
		return false, errors.NewErrorDetails("order cannot be routed back", string(errors.InvalidOrderError), "broker_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[order.OrderID]; ok {
		s.stats.Duplicates++
		s.logger.WarnContext(ctx, "order already submitted",
			logger.NewField("code", errors.SettlementDuplicateError),
		)
		return false, nil
	}
	s.seen[order.OrderID] = struct{}{}
	s.stats.Submitted++

	queued := order.Clone()
	if err := queued.Validate(); err != nil {
		s.logger.WarnContext(ctx, "invalid order rejected",
			logger.NewField("code", errors.CodeOf(err)),
			logger.NewField("reason", err.Error()),
		)
		queued.Status = orderv1.StatusRejected
		s.stats.Rejected++
		s.forget(queued.OrderID)
		s.outbox = append(s.outbox, queued)
		return true, nil
	}

	s.pending = append(s.pending, queued)
	return true, nil
}

// Cycle resolves the pending queue in FIFO order and returns every order to emit:
// requeued emissions first, then this cycle's decisions. Held orders keep their place.
func (s *Simulator) Cycle(ctx context.Context) []*orderv1.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	emit := s.outbox
	s.outbox = nil

	kept := s.pending[:0]
	for _, order := range s.pending {
		outcome := s.policy.Decide(order)
		switch outcome.Decision {
		case settlementv1.Complete:
			order.Status = orderv1.StatusCompleted
			order.Price = outcome.FillPrice
			s.stats.Completed++
			s.forget(order.OrderID)
			emit = append(emit, order)
		case settlementv1.Reject:
			order.Status = orderv1.StatusRejected
			s.stats.Rejected++
			s.logger.DebugContext(ctx, "order rejected",
				logger.NewField("order_id", order.OrderID),
				logger.NewField("reason", outcome.Reason),
			)
			s.forget(order.OrderID)
			emit = append(emit, order)
		default:
			kept = append(kept, order)
		}
	}
	for i := len(kept); i < len(s.pending); i++ {
		s.pending[i] = nil
	}
	s.pending = kept

	return emit
}

// Requeue returns decided orders whose publish failed; they lead the next cycle's emissions.
func (s *Simulator) Requeue(orders ...*orderv1.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Requeued += uint64(len(orders))
	outbox := make([]*orderv1.Order, 0, len(orders)+len(s.outbox))
	outbox = append(outbox, orders...)
	s.outbox = append(outbox, s.outbox...)
}

// Pending returns the number of orders still waiting for a decision.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stats returns a copy of the counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
