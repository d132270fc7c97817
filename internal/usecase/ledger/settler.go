package ledger

import (
	"context"
	"sync/atomic"

	dedupev1 "github.com/muhammadchandra19/market-simulator/internal/domain/dedupe/v1"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
)

// Result tells the caller what a settlement did to the account.
type Result int

const (
	// ResultVoid means nothing was applied.
	ResultVoid Result = iota
	// ResultApplied means a fill moved capital and holdings.
	ResultApplied
	// ResultRejected means the order was rejected upstream; the account is unchanged.
	ResultRejected
	// ResultDuplicate means the order id was already settled.
	ResultDuplicate
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultRejected:
		return "rejected"
	case ResultDuplicate:
		return "duplicate"
	default:
		return "void"
	}
}

// Stats are the settler's running counters.
type Stats struct {
	Applied         uint64
	Rejected        uint64
	Duplicates      uint64
	Violations      uint64
	PersistFailures uint64
}

// Settler applies terminal orders to accounts exactly once per order id.
type Settler struct {
	gate   dedupev1.Gate
	repo   ledgerv1.Repository
	logger logger.Interface

	applied         atomic.Uint64
	rejected        atomic.Uint64
	duplicates      atomic.Uint64
	violations      atomic.Uint64
	persistFailures atomic.Uint64
}

// NewSettler creates a Settler.
func NewSettler(gate dedupev1.Gate, repo ledgerv1.Repository, log logger.Interface) *Settler {
	return &Settler{
		gate:   gate,
		repo:   repo,
		logger: log,
	}
}

// Apply settles order against account. The caller must own account exclusively.
//
// Duplicates, rejections and ledger invariant violations are logged and counted here and
// Apply returns a nil error for them. An unusable order or an unreachable dedupe gate returns
// an error with nothing applied. A persist failure returns ResultApplied with the error: the
// in-memory account stays authoritative and the next successful Save catches the store up.
func (s *Settler) Apply(ctx context.Context, account *ledgerv1.Account, order *orderv1.Order) (Result, error) {
	if !order.IsTerminal() {
		return ResultVoid, errors.NewErrorDetails("order is not terminal", string(errors.InvalidOrderError), "status")
	}
	if order.ClientID != account.ClientID {
		return ResultVoid, errors.NewErrorDetails("order belongs to another client", string(errors.ForeignClientError), "client_id")
	}
	if order.OrderAction != orderv1.SideBuy && order.OrderAction != orderv1.SideSell {
		return ResultVoid, errors.NewErrorDetails("order action cannot be settled", string(errors.InvalidOrderError), "order_action")
	}

	fresh, err := s.gate.MarkIfNew(ctx, order.OrderID)
	if err != nil {
		return ResultVoid, errors.NewTracer("failed to consult settlement gate").Wrap(
			errors.NewErrorDetails(err.Error(), string(errors.SettlementGateUnavailableError), "order_id"))
	}
	if !fresh {
		s.duplicates.Add(1)
		s.logger.WarnContext(ctx, "duplicate settlement ignored",
			logger.NewField("code", errors.SettlementDuplicateError),
			logger.NewField("client_id", order.ClientID),
			logger.NewField("status", order.Status),
		)
		return ResultDuplicate, nil
	}

	if order.Status == orderv1.StatusRejected {
		s.rejected.Add(1)
		s.logger.DebugContext(ctx, "order rejected",
			logger.NewField("client_id", order.ClientID),
			logger.NewField("symbol", order.StockSymbol),
		)
		return ResultRejected, nil
	}

	price := money.FromFloat(order.Price)
	if order.OrderAction == orderv1.SideBuy {
		err = account.ApplyBuy(order.StockSymbol, order.Quantity, price)
	} else {
		err = account.ApplySell(order.StockSymbol, order.Quantity, price)
	}
	if err != nil {
		s.violations.Add(1)
		s.logger.ErrorContext(ctx, errors.NewTracer("ledger invariant violation").Wrap(err),
			logger.NewField("code", errors.CodeOf(err)),
			logger.NewField("client_id", order.ClientID),
			logger.NewField("symbol", order.StockSymbol),
			logger.NewField("side", order.OrderAction),
			logger.NewField("quantity", order.Quantity),
			logger.NewField("price", order.Price),
		)
		return ResultVoid, nil
	}
	s.applied.Add(1)

	s.logger.InfoContext(ctx, "order settled",
		logger.NewField("client_id", order.ClientID),
		logger.NewField("symbol", order.StockSymbol),
		logger.NewField("side", order.OrderAction),
		logger.NewField("quantity", order.Quantity),
		logger.NewField("price", order.Price),
		logger.NewField("capital", money.ToFloat(account.Capital)),
	)

	if err := s.repo.Save(context.WithoutCancel(ctx), account); err != nil {
		s.persistFailures.Add(1)
		return ResultApplied, errors.NewTracer("failed to persist account").Wrap(err)
	}
	return ResultApplied, nil
}

// Stats returns a copy of the counters.
func (s *Settler) Stats() Stats {
	return Stats{
		Applied:         s.applied.Load(),
		Rejected:        s.rejected.Load(),
		Duplicates:      s.duplicates.Load(),
		Violations:      s.violations.Load(),
		PersistFailures: s.persistFailures.Load(),
	}
}
