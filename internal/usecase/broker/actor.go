package broker

import (
	"context"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/generator"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
)

// actor owns one client. Every field is touched only by the goroutine draining inbox.
type actor struct {
	clientID uint64
	inbox    chan func()

	account *ledgerv1.Account
	gen     *generator.Generator
	rnd     generator.Random
	stops   map[string]orderv1.StopLossTakeProfit
}

func (a *actor) run() {
	for fn := range a.inbox {
		fn()
	}
}

// ensureAccount loads the account on first use, seeding a fresh one when the store has none.
func (b *Broker) ensureAccount(ctx context.Context, a *actor) error {
	if a.account != nil {
		return nil
	}

	account, err := b.repo.Load(ctx, b.cfg.BrokerID, a.clientID)
	switch {
	case err == nil:
		a.account = account
		return nil
	case errors.HasCode(err, errors.AccountNotFoundError):
	case errors.HasCode(err, errors.SnapshotUnavailableError):
		return err
	default:
		return errors.NewTracer(err.Error()).Wrap(
			errors.NewErrorDetails("ledger store unavailable", string(errors.SnapshotUnavailableError), "account"))
	}

	capital := b.cfg.MinCapital
	if b.cfg.MaxCapital > b.cfg.MinCapital {
		capital += a.rnd.Float64() * (b.cfg.MaxCapital - b.cfg.MinCapital)
	}
	a.account = ledgerv1.NewAccount(b.cfg.BrokerID, a.clientID, money.FromFloat(money.Round2(capital)))

	if err := b.repo.Save(context.WithoutCancel(ctx), a.account); err != nil {
		b.logger.ErrorContext(ctx, err,
			logger.NewField("client_id", a.clientID),
			logger.NewField("operation", "seed account"),
		)
	}
	b.logger.InfoContext(ctx, "client account opened",
		logger.NewField("client_id", a.clientID),
		logger.NewField("capital", money.ToFloat(a.account.Capital)),
	)
	return nil
}

// generate runs one generation cycle and assigns ids to the admitted orders.
func (b *Broker) generate(ctx context.Context, a *actor, prices map[string]float64) []*orderv1.Order {
	if err := b.ensureAccount(ctx, a); err != nil {
		b.logger.WarnContext(ctx, "client skips this cycle",
			logger.NewField("code", errors.SnapshotUnavailableError),
			logger.NewField("client_id", a.clientID),
			logger.NewField("reason", err.Error()),
		)
		return nil
	}

	b.checkStops(ctx, a, prices)

	candidates := a.gen.Generate(ctx, a.account, prices)
	orders := make([]*orderv1.Order, 0, len(candidates))
	for _, c := range candidates {
		c.Order.OrderID = b.allocator.NextID()
		if c.Stop != nil {
			c.Stop.OrderID = c.Order.OrderID
			a.stops[c.Order.OrderID] = *c.Stop
		}
		orders = append(orders, c.Order)
	}
	return orders
}

// checkStops reports exit bands crossed by the latest prices. Nothing is traded on them.
func (b *Broker) checkStops(ctx context.Context, a *actor, prices map[string]float64) {
	for _, stop := range a.stops {
		price, ok := prices[stop.Symbol]
		if !ok {
			continue
		}
		var event string
		switch stop.Check(price) {
		case orderv1.TriggerStopLoss:
			event = "stop loss reached"
		case orderv1.TriggerTakeProfit:
			event = "take profit reached"
		default:
			continue
		}
		b.logger.InfoContext(ctx, event,
			logger.NewField("client_id", a.clientID),
			logger.NewField("order_id", stop.OrderID),
			logger.NewField("symbol", stop.Symbol),
			logger.NewField("price", price),
		)
	}
}
