// Package generator produces the randomized per-client order candidates of a market cycle.
package generator

import (
	"context"
	"math"
	"sort"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
)

// Random is the source of randomness. *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// Config tunes a generation cycle.
type Config struct {
	MaxOrdersPerCycle int
	LimitProbability  float64
	MinQuantity       uint64
	MaxQuantity       uint64
	// StopBand is the +/- fraction around the market price recorded for admitted buys.
	StopBand float64
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		MaxOrdersPerCycle: 3,
		LimitProbability:  0.7,
		MinQuantity:       1,
		MaxQuantity:       10,
		StopBand:          0.10,
	}
}

type bucket struct {
	weight float64
	lo, hi float64
}

// Limit price modifiers: mostly near the market, occasionally far off it.
var buckets = []bucket{
	{weight: 0.90, lo: 0.8, hi: 1.2},
	{weight: 0.05, lo: 0.7, hi: 0.8},
	{weight: 0.05, lo: 1.2, hi: 1.3},
}

// Candidate is an admitted order together with its exit band, if any.
type Candidate struct {
	Order *orderv1.Order
	Stop  *orderv1.StopLossTakeProfit
}

// Generator draws orders for one client. It is not safe for concurrent use
// because the Random it wraps usually is not.
type Generator struct {
	cfg    Config
	rnd    Random
	logger logger.Interface
}

// New creates a Generator.
func New(cfg Config, rnd Random, log logger.Interface) *Generator {
	if cfg.MinQuantity == 0 {
		cfg.MinQuantity = 1
	}
	if cfg.MaxQuantity < cfg.MinQuantity {
		cfg.MaxQuantity = cfg.MinQuantity
	}
	// the quantity draw goes through IntN
	if cfg.MaxQuantity-cfg.MinQuantity >= math.MaxInt32 {
		cfg.MaxQuantity = cfg.MinQuantity + math.MaxInt32 - 1
	}
	return &Generator{
		cfg:    cfg,
		rnd:    rnd,
		logger: log,
	}
}

// Generate returns the admitted candidates for account against prices. Candidates carry
// an empty order id; the caller assigns one when it accepts them. The account is only read.
func (g *Generator) Generate(ctx context.Context, account *ledgerv1.Account, prices map[string]float64) []Candidate {
	symbols := make([]string, 0, len(prices))
	for symbol := range prices {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		qi, qj := account.Quantity(symbols[i]), account.Quantity(symbols[j])
		if qi != qj {
			return qi < qj
		}
		return symbols[i] < symbols[j]
	})

	candidates := make([]Candidate, 0, g.cfg.MaxOrdersPerCycle)
	for _, symbol := range symbols {
		if len(candidates) >= g.cfg.MaxOrdersPerCycle {
			break
		}
		if c, ok := g.attempt(ctx, account, symbol, prices[symbol]); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func (g *Generator) attempt(ctx context.Context, account *ledgerv1.Account, symbol string, market float64) (Candidate, bool) {
	held := account.Quantity(symbol)

	side := orderv1.SideBuy
	if held > 0 && g.rnd.Float64() < 0.5 {
		side = orderv1.SideSell
	}

	kind := orderv1.KindMarket
	price := market
	if g.rnd.Float64() < g.cfg.LimitProbability {
		kind = orderv1.KindLimit
		price = market * g.modifier()
	}
	price = money.Round2(price)

	span := int(g.cfg.MaxQuantity - g.cfg.MinQuantity + 1)
	quantity := g.cfg.MinQuantity + uint64(g.rnd.IntN(span))

	if price <= 0 {
		g.reject(ctx, account, symbol, side, "price rounds to zero")
		return Candidate{}, false
	}

	switch side {
	case orderv1.SideSell:
		if held < quantity {
			g.reject(ctx, account, symbol, side, "holding does not cover the sell")
			return Candidate{}, false
		}
	case orderv1.SideBuy:
		if account.Capital.LessThan(money.Notional(quantity, money.FromFloat(price))) {
			g.reject(ctx, account, symbol, side, "capital does not cover the buy")
			return Candidate{}, false
		}
	}

	c := Candidate{
		Order: &orderv1.Order{
			BrokerID:    account.BrokerID,
			ClientID:    account.ClientID,
			StockSymbol: symbol,
			OrderType:   kind,
			OrderAction: side,
			Price:       price,
			Quantity:    quantity,
			Status:      orderv1.StatusPending,
		},
	}
	if side == orderv1.SideBuy {
		stop := orderv1.NewStopLossTakeProfit("", symbol, market, g.cfg.StopBand)
		c.Stop = &stop
	}
	return c, true
}

func (g *Generator) modifier() float64 {
	u := g.rnd.Float64()
	chosen := buckets[len(buckets)-1]
	acc := 0.0
	for _, b := range buckets {
		acc += b.weight
		if u < acc {
			chosen = b
			break
		}
	}
	return chosen.lo + g.rnd.Float64()*(chosen.hi-chosen.lo)
}

func (g *Generator) reject(ctx context.Context, account *ledgerv1.Account, symbol string, side orderv1.Side, reason string) {
	g.logger.DebugContext(ctx, reason,
		logger.NewField("code", errors.AdmissionRejectedError),
		logger.NewField("client_id", account.ClientID),
		logger.NewField("symbol", symbol),
		logger.NewField("side", side),
	)
}
