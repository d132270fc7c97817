package settlement

import (
	"fmt"
	"math"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	settlementv1 "github.com/muhammadchandra19/market-simulator/internal/domain/settlement/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
)

// Random is the randomness a Stochastic policy draws from.
type Random interface {
	Float64() float64
}

// Stochastic completes, rejects or holds each order with fixed probabilities.
type Stochastic struct {
	CompleteRatio float64
	RejectRatio   float64
	// Slippage moves the fill price of every completed order, buys and sells alike.
	Slippage float64

	rnd Random
}

// NewStochastic creates a Stochastic policy.
func NewStochastic(completeRatio, rejectRatio, slippage float64, rnd Random) *Stochastic {
	return &Stochastic{
		CompleteRatio: completeRatio,
		RejectRatio:   rejectRatio,
		Slippage:      slippage,
		rnd:           rnd,
	}
}

// Decide implements settlementv1.Policy.
func (s *Stochastic) Decide(order *orderv1.Order) settlementv1.Outcome {
	u := s.rnd.Float64()
	switch {
	case u < s.CompleteRatio:
		return settlementv1.Outcome{
			Decision:  settlementv1.Complete,
			FillPrice: money.Round2(order.Price * (1 + s.Slippage)),
		}
	case u < s.CompleteRatio+s.RejectRatio:
		return settlementv1.Outcome{Decision: settlementv1.Reject, Reason: "rejected by market"}
	default:
		return settlementv1.Outcome{Decision: settlementv1.Hold}
	}
}

// PriceSource returns the latest market price of a symbol.
type PriceSource interface {
	Price(symbol string) (float64, bool)
}

// PriceBand rejects limit orders priced too far from the market and defers everything else to Next.
type PriceBand struct {
	Next   settlementv1.Policy
	Prices PriceSource
	// MaxDeviation is the largest accepted |limit/market - 1|. Zero disables the band.
	MaxDeviation float64
}

// Decide implements settlementv1.Policy.
func (p *PriceBand) Decide(order *orderv1.Order) settlementv1.Outcome {
	if p.MaxDeviation > 0 && order.OrderType == orderv1.KindLimit {
		if market, ok := p.Prices.Price(order.StockSymbol); ok && market > 0 {
			if deviation := math.Abs(order.Price/market - 1); deviation > p.MaxDeviation {
				return settlementv1.Outcome{
					Decision: settlementv1.Reject,
					Reason:   fmt.Sprintf("limit deviates %.2f%% from market", deviation*100),
				}
			}
		}
	}
	return p.Next.Decide(order)
}
