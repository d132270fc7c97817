package ledgerv1

import (
	"testing"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var (
	tolerance = decimal.RequireFromString("0.000001")
	symbols   = []string{"AAPL", "MSFT", "GOOG", "TSLA"}
)

func genPrice() *rapid.Generator[decimal.Decimal] {
	return rapid.Custom(func(t *rapid.T) decimal.Decimal {
		cents := rapid.Int64Range(1, 50_000).Draw(t, "cents")
		return decimal.New(cents, -2)
	})
}

func genAccount(t *rapid.T) *Account {
	capital := rapid.Int64Range(0, 2_000_000).Draw(t, "capital_cents")
	a := NewAccount(1, 1, decimal.New(capital, -2))
	lots := rapid.IntRange(0, 4).Draw(t, "lots")
	for i := 0; i < lots; i++ {
		symbol := rapid.SampledFrom(symbols).Draw(t, "seed_symbol")
		quantity := rapid.Uint64Range(1, 10).Draw(t, "seed_quantity")
		_ = a.ApplyBuy(symbol, quantity, genPrice().Draw(t, "seed_price"))
	}
	return a
}

func near(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// A fill at price p moves capital by exactly q*p and keeps the cost basis unchanged.
func TestProperty_BuyConservesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genAccount(t)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		quantity := rapid.Uint64Range(1, 10).Draw(t, "quantity")
		price := genPrice().Draw(t, "price")

		before := a.Clone()
		err := a.ApplyBuy(symbol, quantity, price)
		if err != nil {
			if !errors.HasCode(err, errors.InsufficientCapitalError) {
				t.Fatalf("unexpected error %v", err)
			}
			if !before.Capital.LessThan(money.Notional(quantity, price)) {
				t.Fatalf("rejected a buy the capital covered")
			}
			return
		}

		if !a.Capital.Equal(before.Capital.Sub(money.Notional(quantity, price))) {
			t.Fatalf("capital moved by the wrong amount")
		}
		if !near(a.CostBasis(), before.CostBasis()) {
			t.Fatalf("cost basis changed: %s -> %s", before.CostBasis(), a.CostBasis())
		}
		if a.Capital.IsNegative() {
			t.Fatalf("capital went negative")
		}
	})
}

func TestProperty_BuyWeightedAverage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genAccount(t)
		a.Capital = decimal.NewFromInt(1_000_000)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		quantity := rapid.Uint64Range(1, 10).Draw(t, "quantity")
		price := genPrice().Draw(t, "price")

		prev := a.Holdings[symbol]
		if err := a.ApplyBuy(symbol, quantity, price); err != nil {
			t.Fatalf("unexpected error %v", err)
		}

		expected := money.Notional(prev.Quantity, prev.AverageCost).
			Add(money.Notional(quantity, price)).
			Div(decimal.NewFromUint64(prev.Quantity + quantity))
		got := a.Holdings[symbol]
		if got.Quantity != prev.Quantity+quantity {
			t.Fatalf("quantity %d, want %d", got.Quantity, prev.Quantity+quantity)
		}
		if !near(got.AverageCost, expected) {
			t.Fatalf("average %s, want %s", got.AverageCost, expected)
		}
	})
}

func TestProperty_SellKeepsAverageAndNeverOversells(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genAccount(t)
		symbol := rapid.SampledFrom(symbols).Draw(t, "symbol")
		quantity := rapid.Uint64Range(1, 20).Draw(t, "quantity")
		price := genPrice().Draw(t, "price")

		prev, held := a.Holdings[symbol]
		before := a.Clone()
		err := a.ApplySell(symbol, quantity, price)

		if !held || prev.Quantity < quantity {
			if !errors.HasCode(err, errors.InsufficientSharesError) {
				t.Fatalf("oversell accepted")
			}
			if a.SellCount != before.SellCount || !a.Capital.Equal(before.Capital) {
				t.Fatalf("failed sell mutated the account")
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}

		if !a.Capital.Equal(before.Capital.Add(money.Notional(quantity, price))) {
			t.Fatalf("capital moved by the wrong amount")
		}
		got, still := a.Holdings[symbol]
		if prev.Quantity == quantity {
			if still {
				t.Fatalf("sold-out position still present")
			}
			return
		}
		if got.Quantity != prev.Quantity-quantity || !got.AverageCost.Equal(prev.AverageCost) {
			t.Fatalf("sell changed average cost or quantity wrong")
		}
	})
}
