package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestGenerator_AdmissionProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.MaxOrdersPerCycle = rapid.IntRange(0, 6).Draw(t, "max")

		account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(rapid.Int64Range(0, 20000).Draw(t, "capital")))
		prices := make(map[string]float64)
		n := rapid.IntRange(0, 8).Draw(t, "symbols")
		for i := 0; i < n; i++ {
			symbol := fmt.Sprintf("S%d", i)
			prices[symbol] = money.Round2(rapid.Float64Range(0, 500).Draw(t, "price"))
			if held := rapid.Uint64Range(0, 12).Draw(t, "held"); held > 0 {
				account.Holdings[symbol] = ledgerv1.Holding{Quantity: held, AverageCost: decimal.NewFromInt(10)}
			}
		}

		rnd := rand.New(rand.NewPCG(rapid.Uint64().Draw(t, "seed"), 7))
		candidates := New(cfg, rnd, logger.NewNopLogger()).Generate(context.Background(), account, prices)

		if len(candidates) > cfg.MaxOrdersPerCycle {
			t.Fatalf("%d candidates exceed the cap of %d", len(candidates), cfg.MaxOrdersPerCycle)
		}
		for _, c := range candidates {
			o := c.Order
			if o.Quantity < cfg.MinQuantity || o.Quantity > cfg.MaxQuantity {
				t.Fatalf("quantity %d out of range", o.Quantity)
			}
			if o.Price <= 0 {
				t.Fatalf("non-positive price %v", o.Price)
			}
			if o.Status != orderv1.StatusPending || o.OrderID != "" {
				t.Fatalf("unexpected identity %q/%s", o.OrderID, o.Status)
			}
			switch o.OrderAction {
			case orderv1.SideSell:
				if held := account.Quantity(o.StockSymbol); held < o.Quantity {
					t.Fatalf("sell of %d admitted with %d held", o.Quantity, held)
				}
			case orderv1.SideBuy:
				if account.Capital.LessThan(money.Notional(o.Quantity, money.FromFloat(o.Price))) {
					t.Fatalf("buy of %d@%v admitted with capital %s", o.Quantity, o.Price, account.Capital)
				}
			default:
				t.Fatalf("unexpected action %s", o.OrderAction)
			}
		}
	})
}
