package ledgerv1

import (
	"sort"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
	"github.com/shopspring/decimal"
)

// Holding is the position a client keeps in one symbol.
type Holding struct {
	Quantity    uint64
	AverageCost decimal.Decimal
}

// Account is the ledger state of one trading client.
// It is not safe for concurrent use; a single owner serializes access.
type Account struct {
	BrokerID  uint64
	ClientID  uint64
	Capital   decimal.Decimal
	Holdings  map[string]Holding
	BuyCount  uint64
	SellCount uint64
}

// NewAccount opens an account with seed capital and no holdings.
func NewAccount(brokerID, clientID uint64, capital decimal.Decimal) *Account {
	return &Account{
		BrokerID: brokerID,
		ClientID: clientID,
		Capital:  capital,
		Holdings: make(map[string]Holding),
	}
}

// Quantity returns the held quantity of symbol, zero when absent.
func (a *Account) Quantity(symbol string) uint64 {
	return a.Holdings[symbol].Quantity
}

// Symbols returns the held symbols in name order.
func (a *Account) Symbols() []string {
	symbols := make([]string, 0, len(a.Holdings))
	for s := range a.Holdings {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// ApplyBuy debits quantity*price and folds the lot into the weighted average cost.
// On error the account is left untouched.
func (a *Account) ApplyBuy(symbol string, quantity uint64, price decimal.Decimal) error {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return err
	}

	h := a.Holdings[symbol]
	total := h.Quantity + quantity
	if total < h.Quantity {
		return errors.NewErrorDetails("position size overflows", string(errors.LedgerInvariantViolationError), "quantity")
	}

	cost := money.Notional(quantity, price)
	if a.Capital.LessThan(cost) {
		return errors.NewErrorDetails("capital does not cover the fill", string(errors.InsufficientCapitalError), "capital")
	}

	held := decimal.NewFromUint64(h.Quantity)
	h.AverageCost = h.AverageCost.Mul(held).Add(cost).Div(decimal.NewFromUint64(total))
	h.Quantity = total

	if a.Holdings == nil {
		a.Holdings = make(map[string]Holding)
	}
	a.Holdings[symbol] = h
	a.Capital = a.Capital.Sub(cost)
	a.BuyCount++
	return nil
}

// ApplySell credits quantity*price and reduces the position, keeping its average cost.
// A position that reaches zero is removed. On error the account is left untouched.
func (a *Account) ApplySell(symbol string, quantity uint64, price decimal.Decimal) error {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return err
	}

	h, ok := a.Holdings[symbol]
	if !ok || h.Quantity < quantity {
		return errors.NewErrorDetails("client holds fewer shares than sold", string(errors.InsufficientSharesError), "quantity")
	}

	h.Quantity -= quantity
	if h.Quantity == 0 {
		delete(a.Holdings, symbol)
	} else {
		a.Holdings[symbol] = h
	}
	a.Capital = a.Capital.Add(money.Notional(quantity, price))
	a.SellCount++
	return nil
}

// CostBasis is capital plus every position valued at its average cost.
func (a *Account) CostBasis() decimal.Decimal {
	total := a.Capital
	for _, h := range a.Holdings {
		total = total.Add(money.Notional(h.Quantity, h.AverageCost))
	}
	return total
}

// MarketValue is capital plus every position valued at prices; symbols without a price count at cost.
func (a *Account) MarketValue(prices map[string]float64) decimal.Decimal {
	total := a.Capital
	for symbol, h := range a.Holdings {
		unit := h.AverageCost
		if p, ok := prices[symbol]; ok {
			unit = money.FromFloat(p)
		}
		total = total.Add(money.Notional(h.Quantity, unit))
	}
	return total
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	c.Holdings = make(map[string]Holding, len(a.Holdings))
	for s, h := range a.Holdings {
		c.Holdings[s] = h
	}
	return &c
}

func validateTrade(symbol string, quantity uint64, price decimal.Decimal) error {
	if symbol == "" {
		return errors.NewErrorDetails("symbol is required", string(errors.LedgerInvariantViolationError), "symbol")
	}
	if quantity == 0 {
		return errors.NewErrorDetails("quantity must be positive", string(errors.LedgerInvariantViolationError), "quantity")
	}
	if price.IsNegative() {
		return errors.NewErrorDetails("price must not be negative", string(errors.LedgerInvariantViolationError), "price")
	}
	return nil
}
