package pricebook

import (
	"sort"
	"sync"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
)

// Book is the latest known price per symbol. Writes are last-write-wins and a symbol,
// once seen, is never removed. Safe for one writer and many readers.
type Book struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// New returns an empty Book.
func New() *Book {
	return &Book{prices: make(map[string]float64)}
}

// Update stores the tick after validating it.
func (b *Book) Update(update orderv1.PriceUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	b.prices[update.Name] = update.Price
	b.mu.Unlock()
	return nil
}

// Price returns the latest price of symbol.
func (b *Book) Price(symbol string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.prices[symbol]
	return p, ok
}

// Snapshot returns a copy of every known price.
func (b *Book) Snapshot() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.prices))
	for s, p := range b.prices {
		out[s] = p
	}
	return out
}

// Symbols returns the known symbols in name order.
func (b *Book) Symbols() []string {
	b.mu.RLock()
	symbols := make([]string, 0, len(b.prices))
	for s := range b.prices {
		symbols = append(symbols, s)
	}
	b.mu.RUnlock()
	sort.Strings(symbols)
	return symbols
}

// Len returns the number of known symbols.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.prices)
}
