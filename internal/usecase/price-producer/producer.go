// Package priceproducer drives a random walk over a fixed set of symbols and writes every
// tick to the price topic. It stands in for an external market data feed during development.
package priceproducer

import (
	"context"
	"time"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	// StartPrice is the opening price of every symbol.
	StartPrice = 100.0
	// MinPrice is the floor a walk never goes below.
	MinPrice = 1.0
	// MaxStep bounds a single move in either direction.
	MaxStep = 10.0
)

// DefaultSymbols is the symbol universe of the development feed.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOG", "AMZN", "TSLA", "NVDA", "META", "ORCL", "IBM", "AMD",
	"ADM", "DE", "XOM", "CVX", "BP", "JNJ", "PFE", "MRK", "UNH", "AMGN",
}

// Random is the randomness a Walk draws from. *math/rand/v2.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
	Perm(n int) []int
}

// Walk holds the current price of every symbol.
type Walk struct {
	symbols []string
	prices  []float64
	rnd     Random
}

// NewWalk starts every symbol at StartPrice.
func NewWalk(symbols []string, rnd Random) *Walk {
	prices := make([]float64, len(symbols))
	for i := range prices {
		prices[i] = StartPrice
	}
	return &Walk{symbols: symbols, prices: prices, rnd: rnd}
}

// Current returns a tick for every symbol at its current price.
func (w *Walk) Current() []orderv1.PriceUpdate {
	updates := make([]orderv1.PriceUpdate, len(w.symbols))
	for i, s := range w.symbols {
		updates[i] = orderv1.PriceUpdate{Name: s, Price: w.prices[i]}
	}
	return updates
}

// Step moves two to four distinct symbols by a uniform amount in [-MaxStep, MaxStep)
// and returns their new prices.
func (w *Walk) Step() []orderv1.PriceUpdate {
	if len(w.symbols) == 0 {
		return nil
	}

	n := 2 + w.rnd.IntN(3)
	if n > len(w.symbols) {
		n = len(w.symbols)
	}

	updates := make([]orderv1.PriceUpdate, 0, n)
	for _, i := range w.rnd.Perm(len(w.symbols))[:n] {
		change := (w.rnd.Float64()*2 - 1) * MaxStep
		w.prices[i] = max(w.prices[i]+change, MinPrice)
		updates = append(updates, orderv1.PriceUpdate{Name: w.symbols[i], Price: w.prices[i]})
	}
	return updates
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes walk ticks to the price topic keyed by symbol.
type Producer struct {
	kafkaWriter messageWriter
	walk        *Walk
	interval    time.Duration
	logger      logger.Interface
}

// NewProducer creates a Producer writing to cfg.PriceTopic.
func NewProducer(cfg config.KafkaConfig, walk *Walk, interval time.Duration, log logger.Interface) *Producer {
	kafkaWriter := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.PriceTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newProducer(kafkaWriter, walk, interval, log)
}

func newProducer(w messageWriter, walk *Walk, interval time.Duration, log logger.Interface) *Producer {
	return &Producer{kafkaWriter: w, walk: walk, interval: interval, logger: log}
}

// Run publishes the opening prices, then one step per interval until ctx is done.
// Failed writes are logged and the walk carries on.
func (p *Producer) Run(ctx context.Context) error {
	if err := p.write(ctx, p.walk.Current()); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.write(ctx, p.walk.Step()); err != nil && ctx.Err() == nil {
				p.logger.Error(err, logger.NewField("action", "write_price_updates"))
			}
		}
	}
}

func (p *Producer) write(ctx context.Context, updates []orderv1.PriceUpdate) error {
	msgs := make([]kafka.Message, 0, len(updates))
	for _, u := range updates {
		value, err := u.ToBytes()
		if err != nil {
			return errors.NewTracer("failed to encode price update").Wrap(err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(u.Name), Value: value})
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		return errors.NewTracer("failed to publish price updates").Wrap(err)
	}
	p.logger.Debug("price updates published", logger.NewField("count", len(msgs)))
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.kafkaWriter.Close()
}
