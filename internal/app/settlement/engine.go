// Package settlement wires the order consumer, the settlement cycle and the result publisher
// of the settlement process.
package settlement

import (
	"context"
	"sync"
	"time"

	orderpublisherv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order-publisher/v1"
	orderreaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order-reader/v1"
	pricereaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/price-reader/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/pricebook"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/settlement"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/util"
	"github.com/segmentio/kafka-go"
)

const commitTimeout = 5 * time.Second

// Engine runs the settlement process.
type Engine struct {
	simulator   *settlement.Simulator
	orderReader orderreaderv1.OrderReader
	publisher   orderpublisherv1.Publisher
	priceReader pricereaderv1.PriceReader
	book        *pricebook.Book
	logger      logger.Interface
	options     *Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new Engine. priceReader and book are optional and only needed when
// the settlement policy consults market prices.
func NewEngine(
	simulator *settlement.Simulator,
	orderReader orderreaderv1.OrderReader,
	publisher orderpublisherv1.Publisher,
	priceReader pricereaderv1.PriceReader,
	book *pricebook.Book,
	log logger.Interface,
	options *Options,
) *Engine {
	if options == nil {
		options = DefaultEngineOptions()
	}
	return &Engine{
		simulator:   simulator,
		orderReader: orderReader,
		publisher:   publisher,
		priceReader: priceReader,
		book:        book,
		logger:      log,
		options:     options,
	}
}

// Start launches the consumer, the cycle ticker and, when configured, the price feed.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderConsumer()
	go e.runCycles()

	if e.priceReader != nil && e.book != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			pricebook.Follow(e.ctx, e.priceReader, e.book, e.logger)
		}()
	}

	e.logger.Info("settlement engine started",
		logger.NewField("cycle_interval", e.options.CycleInterval.String()),
	)
	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("settlement engine stop timeout exceeded")
		err = ctx.Err()
	}

	if closeErr := e.orderReader.Close(); closeErr != nil {
		e.logger.Error(closeErr, logger.NewField("operation", "close order reader"))
	}
	if e.priceReader != nil {
		if closeErr := e.priceReader.Close(); closeErr != nil {
			e.logger.Error(closeErr, logger.NewField("operation", "close price reader"))
		}
	}
	if closeErr := e.publisher.Close(); closeErr != nil {
		e.logger.Error(closeErr, logger.NewField("operation", "close publisher"))
	}

	stats := e.simulator.Stats()
	e.logger.Info("settlement engine stopped",
		logger.NewField("submitted", stats.Submitted),
		logger.NewField("completed", stats.Completed),
		logger.NewField("rejected", stats.Rejected),
		logger.NewField("duplicates", stats.Duplicates),
		logger.NewField("pending", e.simulator.Pending()),
	)
	return err
}

// runOrderConsumer submits every pending order read from the order topic.
func (e *Engine) runOrderConsumer() {
	defer e.wg.Done()

	for {
		if e.ctx.Err() != nil {
			return
		}

		msg, order, err := e.orderReader.ReadMessage(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			if errors.HasCode(err, errors.TransportDecodeError) {
				e.logger.Warn("skipping malformed order",
					logger.NewField("offset", msg.Offset),
					logger.NewField("error", err.Error()),
				)
				e.commit(msg)
				continue
			}
			e.logger.Error(err, logger.NewField("action", "read_order_message"))
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(e.options.RetryDelay):
			}
			continue
		}

		ctx := util.WithOrderID(util.WithRequestID(e.ctx, order.OrderID), order.OrderID)
		if _, err := e.simulator.Submit(ctx, order); err != nil {
			e.logger.WarnContext(ctx, "order refused",
				logger.NewField("code", errors.CodeOf(err)),
				logger.NewField("reason", err.Error()),
			)
		}
		e.commit(msg)
	}
}

func (e *Engine) commit(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), commitTimeout)
	defer cancel()

	if err := e.orderReader.CommitMessages(ctx, msg); err != nil {
		e.logger.Error(err, logger.NewField("action", "commit_order_message"))
	}
}

// runCycles settles the queue on every tick.
func (e *Engine) runCycles() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.Cycle(e.ctx)
		}
	}
}

// Cycle runs one settlement cycle and publishes its decisions. Decisions that fail to
// publish are requeued for the next cycle.
func (e *Engine) Cycle(ctx context.Context) {
	orders := e.simulator.Cycle(ctx)
	if len(orders) == 0 {
		return
	}

	if err := e.publisher.Publish(ctx, orders...); err != nil {
		e.simulator.Requeue(orders...)
		e.logger.ErrorContext(ctx, err,
			logger.NewField("action", "publish_decisions"),
			logger.NewField("count", len(orders)),
		)
		return
	}

	e.logger.DebugContext(ctx, "decisions published", logger.NewField("count", len(orders)))
}
