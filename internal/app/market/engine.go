// Package market wires the price feed, the broker shards and the settlement consumers
// of the market process.
package market

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	orderreaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order-reader/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	pricereaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/price-reader/v1"
	snapshotv1 "github.com/muhammadchandra19/market-simulator/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/broker"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/pricebook"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/util"
	"github.com/segmentio/kafka-go"
)

const commitTimeout = 5 * time.Second

// Engine runs the market process.
type Engine struct {
	brokers       []*broker.Broker
	brokersByID   map[uint64]*broker.Broker
	book          *pricebook.Book
	priceReader   pricereaderv1.PriceReader
	resultReaders []orderreaderv1.OrderReader
	snapshotStore snapshotv1.Store
	logger        logger.Interface
	options       *Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new Engine. snapshotStore may be nil to disable snapshots.
func NewEngine(
	brokers []*broker.Broker,
	book *pricebook.Book,
	priceReader pricereaderv1.PriceReader,
	resultReaders []orderreaderv1.OrderReader,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	options *Options,
) *Engine {
	if options == nil {
		options = DefaultEngineOptions()
	}

	byID := make(map[uint64]*broker.Broker, len(brokers))
	for _, b := range brokers {
		byID[b.ID()] = b
	}

	return &Engine{
		brokers:       brokers,
		brokersByID:   byID,
		book:          book,
		priceReader:   priceReader,
		resultReaders: resultReaders,
		snapshotStore: snapshotStore,
		logger:        log,
		options:       options,
	}
}

// Start launches every loop of the process.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		pricebook.Follow(e.ctx, e.priceReader, e.book, e.logger)
	}()

	for _, b := range e.brokers {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			b.Run(e.ctx)
		}()
	}

	for _, reader := range e.resultReaders {
		e.wg.Add(1)
		go e.runSettlementConsumer(reader)
	}

	if e.snapshotStore != nil && e.options.SnapshotInterval > 0 {
		e.wg.Add(1)
		go e.runSnapshotManager()
	}

	e.logger.Info("market engine started",
		logger.NewField("brokers", len(e.brokers)),
		logger.NewField("result_topics", len(e.resultReaders)),
	)
	return nil
}

// Stop cancels the loops and waits for them within ctx, stores a final snapshot,
// then drains the brokers' client actors.
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
		e.logger.Warn("market engine stop timeout exceeded")
		err = ctx.Err()
	}

	if e.snapshotStore != nil {
		e.storeSnapshots(context.WithoutCancel(ctx))
	}

	for _, b := range e.brokers {
		b.Close()
	}
	if closeErr := e.priceReader.Close(); closeErr != nil {
		e.logger.Error(closeErr, logger.NewField("operation", "close price reader"))
	}
	for _, reader := range e.resultReaders {
		if closeErr := reader.Close(); closeErr != nil {
			e.logger.Error(closeErr, logger.NewField("operation", "close result reader"))
		}
	}

	if err == nil {
		e.logger.Info("market engine stopped gracefully")
	}
	return err
}

// runSettlementConsumer applies terminal orders from one result topic.
func (e *Engine) runSettlementConsumer(reader orderreaderv1.OrderReader) {
	defer e.wg.Done()

	for {
		if e.ctx.Err() != nil {
			return
		}

		msg, order, err := reader.ReadMessage(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			if errors.HasCode(err, errors.TransportDecodeError) {
				e.logger.Warn("skipping malformed order",
					logger.NewField("offset", msg.Offset),
					logger.NewField("error", err.Error()),
				)
				e.commit(reader, msg)
				continue
			}
			e.logger.Error(err, logger.NewField("action", "read_result_message"))
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(e.options.RetryDelay):
			}
			continue
		}

		if !e.settleWithRetry(order) {
			return
		}
		e.commit(reader, msg)
	}
}

// settleOutcome tells the consumer what to do with the message that carried an order.
type settleOutcome int

const (
	// settleCommit means the order reached a final state and its message can be committed.
	settleCommit settleOutcome = iota
	// settleRetry means the order was not applied because a store was unreachable.
	settleRetry
	// settleStop means the process is shutting down and the order was not applied.
	settleStop
)

// settleWithRetry settles order until it reaches a final state. It returns false when the
// engine stopped first, in which case the message must stay uncommitted.
func (e *Engine) settleWithRetry(order *orderv1.Order) bool {
	for {
		switch e.settle(order) {
		case settleCommit:
			return true
		case settleStop:
			return false
		}

		select {
		case <-e.ctx.Done():
			return false
		case <-time.After(e.options.RetryDelay):
		}
	}
}

// settle routes a terminal order to its broker.
func (e *Engine) settle(order *orderv1.Order) settleOutcome {
	ctx := util.WithOrderID(util.WithRequestID(e.ctx, order.OrderID), order.OrderID)

	b, ok := e.brokersByID[order.BrokerID]
	if !ok {
		e.logger.WarnContext(ctx, "order for unknown broker",
			logger.NewField("code", errors.UnknownBrokerError),
			logger.NewField("broker_id", order.BrokerID),
		)
		return settleCommit
	}

	result, err := b.Deliver(ctx, order)
	if err == nil {
		return settleCommit
	}

	switch {
	case e.ctx.Err() != nil,
		stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded),
		errors.HasCode(err, errors.ShuttingDownError):
		return settleStop
	case errors.HasCode(err, errors.SnapshotUnavailableError),
		errors.HasCode(err, errors.SettlementGateUnavailableError):
		e.logger.WarnContext(ctx, "settlement deferred",
			logger.NewField("code", errors.CodeOf(err)),
			logger.NewField("broker_id", order.BrokerID),
			logger.NewField("client_id", order.ClientID),
			logger.NewField("error", err.Error()),
		)
		return settleRetry
	}

	e.logger.ErrorContext(ctx, err,
		logger.NewField("broker_id", order.BrokerID),
		logger.NewField("client_id", order.ClientID),
		logger.NewField("result", result.String()),
	)
	return settleCommit
}

func (e *Engine) commit(reader orderreaderv1.OrderReader, msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), commitTimeout)
	defer cancel()

	if err := reader.CommitMessages(ctx, msg); err != nil {
		e.logger.Error(err, logger.NewField("action", "commit_result_message"))
	}
}

// runSnapshotManager stores broker snapshots periodically.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.storeSnapshots(e.ctx)
		}
	}
}

// storeSnapshots stores one snapshot per broker. Failures are logged and the next broker is tried.
func (e *Engine) storeSnapshots(ctx context.Context) {
	for _, b := range e.brokers {
		snapshot, err := b.Snapshot(ctx)
		if err != nil {
			e.logger.ErrorContext(ctx, err,
				logger.NewField("broker_id", b.ID()),
				logger.NewField("action", "create_snapshot"),
			)
			continue
		}
		if err := e.snapshotStore.Store(ctx, snapshot); err != nil {
			e.logger.ErrorContext(ctx, err,
				logger.NewField("broker_id", b.ID()),
				logger.NewField("action", "store_snapshot"),
			)
		}
	}
}
