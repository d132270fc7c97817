// Package broker runs the clients of one broker shard: each client is an actor goroutine
// that owns its account, generates orders and applies their settlements.
package broker

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	idallocatorv1 "github.com/muhammadchandra19/market-simulator/internal/domain/idallocator/v1"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	orderpublisherv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order-publisher/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/generator"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/ledger"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/util"
)

const inboxSize = 16

// ShardRange returns the first and last client id owned by brokerID (1-based).
func ShardRange(brokerID uint64, clientsPerBroker int) (first, last uint64) {
	n := uint64(clientsPerBroker)
	return (brokerID-1)*n + 1, brokerID * n
}

// Config tunes one broker.
type Config struct {
	BrokerID         uint64
	ClientsPerBroker int
	MinCapital       float64
	MaxCapital       float64
	OrderInterval    time.Duration
	Generator        generator.Config
	// Seed makes the clients' randomness reproducible. Zero picks a random seed.
	Seed uint64
}

// PriceSource hands out a point-in-time copy of the latest prices.
type PriceSource interface {
	Snapshot() map[string]float64
}

// Broker owns the client actors of one shard.
type Broker struct {
	cfg       Config
	prices    PriceSource
	allocator idallocatorv1.Allocator
	publisher orderpublisherv1.Publisher
	settler   *ledger.Settler
	repo      ledgerv1.Repository
	logger    logger.Interface

	actors    map[uint64]*actor
	clientIDs []uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Broker and starts its client actors.
func New(
	cfg Config,
	prices PriceSource,
	allocator idallocatorv1.Allocator,
	publisher orderpublisherv1.Publisher,
	settler *ledger.Settler,
	repo ledgerv1.Repository,
	log logger.Interface,
) *Broker {
	b := &Broker{
		cfg:       cfg,
		prices:    prices,
		allocator: allocator,
		publisher: publisher,
		settler:   settler,
		repo:      repo,
		logger:    log,
		actors:    make(map[uint64]*actor, cfg.ClientsPerBroker),
	}

	first, last := ShardRange(cfg.BrokerID, cfg.ClientsPerBroker)
	for clientID := first; clientID <= last && cfg.ClientsPerBroker > 0; clientID++ {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rnd := rand.New(rand.NewPCG(seed, clientID))
		a := &actor{
			clientID: clientID,
			inbox:    make(chan func(), inboxSize),
			gen:      generator.New(cfg.Generator, rnd, log),
			rnd:      rnd,
			stops:    make(map[string]orderv1.StopLossTakeProfit),
		}
		b.actors[clientID] = a
		b.clientIDs = append(b.clientIDs, clientID)

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			a.run()
		}()
	}

	return b
}

// ID returns the broker id.
func (b *Broker) ID() uint64 {
	return b.cfg.BrokerID
}

// do runs fn on the actor's goroutine and waits for it to finish. Once fn is accepted it
// always runs to completion, even if ctx is cancelled meanwhile.
func (b *Broker) do(ctx context.Context, a *actor, fn func()) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return errors.NewErrorDetails("broker is shutting down", string(errors.ShuttingDownError), "broker_id")
	}

	done := make(chan struct{})
	select {
	case a.inbox <- func() {
		defer close(done)
		fn()
	}:
	case <-ctx.Done():
		b.mu.RUnlock()
		return ctx.Err()
	}
	b.mu.RUnlock()

	<-done
	return nil
}

// Run generates and publishes orders on every tick until ctx is done.
func (b *Broker) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.OrderInterval)
	defer ticker.Stop()

	b.logger.InfoContext(ctx, "broker started",
		logger.NewField("broker_id", b.cfg.BrokerID),
		logger.NewField("clients", len(b.clientIDs)),
	)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("broker loop shutting down", logger.NewField("broker_id", b.cfg.BrokerID))
			return
		case <-ticker.C:
			if err := b.Cycle(ctx); err != nil {
				if errors.HasCode(err, errors.ShuttingDownError) {
					return
				}
				b.logger.ErrorContext(ctx, err,
					logger.NewField("broker_id", b.cfg.BrokerID),
					logger.NewField("action", "cycle"),
				)
			}
		}
	}
}

// Cycle asks every client to generate against the current prices and publishes the batch.
// If a client cannot be reached or publishing fails, the exit bands recorded for the batch
// are released and nothing is published.
func (b *Broker) Cycle(ctx context.Context) error {
	ctx = util.WithBrokerID(util.WithRequestID(ctx, ""), b.cfg.BrokerID)

	prices := b.prices.Snapshot()
	if len(prices) == 0 {
		return nil
	}

	perClient := make([][]*orderv1.Order, len(b.clientIDs))
	errs := make([]error, len(b.clientIDs))
	var wg sync.WaitGroup
	for i, clientID := range b.clientIDs {
		a := b.actors[clientID]
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = b.do(ctx, a, func() {
				perClient[i] = b.generate(ctx, a, prices)
			})
		}()
	}
	wg.Wait()

	var (
		batch    []*orderv1.Order
		firstErr error
	)
	for i := range perClient {
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
		batch = append(batch, perClient[i]...)
	}
	if firstErr != nil {
		b.Release(context.WithoutCancel(ctx), batch...)
		return firstErr
	}
	if len(batch) == 0 {
		return nil
	}

	if err := b.publisher.Publish(ctx, batch...); err != nil {
		b.Release(context.WithoutCancel(ctx), batch...)
		return errors.NewTracer("failed to publish orders").Wrap(err)
	}

	b.logger.DebugContext(ctx, "orders published",
		logger.NewField("broker_id", b.cfg.BrokerID),
		logger.NewField("count", len(batch)),
	)
	return nil
}

// Release drops the exit bands of orders that never left the broker.
func (b *Broker) Release(ctx context.Context, orders ...*orderv1.Order) {
	byClient := make(map[uint64][]string)
	for _, o := range orders {
		byClient[o.ClientID] = append(byClient[o.ClientID], o.OrderID)
	}

	for clientID, ids := range byClient {
		a, ok := b.actors[clientID]
		if !ok {
			continue
		}
		err := b.do(ctx, a, func() {
			for _, id := range ids {
				delete(a.stops, id)
			}
		})
		if err != nil {
			b.logger.WarnContext(ctx, "failed to release exit bands",
				logger.NewField("client_id", clientID),
				logger.NewField("reason", err.Error()),
			)
		}
	}
}

// Deliver applies a terminal order to the owning client's account.
func (b *Broker) Deliver(ctx context.Context, order *orderv1.Order) (ledger.Result, error) {
	a, ok := b.actors[order.ClientID]
	if order.BrokerID != b.cfg.BrokerID || !ok {
		b.logger.WarnContext(ctx, "order outside this shard",
			logger.NewField("code", errors.ForeignClientError),
			logger.NewField("broker_id", b.cfg.BrokerID),
			logger.NewField("order_broker_id", order.BrokerID),
			logger.NewField("client_id", order.ClientID),
		)
		return ledger.ResultVoid, errors.NewErrorDetails("order belongs to another shard", string(errors.ForeignClientError), "client_id")
	}

	var (
		result ledger.Result
		err    error
	)
	doErr := b.do(ctx, a, func() {
		if err = b.ensureAccount(ctx, a); err != nil {
			return
		}
		result, err = b.settler.Apply(ctx, a.account, order)
		if order.IsTerminal() {
			delete(a.stops, order.OrderID)
		}
	})
	if doErr != nil {
		return ledger.ResultVoid, doErr
	}
	return result, err
}

// Account returns a copy of a client's account, or nil if it was never loaded.
func (b *Broker) Account(ctx context.Context, clientID uint64) (*ledgerv1.Account, error) {
	a, ok := b.actors[clientID]
	if !ok {
		return nil, errors.NewErrorDetails("client outside this shard", string(errors.ForeignClientError), "client_id")
	}

	var account *ledgerv1.Account
	err := b.do(ctx, a, func() {
		if a.account != nil {
			account = a.account.Clone()
		}
	})
	return account, err
}

// OpenStops returns the number of exit bands a client currently tracks.
func (b *Broker) OpenStops(ctx context.Context, clientID uint64) (int, error) {
	a, ok := b.actors[clientID]
	if !ok {
		return 0, errors.NewErrorDetails("client outside this shard", string(errors.ForeignClientError), "client_id")
	}

	var n int
	err := b.do(ctx, a, func() { n = len(a.stops) })
	return n, err
}

// Snapshot collects the loaded accounts of every client in client id order.
func (b *Broker) Snapshot(ctx context.Context) (*ledgerv1.BrokerSnapshot, error) {
	snapshot := &ledgerv1.BrokerSnapshot{
		BrokerID: b.cfg.BrokerID,
		Clients:  make([]ledgerv1.ClientSnapshot, 0, len(b.clientIDs)),
	}

	for _, clientID := range b.clientIDs {
		a := b.actors[clientID]
		err := b.do(ctx, a, func() {
			if a.account != nil {
				snapshot.Clients = append(snapshot.Clients, a.account.Snapshot())
			}
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(snapshot.Clients, func(i, j int) bool {
		return snapshot.Clients[i].ClientID < snapshot.Clients[j].ClientID
	})
	return snapshot, nil
}

// Close stops accepting commands, lets every actor drain its inbox and waits for them.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, a := range b.actors {
		close(a.inbox)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
