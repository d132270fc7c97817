package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadchandra19/market-simulator/internal/app/market"
	orderreaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order-reader/v1"
	snapshotv1 "github.com/muhammadchandra19/market-simulator/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/broker"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/generator"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/ledger"
	orderpublisher "github.com/muhammadchandra19/market-simulator/internal/usecase/order-publisher"
	orderreader "github.com/muhammadchandra19/market-simulator/internal/usecase/order-reader"
	pricereader "github.com/muhammadchandra19/market-simulator/internal/usecase/price-reader"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/pricebook"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/snapshot"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error(err, logger.NewField("action", "open_stores"))
		return
	}
	defer stores.close()

	allocator, err := newAllocator(cfg.Market)
	if err != nil {
		log.Error(err, logger.NewField("action", "create_allocator"))
		return
	}

	book := pricebook.New()
	publisher := orderpublisher.NewPublisher(cfg.Kafka, log)

	brokers := make([]*broker.Broker, 0, cfg.Market.Brokers)
	for id := 1; id <= cfg.Market.Brokers; id++ {
		brokers = append(brokers, broker.New(
			broker.Config{
				BrokerID:         uint64(id),
				ClientsPerBroker: cfg.Market.ClientsPerBroker,
				MinCapital:       cfg.Market.MinCapital,
				MaxCapital:       cfg.Market.MaxCapital,
				OrderInterval:    cfg.Market.OrderInterval,
				Generator: generator.Config{
					MaxOrdersPerCycle: cfg.Market.MaxOrdersPerCycle,
					LimitProbability:  cfg.Market.LimitProbability,
					MinQuantity:       1,
					MaxQuantity:       10,
					StopBand:          cfg.Market.StopBand,
				},
				Seed: cfg.Market.Seed,
			},
			book,
			allocator,
			publisher,
			ledger.NewSettler(stores.gate, stores.repo, log),
			stores.repo,
			log,
		))
	}

	resultReaders := []orderreaderv1.OrderReader{
		orderreader.NewReader(cfg.Kafka.Brokers, cfg.Kafka.CompletedTopic, cfg.Kafka.GroupID, log),
		orderreader.NewReader(cfg.Kafka.Brokers, cfg.Kafka.RejectedTopic, cfg.Kafka.GroupID, log),
	}

	// Broker snapshots live in Redis, so they are only kept when Redis is configured.
	var snapshotStore snapshotv1.Store
	if stores.redis != nil {
		snapshotStore = snapshot.NewStore(stores.redis, log)
	}

	engine := market.NewEngine(
		brokers,
		book,
		pricereader.NewReader(cfg.Kafka, log),
		resultReaders,
		snapshotStore,
		log,
		&market.Options{
			SnapshotInterval: cfg.Market.SnapshotInterval,
			RetryDelay:       500 * time.Millisecond,
		},
	)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.NewField("action", "start_engine"))
		return
	}

	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
		Handler:           healthcheck.HealthCheck{Checks: stores.checks}.Handler(http.NotFoundHandler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, logger.NewField("action", "serve_health"))
		}
	}()

	log.Info("market simulator started",
		logger.NewField("brokers", cfg.Market.Brokers),
		logger.NewField("clients_per_broker", cfg.Market.ClientsPerBroker),
		logger.NewField("ledger_backend", cfg.Ledger.Backend),
		logger.NewField("dedupe_backend", cfg.Ledger.Dedupe),
		logger.NewField("id_scheme", cfg.Market.IDScheme),
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.NewField("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_engine"))
	}
	if err := publisher.Close(); err != nil {
		log.Error(err, logger.NewField("action", "close_publisher"))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_health_server"))
	}

	log.Info("market simulator shutdown complete")
}
