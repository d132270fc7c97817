package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/muhammadchandra19/market-simulator/internal/app/settlement"
	pricereaderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/price-reader/v1"
	settlementv1 "github.com/muhammadchandra19/market-simulator/internal/domain/settlement/v1"
	orderpublisher "github.com/muhammadchandra19/market-simulator/internal/usecase/order-publisher"
	orderreader "github.com/muhammadchandra19/market-simulator/internal/usecase/order-reader"
	pricereader "github.com/muhammadchandra19/market-simulator/internal/usecase/price-reader"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/pricebook"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/settlement"
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

	seed := cfg.Settlement.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	var policy settlementv1.Policy = settlement.NewStochastic(
		cfg.Settlement.CompleteRatio,
		cfg.Settlement.RejectRatio,
		cfg.Settlement.Slippage,
		rand.New(rand.NewPCG(seed, seed>>1)),
	)

	// The price band needs the live feed; without it no price reader is started.
	var (
		book        *pricebook.Book
		priceReader pricereaderv1.PriceReader
	)
	if cfg.Settlement.MaxDeviation > 0 {
		book = pricebook.New()
		priceReader = pricereader.NewReader(cfg.Kafka, log)
		policy = &settlement.PriceBand{
			Next:         policy,
			Prices:       book,
			MaxDeviation: cfg.Settlement.MaxDeviation,
		}
	}

	engine := app.NewEngine(
		settlement.NewSimulator(policy, log, cfg.Settlement.DecidedWindow),
		orderreader.NewReader(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID+"-settlement", log),
		orderpublisher.NewPublisher(cfg.Kafka, log),
		priceReader,
		book,
		log,
		&app.Options{
			CycleInterval: cfg.Settlement.CycleInterval,
			RetryDelay:    500 * time.Millisecond,
		},
	)

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.NewField("action", "start_engine"))
		return
	}

	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
		Handler:           healthcheck.HealthCheck{}.Handler(http.NotFoundHandler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, logger.NewField("action", "serve_health"))
		}
	}()

	log.Info("settlement service started",
		logger.NewField("complete_ratio", cfg.Settlement.CompleteRatio),
		logger.NewField("reject_ratio", cfg.Settlement.RejectRatio),
		logger.NewField("slippage", cfg.Settlement.Slippage),
		logger.NewField("max_deviation", cfg.Settlement.MaxDeviation),
	)

	sig := <-sigChan
	log.Info("received shutdown signal", logger.NewField("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_engine"))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.NewField("action", "stop_health_server"))
	}

	log.Info("settlement service shutdown complete")
}
