package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	priceproducer "github.com/muhammadchandra19/market-simulator/internal/usecase/price-producer"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
)

func main() {
	var (
		interval = flag.Duration("interval", time.Second, "Delay between price steps")
		duration = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
		symbols  = flag.String("symbols", strings.Join(priceproducer.DefaultSymbols, ","), "Symbols to quote (comma-separated)")
		seed     = flag.Uint64("seed", 0, "Random seed (0 = random)")
	)
	flag.Parse()

	cfg := &config.Config{}
	config.MustLoad(cfg)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	walk := priceproducer.NewWalk(strings.Split(*symbols, ","), rand.New(rand.NewPCG(*seed, *seed)))

	producer := priceproducer.NewProducer(cfg.Kafka, walk, *interval, log)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error(err, logger.NewField("action", "close_producer"))
		}
	}()

	log.Info("price producer started",
		logger.NewField("topic", cfg.Kafka.PriceTopic),
		logger.NewField("interval", interval.String()),
		logger.NewField("seed", *seed),
	)

	if err := producer.Run(ctx); err != nil {
		log.Error(err, logger.NewField("action", "run_producer"))
		return
	}

	log.Info("price producer stopped")
}
