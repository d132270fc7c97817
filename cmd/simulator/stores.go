package main

import (
	"context"
	"fmt"

	dedupev1 "github.com/muhammadchandra19/market-simulator/internal/domain/dedupe/v1"
	idallocatorv1 "github.com/muhammadchandra19/market-simulator/internal/domain/idallocator/v1"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	memoryledger "github.com/muhammadchandra19/market-simulator/internal/infrastructure/memory/ledger"
	pgledger "github.com/muhammadchandra19/market-simulator/internal/infrastructure/postgresql/ledger"
	redisledger "github.com/muhammadchandra19/market-simulator/internal/infrastructure/redis/ledger"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/dedupe"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/idallocator"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
	"github.com/muhammadchandra19/market-simulator/pkg/redis"
)

// stores holds the ledger and dedupe backends selected by LEDGER_BACKEND and LEDGER_DEDUPE.
type stores struct {
	repo   ledgerv1.Repository
	gate   dedupev1.Gate
	redis  redis.Client
	pg     *postgresql.Client
	checks map[string]healthcheck.Checker
	log    logger.Interface
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	s := &stores{checks: make(map[string]healthcheck.Checker), log: log}

	if cfg.Ledger.Backend == "redis" || cfg.Ledger.Dedupe == "redis" {
		client := redis.NewClient(log, &cfg.Redis)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		s.redis = client
		s.checks["redis"] = client.Ping
	}

	switch cfg.Ledger.Backend {
	case "memory":
		s.repo = memoryledger.NewRepository()
	case "redis":
		s.repo = redisledger.NewRepository(s.redis, log)
	case "postgres":
		client, err := postgresql.NewClient(ctx, cfg.Postgres)
		if err != nil {
			s.close()
			return nil, err
		}
		s.pg = client
		s.repo = pgledger.NewRepository(client, log)
		s.checks["postgres"] = client.Check

		health := client.Health(ctx)
		if !health.Healthy {
			s.close()
			return nil, health.Err
		}
		log.Info("postgres ledger connected",
			logger.NewField("server_version", health.ServerVersion),
			logger.NewField("max_conns", health.MaxConns),
			logger.NewField("response_time", health.ResponseTime.String()),
		)
	default:
		s.close()
		return nil, errors.NewErrorDetails(fmt.Sprintf("unknown ledger backend %q", cfg.Ledger.Backend), string(errors.GeneralBadRequestError), "LEDGER_BACKEND")
	}

	switch cfg.Ledger.Dedupe {
	case "memory":
		s.gate = dedupe.NewMemory()
	case "redis":
		s.gate = dedupe.NewRedis(s.redis, cfg.Ledger.DedupeTTL)
	default:
		s.close()
		return nil, errors.NewErrorDetails(fmt.Sprintf("unknown dedupe backend %q", cfg.Ledger.Dedupe), string(errors.GeneralBadRequestError), "LEDGER_DEDUPE")
	}

	return s, nil
}

func (s *stores) close() {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.redis != nil {
		if err := s.redis.Disconnect(context.Background()); err != nil {
			s.log.Error(err, logger.NewField("action", "close_redis_client"))
		}
	}
}

func newAllocator(cfg config.MarketConfig) (idallocatorv1.Allocator, error) {
	switch cfg.IDScheme {
	case "sequential":
		return idallocator.NewSequential(cfg.IDStart), nil
	case "ulid":
		return idallocator.NewULID(), nil
	default:
		return nil, errors.NewErrorDetails(fmt.Sprintf("unknown id scheme %q", cfg.IDScheme), string(errors.GeneralBadRequestError), "MARKET_ID_SCHEME")
	}
}
