package main

import (
	"context"
	"flag"

	"github.com/muhammadchandra19/market-simulator/internal/infrastructure/postgresql/migrations"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	migration "github.com/muhammadchandra19/market-simulator/pkg/migration-pg"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
)

func main() {
	var (
		direction = flag.String("direction", "up", "Migration direction: up or down")
		steps     = flag.Int("steps", 0, "Number of steps to migrate (0 = all)")
	)
	flag.Parse()

	ctx := context.Background()

	cfg := &config.Config{}
	config.MustLoad(cfg)

	log, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pgClient, err := postgresql.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Error(err, logger.NewField("action", "connect_postgres"))
		return
	}
	defer pgClient.Close()

	runner := migration.NewRunner(pgClient, migration.Config{
		Source:    migrations.FS,
		Schema:    cfg.Postgres.SearchPath,
		TableName: "schema_migrations",
	}, log)

	if err := runner.EnsureMigrationTable(ctx); err != nil {
		log.Error(err, logger.NewField("action", "ensure_migration_table"))
		return
	}

	switch *direction {
	case "up":
		err = runner.MigrateUp(ctx, *steps)
	case "down":
		err = runner.MigrateDown(ctx, *steps)
	default:
		log.Warn("invalid direction, use 'up' or 'down'", logger.NewField("direction", *direction))
		return
	}
	if err != nil {
		log.Error(err, logger.NewField("action", "migrate_"+*direction))
		return
	}

	log.Info("migration completed", logger.NewField("direction", *direction))
}
