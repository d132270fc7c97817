package migrationpg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
)

// Migration represents a database migration
type Migration struct {
	ID        string
	Name      string
	Timestamp time.Time
	UpSQL     string
	DownSQL   string
}

// Runner applies and reverts the *.up.sql / *.down.sql pairs of a file system.
type Runner struct {
	client    postgresql.PostgreSQLClient
	source    fs.FS
	schema    string
	tableName string
	logger    logger.Interface
}

// Config for migration runner
type Config struct {
	// Source holds the migration files at its root, usually an embed.FS.
	Source    fs.FS
	Schema    string // PostgreSQL schema name (default: "public")
	TableName string // Migration table name (default: "schema_migrations")
}

// NewRunner creates a new migration runner for PostgreSQL
func NewRunner(client postgresql.PostgreSQLClient, config Config, log logger.Interface) *Runner {
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.TableName == "" {
		config.TableName = "schema_migrations"
	}

	return &Runner{
		client:    client,
		source:    config.Source,
		schema:    config.Schema,
		tableName: config.TableName,
		logger:    log,
	}
}

func (r *Runner) table() string {
	return r.schema + "." + r.tableName
}

// EnsureMigrationTable creates the migration table if it doesn't exist
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`, r.table())

	if _, err := r.client.Exec(ctx, createTableSQL); err != nil {
		return errors.NewTracer("create migration table").Wrap(err)
	}
	return nil
}

// GetAppliedMigrations returns a map of applied migration IDs
func (r *Runner) GetAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := r.client.Query(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY applied_at", r.table()))
	if err != nil {
		return nil, errors.NewTracer("query applied migrations").Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// LoadMigrations loads all migrations from the source, ordered by id.
func (r *Runner) LoadMigrations() ([]Migration, error) {
	upFiles, err := fs.Glob(r.source, "*.up.sql")
	if err != nil {
		return nil, err
	}

	sort.Strings(upFiles)

	migrations := make([]Migration, 0, len(upFiles))
	for _, upFile := range upFiles {
		migration, err := r.parseMigrationFiles(upFile)
		if err != nil {
			return nil, errors.NewTracer(fmt.Sprintf("parse migration %s", upFile)).Wrap(err)
		}
		migrations = append(migrations, migration)
	}

	return migrations, nil
}

func (r *Runner) parseMigrationFiles(upFile string) (Migration, error) {
	upContent, err := fs.ReadFile(r.source, upFile)
	if err != nil {
		return Migration{}, err
	}

	id := strings.TrimSuffix(path.Base(upFile), ".up.sql")

	// YYYYMMDDHHMMSS_name
	timestampStr, name, found := strings.Cut(id, "_")
	if !found {
		name = id
	}

	timestamp, err := time.Parse("20060102150405", timestampStr)
	if err != nil {
		timestamp = time.Unix(0, 0)
	}

	var downSQL string
	if downContent, err := fs.ReadFile(r.source, strings.TrimSuffix(upFile, ".up.sql")+".down.sql"); err == nil {
		downSQL = strings.TrimSpace(string(downContent))
	}

	return Migration{
		ID:        id,
		Name:      name,
		Timestamp: timestamp,
		UpSQL:     strings.TrimSpace(string(upContent)),
		DownSQL:   downSQL,
	}, nil
}

// Pending returns the migrations not yet applied, capped at steps when steps > 0.
func (r *Runner) Pending(ctx context.Context, steps int) ([]Migration, error) {
	migrations, err := r.LoadMigrations()
	if err != nil {
		return nil, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return selectPending(migrations, applied, steps), nil
}

func selectPending(migrations []Migration, applied map[string]bool, steps int) []Migration {
	var toApply []Migration
	for _, migration := range migrations {
		if !applied[migration.ID] {
			toApply = append(toApply, migration)
		}
	}

	if steps > 0 && len(toApply) > steps {
		toApply = toApply[:steps]
	}
	return toApply
}

func selectApplied(migrations []Migration, applied map[string]bool, steps int) []Migration {
	var toRevert []Migration
	for i := len(migrations) - 1; i >= 0; i-- {
		if applied[migrations[i].ID] {
			toRevert = append(toRevert, migrations[i])
			if len(toRevert) >= steps {
				break
			}
		}
	}
	return toRevert
}

// MigrateUp applies pending migrations
func (r *Runner) MigrateUp(ctx context.Context, steps int) error {
	toApply, err := r.Pending(ctx, steps)
	if err != nil {
		return err
	}

	for _, migration := range toApply {
		if migration.UpSQL == "" {
			r.logger.Warn("migration has no up sql", logger.NewField("migration", migration.ID))
			continue
		}

		err := postgresql.WithTx(ctx, r.client, func(txCtx context.Context) error {
			if _, err := r.client.Exec(txCtx, migration.UpSQL); err != nil {
				return err
			}

			_, err := r.client.Exec(txCtx,
				fmt.Sprintf("INSERT INTO %s (id, name, applied_at) VALUES ($1, $2, NOW())", r.table()),
				migration.ID, migration.Name,
			)
			return err
		})
		if err != nil {
			return errors.NewTracer(fmt.Sprintf("apply migration %s", migration.ID)).Wrap(err)
		}

		r.logger.Info("migration applied", logger.NewField("migration", migration.ID))
	}

	return nil
}

// MigrateDown reverts applied migrations
func (r *Runner) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		return errors.NewErrorDetails("steps must be greater than 0 for down migrations", string(errors.GeneralBadRequestError), "steps")
	}

	migrations, err := r.LoadMigrations()
	if err != nil {
		return err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, migration := range selectApplied(migrations, applied, steps) {
		if migration.DownSQL == "" {
			return errors.NewErrorDetails(fmt.Sprintf("no down sql for migration %s", migration.ID), string(errors.GeneralBadRequestError), "down_sql")
		}

		err := postgresql.WithTx(ctx, r.client, func(txCtx context.Context) error {
			if _, err := r.client.Exec(txCtx, migration.DownSQL); err != nil {
				return err
			}

			_, err := r.client.Exec(txCtx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table()), migration.ID)
			return err
		})
		if err != nil {
			return errors.NewTracer(fmt.Sprintf("revert migration %s", migration.ID)).Wrap(err)
		}

		r.logger.Info("migration reverted", logger.NewField("migration", migration.ID))
	}

	return nil
}
