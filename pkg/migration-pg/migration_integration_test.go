//go:build integration

package migrationpg

import (
	"context"
	"testing"

	"github.com/muhammadchandra19/market-simulator/internal/infrastructure/postgresql/migrations"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_UpAndDown(t *testing.T) {
	h := postgresql.NewTestHelper(t)
	client := h.GetClient()
	ctx := context.Background()

	runner := NewRunner(client, Config{Source: migrations.FS}, logger.NewNopLogger())
	require.NoError(t, runner.EnsureMigrationTable(ctx))

	all, err := runner.LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	require.NoError(t, runner.MigrateUp(ctx, 0))

	pending, err := runner.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var accounts int
	require.NoError(t, client.QueryRow(ctx, "SELECT COUNT(*) FROM client_accounts").Scan(&accounts))
	assert.Zero(t, accounts)

	require.NoError(t, runner.MigrateDown(ctx, len(all)))

	pending, err = runner.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, len(all))

	_, err = client.Exec(ctx, "SELECT 1 FROM client_accounts")
	assert.Error(t, err)
}
