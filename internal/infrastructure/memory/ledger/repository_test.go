package ledger

import (
	"context"
	"testing"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveThenLoad(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	_, err := repo.Load(ctx, 1, 1)
	assert.True(t, errors.HasCode(err, errors.AccountNotFoundError))

	account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(10000))
	require.NoError(t, account.ApplyBuy("AAPL", 5, decimal.RequireFromString("99.96")))
	require.NoError(t, repo.Save(ctx, account))

	loaded, err := repo.Load(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, account, loaded)

	// stored copies are isolated from later mutations on either side
	require.NoError(t, account.ApplySell("AAPL", 5, decimal.NewFromInt(100)))
	loaded.Holdings["MSFT"] = ledgerv1.Holding{Quantity: 1}

	again, err := repo.Load(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), again.Quantity("AAPL"))
	assert.Equal(t, uint64(0), again.Quantity("MSFT"))
	assert.Equal(t, 1, repo.Len())
}
