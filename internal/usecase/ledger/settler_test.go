package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	dedupev1_mock "github.com/muhammadchandra19/market-simulator/internal/domain/dedupe/v1/mock"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	ledgerv1_mock "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1/mock"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/internal/usecase/dedupe"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	logger_mock "github.com/muhammadchandra19/market-simulator/pkg/logger/mock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(id string, side orderv1.Side, qty uint64, price float64) *orderv1.Order {
	return &orderv1.Order{
		OrderID:     id,
		BrokerID:    1,
		ClientID:    1,
		StockSymbol: "AAPL",
		OrderType:   orderv1.KindLimit,
		OrderAction: side,
		Price:       price,
		Quantity:    qty,
		Status:      orderv1.StatusCompleted,
	}
}

func quietLogger(ctrl *gomock.Controller) *logger_mock.MockInterface {
	log := logger_mock.NewMockInterface(ctrl)
	log.EXPECT().InfoContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().DebugContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func TestSettler_BuyThenSellScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledgerv1_mock.NewMockRepository(ctrl)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	settler := NewSettler(dedupe.NewMemory(), repo, quietLogger(ctrl))
	account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(10000))
	ctx := context.Background()

	result, err := settler.Apply(ctx, account, completed("1", orderv1.SideBuy, 5, 99.96))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)
	assert.True(t, account.Capital.Equal(decimal.RequireFromString("9500.20")))
	assert.Equal(t, uint64(5), account.Quantity("AAPL"))

	result, err = settler.Apply(ctx, account, completed("2", orderv1.SideSell, 5, 107.10))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)
	assert.True(t, account.Capital.Equal(decimal.RequireFromString("10035.70")))
	assert.Equal(t, uint64(0), account.Quantity("AAPL"))
	assert.Empty(t, account.Holdings)
	assert.Equal(t, Stats{Applied: 2}, settler.Stats())
}

func TestSettler_DuplicateAppliedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledgerv1_mock.NewMockRepository(ctrl)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	log := quietLogger(ctrl)
	log.EXPECT().WarnContext(gomock.Any(), "duplicate settlement ignored", gomock.Any()).Times(2)

	settler := NewSettler(dedupe.NewMemory(), repo, log)
	account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(10000))
	order := completed("9", orderv1.SideBuy, 2, 50)

	for i := 0; i < 3; i++ {
		_, err := settler.Apply(context.Background(), account, order)
		require.NoError(t, err)
	}

	assert.True(t, account.Capital.Equal(decimal.NewFromInt(9900)))
	assert.Equal(t, uint64(2), account.Quantity("AAPL"))
	assert.Equal(t, uint64(1), account.BuyCount)
	assert.Equal(t, Stats{Applied: 1, Duplicates: 2}, settler.Stats())
}

func TestSettler_Apply(t *testing.T) {
	testCases := []struct {
		name           string
		order          *orderv1.Order
		setupMocks     func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface)
		expected       Result
		expectedCode   errors.ErrorCode
		expectedStats  Stats
		expectedCap    string
		expectedShares uint64
	}{
		{
			name:  "rejected order leaves the account untouched",
			order: &orderv1.Order{OrderID: "3", ClientID: 1, StockSymbol: "AAPL", OrderAction: orderv1.SideBuy, Quantity: 1, Price: 10, Status: orderv1.StatusRejected},
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
				gate.EXPECT().MarkIfNew(gomock.Any(), "3").Return(true, nil)
			},
			expected:      ResultRejected,
			expectedStats: Stats{Rejected: 1},
			expectedCap:   "1000",
		},
		{
			name:  "pending order is not settled",
			order: &orderv1.Order{OrderID: "4", ClientID: 1, StockSymbol: "AAPL", OrderAction: orderv1.SideBuy, Quantity: 1, Price: 10, Status: orderv1.StatusPending},
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
			},
			expected:     ResultVoid,
			expectedCode: errors.InvalidOrderError,
			expectedCap:  "1000",
		},
		{
			name:  "order of another client",
			order: &orderv1.Order{OrderID: "5", ClientID: 2, StockSymbol: "AAPL", OrderAction: orderv1.SideBuy, Quantity: 1, Price: 10, Status: orderv1.StatusCompleted},
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
			},
			expected:     ResultVoid,
			expectedCode: errors.ForeignClientError,
			expectedCap:  "1000",
		},
		{
			name:  "cancel action cannot be settled",
			order: &orderv1.Order{OrderID: "6", ClientID: 1, StockSymbol: "AAPL", OrderAction: orderv1.SideCancel, Quantity: 1, Price: 10, Status: orderv1.StatusCompleted},
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
			},
			expected:     ResultVoid,
			expectedCode: errors.InvalidOrderError,
			expectedCap:  "1000",
		},
		{
			name:  "gate failure applies nothing",
			order: completed("7", orderv1.SideBuy, 1, 10),
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
				gate.EXPECT().MarkIfNew(gomock.Any(), "7").Return(false, fmt.Errorf("redis down"))
			},
			expected:     ResultVoid,
			expectedCode: errors.SettlementGateUnavailableError,
			expectedCap:  "1000",
		},
		{
			name:  "insufficient capital is an invariant violation",
			order: completed("8", orderv1.SideBuy, 10, 500),
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
				gate.EXPECT().MarkIfNew(gomock.Any(), "8").Return(true, nil)
				log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
			},
			expected:      ResultVoid,
			expectedStats: Stats{Violations: 1},
			expectedCap:   "1000",
		},
		{
			name:  "oversell is an invariant violation",
			order: completed("9", orderv1.SideSell, 1, 10),
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
				gate.EXPECT().MarkIfNew(gomock.Any(), "9").Return(true, nil)
				log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any()).Times(1)
			},
			expected:      ResultVoid,
			expectedStats: Stats{Violations: 1},
			expectedCap:   "1000",
		},
		{
			name:  "persist failure keeps the in-memory fill",
			order: completed("10", orderv1.SideBuy, 2, 100),
			setupMocks: func(gate *dedupev1_mock.MockGate, repo *ledgerv1_mock.MockRepository, log *logger_mock.MockInterface) {
				gate.EXPECT().MarkIfNew(gomock.Any(), "10").Return(true, nil)
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(fmt.Errorf("connection reset"))
			},
			expected:       ResultApplied,
			expectedStats:  Stats{Applied: 1, PersistFailures: 1},
			expectedCap:    "800",
			expectedShares: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gate := dedupev1_mock.NewMockGate(ctrl)
			repo := ledgerv1_mock.NewMockRepository(ctrl)
			log := quietLogger(ctrl)
			tc.setupMocks(gate, repo, log)

			settler := NewSettler(gate, repo, log)
			account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(1000))

			result, err := settler.Apply(context.Background(), account, tc.order)
			assert.Equal(t, tc.expected, result)
			if tc.expectedCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tc.expectedCode))
			}
			assert.Equal(t, tc.expectedStats, settler.Stats())
			assert.True(t, account.Capital.Equal(decimal.RequireFromString(tc.expectedCap)), account.Capital.String())
			assert.Equal(t, tc.expectedShares, account.Quantity("AAPL"))
		})
	}
}

func TestSettler_SaveIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := ledgerv1_mock.NewMockRepository(ctrl)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(saveCtx context.Context, _ *ledgerv1.Account) error {
		return saveCtx.Err()
	})

	settler := NewSettler(dedupe.NewMemory(), repo, quietLogger(ctrl))
	account := ledgerv1.NewAccount(1, 1, decimal.NewFromInt(1000))

	result, err := settler.Apply(ctx, account, completed("1", orderv1.SideBuy, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, result)
}
