package generator

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/mock/gomock"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	logger_mock "github.com/muhammadchandra19/market-simulator/pkg/logger/mock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replays fixed draws in order.
type scripted struct {
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scripted) IntN(n int) int {
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

func accountWith(capital int64, holdings map[string]uint64) *ledgerv1.Account {
	account := ledgerv1.NewAccount(2, 4, decimal.NewFromInt(capital))
	for symbol, qty := range holdings {
		account.Holdings[symbol] = ledgerv1.Holding{Quantity: qty, AverageCost: decimal.NewFromInt(100)}
	}
	return account
}

func TestGenerator_Generate(t *testing.T) {
	testCases := []struct {
		name       string
		account    *ledgerv1.Account
		prices     map[string]float64
		rnd        *scripted
		rejections int
		expected   []orderv1.Order
	}{
		{
			name:    "market buy forced when nothing is held",
			account: accountWith(10000, nil),
			prices:  map[string]float64{"AAPL": 100},
			rnd:     &scripted{floats: []float64{0.9}, ints: []int{4}},
			expected: []orderv1.Order{
				{BrokerID: 2, ClientID: 4, StockSymbol: "AAPL", OrderType: orderv1.KindMarket, OrderAction: orderv1.SideBuy, Price: 100, Quantity: 5, Status: orderv1.StatusPending},
			},
		},
		{
			name:    "limit buy priced by the central bucket",
			account: accountWith(10000, nil),
			prices:  map[string]float64{"AAPL": 100},
			rnd:     &scripted{floats: []float64{0.1, 0.5, 0.25}, ints: []int{0}},
			expected: []orderv1.Order{
				{BrokerID: 2, ClientID: 4, StockSymbol: "AAPL", OrderType: orderv1.KindLimit, OrderAction: orderv1.SideBuy, Price: 90, Quantity: 1, Status: orderv1.StatusPending},
			},
		},
		{
			name:    "limit buy priced by the upper tail bucket",
			account: accountWith(10000, nil),
			prices:  map[string]float64{"AAPL": 100},
			rnd:     &scripted{floats: []float64{0.1, 0.97, 0.5}, ints: []int{0}},
			expected: []orderv1.Order{
				{BrokerID: 2, ClientID: 4, StockSymbol: "AAPL", OrderType: orderv1.KindLimit, OrderAction: orderv1.SideBuy, Price: 125, Quantity: 1, Status: orderv1.StatusPending},
			},
		},
		{
			name:    "sell admitted within holdings",
			account: accountWith(0, map[string]uint64{"AAPL": 5}),
			prices:  map[string]float64{"AAPL": 105},
			rnd:     &scripted{floats: []float64{0.2, 0.9}, ints: []int{4}},
			expected: []orderv1.Order{
				{BrokerID: 2, ClientID: 4, StockSymbol: "AAPL", OrderType: orderv1.KindMarket, OrderAction: orderv1.SideSell, Price: 105, Quantity: 5, Status: orderv1.StatusPending},
			},
		},
		{
			name:       "sell beyond holdings is dropped",
			account:    accountWith(0, map[string]uint64{"AAPL": 3}),
			prices:     map[string]float64{"AAPL": 105},
			rnd:        &scripted{floats: []float64{0.2, 0.9}, ints: []int{4}},
			rejections: 1,
		},
		{
			name:       "buy beyond capital is dropped",
			account:    accountWith(10, nil),
			prices:     map[string]float64{"AAPL": 100},
			rnd:        &scripted{floats: []float64{0.9}, ints: []int{0}},
			rejections: 1,
		},
		{
			name:       "price rounding to zero is dropped",
			account:    accountWith(10000, nil),
			prices:     map[string]float64{"PENNY": 0.001},
			rnd:        &scripted{floats: []float64{0.9}, ints: []int{0}},
			rejections: 1,
		},
		{
			name:    "least held symbols first and capped per cycle",
			account: accountWith(10000, map[string]uint64{"AAPL": 5}),
			prices:  map[string]float64{"MSFT": 10, "AAPL": 10, "GOOG": 10, "AMZN": 10},
			rnd:     &scripted{floats: []float64{0.9, 0.9, 0.9}, ints: []int{0, 1, 2}},
			expected: []orderv1.Order{
				{BrokerID: 2, ClientID: 4, StockSymbol: "AMZN", OrderType: orderv1.KindMarket, OrderAction: orderv1.SideBuy, Price: 10, Quantity: 1, Status: orderv1.StatusPending},
				{BrokerID: 2, ClientID: 4, StockSymbol: "GOOG", OrderType: orderv1.KindMarket, OrderAction: orderv1.SideBuy, Price: 10, Quantity: 2, Status: orderv1.StatusPending},
				{BrokerID: 2, ClientID: 4, StockSymbol: "MSFT", OrderType: orderv1.KindMarket, OrderAction: orderv1.SideBuy, Price: 10, Quantity: 3, Status: orderv1.StatusPending},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			log := logger_mock.NewMockInterface(ctrl)
			log.EXPECT().
				DebugContext(gomock.Any(), gomock.Any(), logger.NewField("code", errors.AdmissionRejectedError), gomock.Any(), gomock.Any(), gomock.Any()).
				Times(tc.rejections)

			g := New(DefaultConfig(), tc.rnd, log)
			candidates := g.Generate(context.Background(), tc.account, tc.prices)

			require.Len(t, candidates, len(tc.expected))
			for i, c := range candidates {
				assert.Equal(t, tc.expected[i], *c.Order)
				assert.Empty(t, c.Order.OrderID)
				if c.Order.OrderAction == orderv1.SideBuy {
					require.NotNil(t, c.Stop)
					assert.Equal(t, c.Order.StockSymbol, c.Stop.Symbol)
				} else {
					assert.Nil(t, c.Stop)
				}
			}
		})
	}
}

func TestGenerator_StopBandUsesMarketPrice(t *testing.T) {
	g := New(DefaultConfig(), &scripted{floats: []float64{0.1, 0.5, 0.25}, ints: []int{0}}, logger.NewNopLogger())

	candidates := g.Generate(context.Background(), accountWith(10000, nil), map[string]float64{"AAPL": 100})

	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Stop)
	assert.InDelta(t, 90.0, candidates[0].Stop.StopLossPrice, 1e-9)
	assert.InDelta(t, 110.0, candidates[0].Stop.TakeProfitPrice, 1e-9)
}

func TestGenerator_NoPricesNoOrders(t *testing.T) {
	g := New(DefaultConfig(), &scripted{}, logger.NewNopLogger())

	assert.Empty(t, g.Generate(context.Background(), accountWith(10000, nil), map[string]float64{}))
}

func TestGenerator_QuantityBoundsAreClamped(t *testing.T) {
	testCases := []struct {
		name        string
		min, max    uint64
		expectedMin uint64
		expectedMax uint64
	}{
		{name: "zero bounds", min: 0, max: 0, expectedMin: 1, expectedMax: 1},
		{name: "inverted bounds", min: 5, max: 2, expectedMin: 5, expectedMax: 5},
		{name: "zero minimum", min: 0, max: 3, expectedMin: 1, expectedMax: 3},
		{name: "span beyond IntN", min: 1, max: math.MaxUint64, expectedMin: 1, expectedMax: math.MaxInt32},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinQuantity, cfg.MaxQuantity = tc.min, tc.max
			cfg.MaxOrdersPerCycle = 4

			g := New(cfg, rand.New(rand.NewPCG(7, 11)), logger.NewNopLogger())
			assert.Equal(t, tc.expectedMin, g.cfg.MinQuantity)
			assert.Equal(t, tc.expectedMax, g.cfg.MaxQuantity)

			prices := map[string]float64{"AAPL": 1, "MSFT": 1, "GOOG": 1, "TSLA": 1}
			require.NotPanics(t, func() {
				for _, c := range g.Generate(context.Background(), accountWith(1<<40, nil), prices) {
					assert.GreaterOrEqual(t, c.Order.Quantity, tc.expectedMin)
					assert.LessOrEqual(t, c.Order.Quantity, tc.expectedMax)
				}
			})
		})
	}
}
