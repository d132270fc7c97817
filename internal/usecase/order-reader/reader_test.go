package orderreader

import (
	"context"
	"fmt"
	"testing"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	fetchErr  error
	committed []kafka.Message
}

func (f *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	if f.fetchErr != nil {
		return kafka.Message{}, f.fetchErr
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestReader_ReadMessage(t *testing.T) {
	valid := []byte(`{"order_id":"7","broker_id":1,"client_id":2,"stock_symbol":"AAPL","order_type":"Limit","order_action":"Buy","price":99.96,"quantity":5,"status":"Completed"}`)

	testCases := []struct {
		name         string
		fake         *fakeReader
		expected     *orderv1.Order
		expectedCode errors.ErrorCode
		expectedMsg  bool
	}{
		{
			name: "valid order",
			fake: &fakeReader{msgs: []kafka.Message{{Offset: 3, Value: valid}}},
			expected: &orderv1.Order{
				OrderID: "7", BrokerID: 1, ClientID: 2, StockSymbol: "AAPL",
				OrderType: orderv1.KindLimit, OrderAction: orderv1.SideBuy,
				Price: 99.96, Quantity: 5, Status: orderv1.StatusCompleted,
			},
			expectedMsg: true,
		},
		{
			name:         "garbage is returned with its message",
			fake:         &fakeReader{msgs: []kafka.Message{{Offset: 4, Value: []byte("{nope")}}},
			expectedCode: errors.TransportDecodeError,
			expectedMsg:  true,
		},
		{
			name: "fetch failure",
			fake: &fakeReader{fetchErr: fmt.Errorf("group coordinator unavailable")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Reader{kafkaReader: tc.fake, logger: logger.NewNopLogger()}

			msg, order, err := r.ReadMessage(context.Background())
			assert.Equal(t, tc.expected, order)
			assert.Equal(t, tc.expectedMsg, msg.Value != nil)
			switch {
			case tc.expected != nil:
				require.NoError(t, err)
			case tc.expectedCode != "":
				assert.True(t, errors.HasCode(err, tc.expectedCode))
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestReader_CommitMessages(t *testing.T) {
	fake := &fakeReader{}
	r := &Reader{kafkaReader: fake, logger: logger.NewNopLogger()}

	require.NoError(t, r.CommitMessages(context.Background(), kafka.Message{Offset: 1}, kafka.Message{Offset: 2}))
	assert.Len(t, fake.committed, 2)
}
