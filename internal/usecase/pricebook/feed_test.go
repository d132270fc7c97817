package pricebook

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	pricereaderv1_mock "github.com/muhammadchandra19/market-simulator/internal/domain/price-reader/v1/mock"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestFollow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := pricereaderv1_mock.NewMockPriceReader(ctrl)
	book := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	decodeErr := errors.NewTracer("failed to decode price update").Wrap(
		errors.NewErrorDetails("bad json", string(errors.TransportDecodeError), "value"))

	gomock.InOrder(
		reader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{Offset: 1}, &orderv1.PriceUpdate{Name: "AAPL", Price: 100}, nil),
		reader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{Offset: 2}, nil, decodeErr),
		reader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{Offset: 3}, &orderv1.PriceUpdate{Name: "AAPL", Price: 103.25}, nil),
		reader.EXPECT().ReadMessage(gomock.Any()).Return(kafka.Message{Offset: 4}, &orderv1.PriceUpdate{Name: "MSFT", Price: -1}, nil),
		reader.EXPECT().ReadMessage(gomock.Any()).DoAndReturn(func(ctx context.Context) (kafka.Message, *orderv1.PriceUpdate, error) {
			cancel()
			<-ctx.Done()
			return kafka.Message{}, nil, ctx.Err()
		}),
	)

	done := make(chan struct{})
	go func() {
		Follow(ctx, reader, book, logger.NewNopLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not stop after cancellation")
	}

	assert.Equal(t, map[string]float64{"AAPL": 103.25}, book.Snapshot())
}
