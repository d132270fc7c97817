package pricereaderv1

import (
	"context"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/segmentio/kafka-go"
)

// PriceReader defines the interface for reading price ticks from the feed.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=pricereaderv1_mock
type PriceReader interface {
	// ReadMessage fetches the next tick. Malformed ticks come back with an error carrying
	// errors.TransportDecodeError.
	ReadMessage(ctx context.Context) (kafka.Message, *orderv1.PriceUpdate, error)
	// Close closes the reader
	Close() error
}
