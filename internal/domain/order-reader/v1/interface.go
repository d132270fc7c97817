package orderreaderv1

import (
	"context"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/segmentio/kafka-go"
)

// OrderReader defines the interface for reading orders from a topic.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	// ReadMessage fetches the next message and decodes it. A message that cannot be decoded is
	// returned together with an error carrying errors.TransportDecodeError so the caller can skip it.
	ReadMessage(ctx context.Context) (kafka.Message, *orderv1.Order, error)
	// CommitMessages marks messages as processed.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close closes the reader
	Close() error
}
