package orderreader

import (
	"context"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reader represents a Kafka Reader for consuming orders from one topic within a consumer group.
type Reader struct {
	kafkaReader messageReader
	logger      logger.Interface
}

// NewReader creates a new Kafka reader for topic. Offsets are committed explicitly
// through CommitMessages once an order has been handled.
func NewReader(brokers []string, topic, groupID string, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// ReadMessage fetches the next message and decodes it as an Order.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderv1.Order, error) {
	msg, err := r.kafkaReader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, nil, errors.NewTracer("failed to fetch order").Wrap(err)
	}

	order, err := orderv1.OrderFromBytes(msg.Value)
	if err != nil {
		return msg, nil, err
	}

	return msg, order, nil
}

// CommitMessages commits the messages to Kafka after processing.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		return errors.NewTracer("failed to commit orders").Wrap(err)
	}
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logger.Error(err, logger.NewField("operation", "Close"))
		return err
	}
	return nil
}
