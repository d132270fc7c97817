package pricereader

import (
	"context"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Reader consumes the price topic. Every process reads the whole feed from the latest
// offset, so no consumer group is used.
type Reader struct {
	kafkaReader messageReader
	logger      logger.Interface
}

// NewReader creates a new Kafka reader for the price topic.
func NewReader(cfg config.KafkaConfig, log logger.Interface) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.PriceTopic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

// ReadMessage reads the next tick from the topic.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderv1.PriceUpdate, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		return kafka.Message{}, nil, errors.NewTracer("failed to read price").Wrap(err)
	}

	update, err := orderv1.PriceUpdateFromBytes(msg.Value)
	if err != nil {
		return msg, nil, err
	}

	return msg, update, nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logger.Error(err, logger.NewField("operation", "Close"))
		return err
	}
	return nil
}
