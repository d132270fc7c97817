package orderpublisher

import (
	"context"
	"time"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/config"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes orders to the topic of their status, keyed by order id so every
// hop of one order lands on the same partition.
type Publisher struct {
	kafkaWriter messageWriter
	topics      map[orderv1.Status]string
	logger      logger.Interface
}

// NewPublisher creates a new Kafka publisher for orders.
func NewPublisher(cfg config.KafkaConfig, log logger.Interface) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(kafkaWriter, cfg, log)
}

func newPublisher(w messageWriter, cfg config.KafkaConfig, log logger.Interface) *Publisher {
	return &Publisher{
		kafkaWriter: w,
		topics: map[orderv1.Status]string{
			orderv1.StatusPending:   cfg.OrderTopic,
			orderv1.StatusCompleted: cfg.CompletedTopic,
			orderv1.StatusRejected:  cfg.RejectedTopic,
		},
		logger: log,
	}
}

// Publish writes orders in one batch. Either every order is accepted or an error is returned.
func (p *Publisher) Publish(ctx context.Context, orders ...*orderv1.Order) error {
	if len(orders) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(orders))
	for _, order := range orders {
		topic, ok := p.topics[order.Status]
		if !ok {
			return errors.NewErrorDetails("no topic for order status", string(errors.InvalidOrderError), "status")
		}
		value, err := order.ToBytes()
		if err != nil {
			return errors.NewTracer("failed to encode order").Wrap(err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(order.OrderID),
			Value: value,
		})
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.NewField("operation", "Publish"),
			logger.NewField("count", len(msgs)),
		)
		return errors.NewTracer("failed to publish orders").Wrap(err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
