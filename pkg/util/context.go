package util

import (
	"context"

	"github.com/google/uuid"
)

type key string

const (
	requestIDKey = key("x-request-id")
	orderIDKey   = key("order-id")
	brokerIDKey  = key("broker-id")
)

// WithRequestID returns a context with request id.
// It will generate new request id if the provided id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = generate()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns request id from context
// will return empty string if not present
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOrderID returns a context carrying the order id being processed.
func WithOrderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, orderIDKey, id)
}

// GetOrderID returns order id from context
func GetOrderID(ctx context.Context) string {
	id, _ := ctx.Value(orderIDKey).(string)
	return id
}

// WithBrokerID returns a context carrying the broker id that owns the current work.
func WithBrokerID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, brokerIDKey, id)
}

// GetBrokerID returns broker id from context, 0 if not present.
func GetBrokerID(ctx context.Context) uint64 {
	id, _ := ctx.Value(brokerIDKey).(uint64)
	return id
}

// generate returns a uuid-v4 string to use as request id
func generate() string {
	return uuid.NewString()
}
