package orderpublisherv1

import (
	"context"

	orderv1 "github.com/muhammadchandra19/market-simulator/internal/domain/order/v1"
)

// Publisher writes orders to the topic that matches their status.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderpublisherv1_mock
type Publisher interface {
	Publish(ctx context.Context, orders ...*orderv1.Order) error
	Close() error
}
