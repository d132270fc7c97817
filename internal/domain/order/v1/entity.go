package orderv1

import (
	"encoding/json"
	"math"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
)

// Kind is the order type carried in the order_type field.
type Kind string

// Side is the order action carried in the order_action field.
type Side string

// Status is the lifecycle state of an order.
type Status string

const (
	// KindMarket executes at the prevailing price.
	KindMarket Kind = "Market"
	// KindLimit carries an explicit limit price.
	KindLimit Kind = "Limit"

	// SideBuy buys shares.
	SideBuy Side = "Buy"
	// SideSell sells shares.
	SideSell Side = "Sell"
	// SideCancel exists on the wire but is never generated and never settled.
	SideCancel Side = "Cancel"

	// StatusPending is the status of every freshly admitted order.
	StatusPending Status = "Pending"
	// StatusCompleted is a terminal fill.
	StatusCompleted Status = "Completed"
	// StatusRejected is a terminal reject.
	StatusRejected Status = "Rejected"
)

// Order is the unit of intent exchanged between brokers and the settlement stage.
type Order struct {
	OrderID     string  `json:"order_id"`
	BrokerID    uint64  `json:"broker_id"`
	ClientID    uint64  `json:"client_id"`
	StockSymbol string  `json:"stock_symbol"`
	OrderType   Kind    `json:"order_type"`
	OrderAction Side    `json:"order_action"`
	Price       float64 `json:"price"`
	Quantity    uint64  `json:"quantity"`
	Status      Status  `json:"status"`
}

// IsTerminal reports whether the order reached Completed or Rejected.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusRejected
}

// Validate checks the fields every hop relies on.
func (o *Order) Validate() error {
	switch {
	case o.OrderID == "":
		return invalid("order id is required", "order_id")
	case o.BrokerID == 0:
		return invalid("broker id is required", "broker_id")
	case o.ClientID == 0:
		return invalid("client id is required", "client_id")
	case o.StockSymbol == "":
		return invalid("stock symbol is required", "stock_symbol")
	case o.Quantity == 0:
		return invalid("quantity must be positive", "quantity")
	case o.Price < 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0):
		return invalid("price must be a non-negative number", "price")
	}

	switch o.OrderType {
	case KindMarket, KindLimit:
	default:
		return invalid("unknown order type", "order_type")
	}

	switch o.OrderAction {
	case SideBuy, SideSell:
	case SideCancel:
		return invalid("cancel orders are not supported", "order_action")
	default:
		return invalid("unknown order action", "order_action")
	}

	switch o.Status {
	case StatusPending, StatusCompleted, StatusRejected:
	default:
		return invalid("unknown order status", "status")
	}

	return nil
}

// Clone returns a copy that can be mutated independently.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// ToBytes encodes the order into its wire form.
func (o *Order) ToBytes() ([]byte, error) {
	return json.Marshal(o)
}

// OrderFromBytes decodes an order from its wire form.
func OrderFromBytes(data []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, errors.NewTracer("failed to decode order").Wrap(
			errors.NewErrorDetails(err.Error(), string(errors.TransportDecodeError), "value"))
	}
	return &o, nil
}

func invalid(message, field string) error {
	return errors.NewErrorDetails(message, string(errors.InvalidOrderError), field)
}
