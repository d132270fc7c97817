package orderv1

import (
	"encoding/json"
	"math"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
)

// PriceUpdate is a single tick of the external price feed.
type PriceUpdate struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Validate rejects ticks the PriceBook must never store.
func (p *PriceUpdate) Validate() error {
	if p.Name == "" {
		return errors.NewErrorDetails("symbol name is required", string(errors.TransportDecodeError), "name")
	}
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return errors.NewErrorDetails("price must be a non-negative number", string(errors.TransportDecodeError), "price")
	}
	return nil
}

// ToBytes encodes the tick into its wire form.
func (p *PriceUpdate) ToBytes() ([]byte, error) {
	return json.Marshal(p)
}

// PriceUpdateFromBytes decodes and validates a tick.
func PriceUpdateFromBytes(data []byte) (*PriceUpdate, error) {
	var p PriceUpdate
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.NewTracer("failed to decode price update").Wrap(
			errors.NewErrorDetails(err.Error(), string(errors.TransportDecodeError), "value"))
	}
	if err := p.Validate(); err != nil {
		return nil, errors.NewTracer("invalid price update").Wrap(err)
	}
	return &p, nil
}
