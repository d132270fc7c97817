package ledgerv1

import (
	"encoding/json"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/money"
)

// HoldingSnapshot is the persisted form of a Holding.
type HoldingSnapshot struct {
	Quantity     uint64  `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
}

// ClientSnapshot is the persisted form of an Account.
type ClientSnapshot struct {
	ClientID             uint64                     `json:"client_id"`
	Portfolio            map[string]HoldingSnapshot `json:"portfolio"`
	BuyTransactionCount  uint64                     `json:"buy_transaction_count"`
	SellTransactionCount uint64                     `json:"sell_transaction_count"`
	Capital              float64                    `json:"capital"`
}

// BrokerSnapshot groups the client snapshots of one broker.
type BrokerSnapshot struct {
	BrokerID uint64           `json:"broker_id"`
	Clients  []ClientSnapshot `json:"clients"`
}

// Snapshot is the whole-market ledger document.
type Snapshot struct {
	Brokers []BrokerSnapshot `json:"brokers"`
}

// Snapshot renders the account in its persisted shape.
func (a *Account) Snapshot() ClientSnapshot {
	portfolio := make(map[string]HoldingSnapshot, len(a.Holdings))
	for s, h := range a.Holdings {
		portfolio[s] = HoldingSnapshot{
			Quantity:     h.Quantity,
			AveragePrice: money.ToFloat(h.AverageCost),
		}
	}
	return ClientSnapshot{
		ClientID:             a.ClientID,
		Portfolio:            portfolio,
		BuyTransactionCount:  a.BuyCount,
		SellTransactionCount: a.SellCount,
		Capital:              money.ToFloat(a.Capital),
	}
}

// AccountFromSnapshot rebuilds an account, rejecting documents that break ledger invariants.
func AccountFromSnapshot(brokerID uint64, s ClientSnapshot) (*Account, error) {
	if s.ClientID == 0 {
		return nil, malformed("client id is required", "client_id")
	}
	if s.Capital < 0 {
		return nil, malformed("capital must not be negative", "capital")
	}

	a := NewAccount(brokerID, s.ClientID, money.FromFloat(s.Capital))
	a.BuyCount = s.BuyTransactionCount
	a.SellCount = s.SellTransactionCount
	for symbol, h := range s.Portfolio {
		if symbol == "" || h.AveragePrice < 0 {
			return nil, malformed("holding is malformed", "portfolio")
		}
		// zero quantity entries are dropped rather than kept around
		if h.Quantity == 0 {
			continue
		}
		a.Holdings[symbol] = Holding{Quantity: h.Quantity, AverageCost: money.FromFloat(h.AveragePrice)}
	}
	return a, nil
}

// DecodeClientSnapshot parses a persisted client document.
func DecodeClientSnapshot(brokerID uint64, data []byte) (*Account, error) {
	var s ClientSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, malformed(err.Error(), "document")
	}
	return AccountFromSnapshot(brokerID, s)
}

func malformed(message, field string) error {
	return errors.NewTracer("malformed ledger snapshot").Wrap(
		errors.NewErrorDetails(message, string(errors.SnapshotUnavailableError), field))
}
