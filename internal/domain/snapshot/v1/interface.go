package snapshotv1

import (
	"context"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
)

// Store defines the interface for storing and loading per-broker ledger snapshots.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=snapshotv1_mock
type Store interface {
	Store(ctx context.Context, snapshot *ledgerv1.BrokerSnapshot) error
	Load(ctx context.Context, brokerID uint64) (*ledgerv1.BrokerSnapshot, error)
}
