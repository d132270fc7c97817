package snapshot

import (
	"context"
	"encoding/json"
	"strconv"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/redis"
)

// Store keeps the latest ledger snapshot of every broker in Redis.
type Store struct {
	redisclient redis.Client
	logger      logger.Interface
}

// NewStore creates a new Store.
func NewStore(redisclient redis.Client, log logger.Interface) *Store {
	return &Store{
		redisclient: redisclient,
		logger:      log,
	}
}

func (s *Store) key(brokerID uint64) string {
	return s.redisclient.Key("snapshot", "broker", strconv.FormatUint(brokerID, 10))
}

// Store overwrites the broker's snapshot.
func (s *Store) Store(ctx context.Context, snapshot *ledgerv1.BrokerSnapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key(snapshot.BrokerID), buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.NewField("broker_id", snapshot.BrokerID),
			logger.NewField("action", "store snapshot"),
		)
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.DebugContext(ctx, "snapshot stored",
		logger.NewField("broker_id", snapshot.BrokerID),
		logger.NewField("clients", len(snapshot.Clients)),
	)
	return nil
}

// Load returns the broker's snapshot, or nil when none was stored yet.
func (s *Store) Load(ctx context.Context, brokerID uint64) (*ledgerv1.BrokerSnapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key(brokerID))
	if err != nil {
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "no snapshot found", logger.NewField("broker_id", brokerID))
		return nil, nil
	}

	var snapshot ledgerv1.BrokerSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(
			errors.NewErrorDetails(err.Error(), string(errors.SnapshotUnavailableError), "snapshot"))
	}

	return &snapshot, nil
}
