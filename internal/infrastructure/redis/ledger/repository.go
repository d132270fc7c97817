package ledger

import (
	"context"
	"encoding/json"
	"strconv"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/redis"
)

// Repository stores one client snapshot document per account key.
type Repository struct {
	redisclient redis.Client
	logger      logger.Interface
}

var _ ledgerv1.Repository = (*Repository)(nil)

// NewRepository creates a new Repository.
func NewRepository(redisclient redis.Client, log logger.Interface) *Repository {
	return &Repository{
		redisclient: redisclient,
		logger:      log,
	}
}

func (r *Repository) key(brokerID, clientID uint64) string {
	return r.redisclient.Key("ledger", "account",
		strconv.FormatUint(brokerID, 10), strconv.FormatUint(clientID, 10))
}

// Load decodes the stored document of a client.
func (r *Repository) Load(ctx context.Context, brokerID, clientID uint64) (*ledgerv1.Account, error) {
	data, err := r.redisclient.Get(ctx, r.key(brokerID, clientID))
	if err != nil {
		return nil, errors.NewTracer("failed to load account").Wrap(err)
	}
	if data == "" {
		return nil, errors.NewErrorDetails("account not found", string(errors.AccountNotFoundError), "client_id")
	}

	return ledgerv1.DecodeClientSnapshot(brokerID, []byte(data))
}

// Save overwrites the client's document.
func (r *Repository) Save(ctx context.Context, account *ledgerv1.Account) error {
	buf, err := json.Marshal(account.Snapshot())
	if err != nil {
		return errors.NewTracer("failed to encode account").Wrap(err)
	}

	if err := r.redisclient.Set(ctx, r.key(account.BrokerID, account.ClientID), buf, 0); err != nil {
		r.logger.ErrorContext(ctx, err,
			logger.NewField("broker_id", account.BrokerID),
			logger.NewField("client_id", account.ClientID),
			logger.NewField("operation", "Save"),
		)
		return errors.NewTracer("failed to save account").Wrap(err)
	}
	return nil
}
