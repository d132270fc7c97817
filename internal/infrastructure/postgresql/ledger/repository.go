package ledger

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/muhammadchandra19/market-simulator/pkg/postgresql"
	"github.com/shopspring/decimal"
)

// Repository stores accounts in client_accounts and client_holdings.
type Repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

var _ ledgerv1.Repository = (*Repository)(nil)

// NewRepository creates a new repository.
func NewRepository(db postgresql.PostgreSQLClient, log logger.Interface) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Load reads an account with its holdings.
func (r *Repository) Load(ctx context.Context, brokerID, clientID uint64) (*ledgerv1.Account, error) {
	query := `SELECT capital::text, buy_count, sell_count FROM client_accounts WHERE broker_id = $1 AND client_id = $2`

	var (
		capital             string
		buyCount, sellCount int64
	)
	err := r.db.QueryRow(ctx, query, int64(brokerID), int64(clientID)).Scan(&capital, &buyCount, &sellCount)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewErrorDetails("account not found", string(errors.AccountNotFoundError), "client_id")
	}
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	amount, err := decimal.NewFromString(capital)
	if err != nil {
		return nil, errors.NewTracer("malformed capital").Wrap(
			errors.NewErrorDetails(err.Error(), string(errors.SnapshotUnavailableError), "capital"))
	}

	account := ledgerv1.NewAccount(brokerID, clientID, amount)
	account.BuyCount = uint64(buyCount)
	account.SellCount = uint64(sellCount)

	rows, err := r.db.Query(ctx,
		`SELECT symbol, quantity, average_cost::text FROM client_holdings WHERE broker_id = $1 AND client_id = $2`,
		int64(brokerID), int64(clientID),
	)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			symbol, cost string
			quantity     int64
		)
		if err := rows.Scan(&symbol, &quantity, &cost); err != nil {
			return nil, errors.TracerFromError(err)
		}
		average, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, errors.NewTracer("malformed average cost").Wrap(
				errors.NewErrorDetails(err.Error(), string(errors.SnapshotUnavailableError), "average_cost"))
		}
		account.Holdings[symbol] = ledgerv1.Holding{Quantity: uint64(quantity), AverageCost: average}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}

	return account, nil
}

// Save replaces the stored account and its holdings in one transaction. The account row is
// locked first so concurrent writers of the same client serialize.
func (r *Repository) Save(ctx context.Context, account *ledgerv1.Account) error {
	brokerID, clientID := int64(account.BrokerID), int64(account.ClientID)

	err := postgresql.WithTx(ctx, r.db, func(txCtx context.Context) error {
		var locked int
		err := r.db.QueryRow(txCtx,
			`SELECT 1 FROM client_accounts WHERE broker_id = $1 AND client_id = $2 FOR UPDATE`,
			brokerID, clientID,
		).Scan(&locked)
		if err != nil && !stderrors.Is(err, pgx.ErrNoRows) {
			return err
		}

		_, err = r.db.Exec(txCtx, `
			INSERT INTO client_accounts (broker_id, client_id, capital, buy_count, sell_count, updated_at)
			VALUES ($1, $2, $3::text::numeric, $4, $5, NOW())
			ON CONFLICT (broker_id, client_id) DO UPDATE SET
				capital = EXCLUDED.capital,
				buy_count = EXCLUDED.buy_count,
				sell_count = EXCLUDED.sell_count,
				updated_at = EXCLUDED.updated_at`,
			brokerID, clientID, account.Capital.String(), int64(account.BuyCount), int64(account.SellCount),
		)
		if err != nil {
			return err
		}

		if _, err := r.db.Exec(txCtx,
			`DELETE FROM client_holdings WHERE broker_id = $1 AND client_id = $2`,
			brokerID, clientID,
		); err != nil {
			return err
		}

		if len(account.Holdings) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, symbol := range account.Symbols() {
			h := account.Holdings[symbol]
			batch.Queue(
				`INSERT INTO client_holdings (broker_id, client_id, symbol, quantity, average_cost) VALUES ($1, $2, $3, $4, $5::text::numeric)`,
				brokerID, clientID, symbol, int64(h.Quantity), h.AverageCost.String(),
			)
		}

		results := r.db.SendBatch(txCtx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		r.logger.ErrorContext(ctx, err,
			logger.NewField("broker_id", account.BrokerID),
			logger.NewField("client_id", account.ClientID),
			logger.NewField("operation", "Save"),
		)
		return errors.NewTracer("failed to save account").Wrap(err)
	}

	return nil
}
