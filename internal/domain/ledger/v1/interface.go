package ledgerv1

import "context"

// Repository persists client accounts. Implementations return an error carrying
// errors.AccountNotFoundError when no account exists for a client.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=ledgerv1_mock
type Repository interface {
	Load(ctx context.Context, brokerID, clientID uint64) (*Account, error)
	Save(ctx context.Context, account *Account) error
}
