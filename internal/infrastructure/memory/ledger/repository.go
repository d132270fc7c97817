// Package ledger keeps accounts in process memory. State is lost on restart.
package ledger

import (
	"context"
	"sync"

	ledgerv1 "github.com/muhammadchandra19/market-simulator/internal/domain/ledger/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
)

type key struct {
	brokerID, clientID uint64
}

// Repository is a mutex guarded map of account copies.
type Repository struct {
	mu       sync.RWMutex
	accounts map[key]*ledgerv1.Account
}

var _ ledgerv1.Repository = (*Repository)(nil)

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{accounts: make(map[key]*ledgerv1.Account)}
}

// Load returns a copy of the stored account.
func (r *Repository) Load(_ context.Context, brokerID, clientID uint64) (*ledgerv1.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[key{brokerID, clientID}]
	if !ok {
		return nil, errors.NewErrorDetails("account not found", string(errors.AccountNotFoundError), "client_id")
	}
	return account.Clone(), nil
}

// Save stores a copy of account.
func (r *Repository) Save(_ context.Context, account *ledgerv1.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[key{account.BrokerID, account.ClientID}] = account.Clone()
	return nil
}

// Len returns the number of stored accounts.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}
