package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

type accountRepository struct {
	*txState
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func (r *accountRepository) FindAccountByEntity(_ context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error) {
	for _, account := range r.accounts {
		if account.EntityType == entityType && account.EntityID == entityID {
			return &account, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *accountRepository) CreateAccountIfAbsent(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if existing, err := r.FindAccountByEntity(ctx, account.EntityType, account.EntityID); err == nil {
		return existing, nil
	}
	if err := r.writable(); err != nil {
		return nil, err
	}
	if _, taken := r.accounts[account.AccountID]; taken {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	r.accounts[account.AccountID] = account
	return &account, nil
}

func (r *accountRepository) UpdateKYCLevel(_ context.Context, accountID string, level domain.KYCLevel, now time.Time) error {
	if err := r.writable(); err != nil {
		return err
	}
	account, ok := r.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	account.KYCLevel = level
	account.UpdatedAt = now
	r.accounts[accountID] = account
	return nil
}

// LockAccount only checks existence; the store mutex already serializes writers.
func (r *accountRepository) LockAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.FindAccountByID(ctx, accountID)
}
