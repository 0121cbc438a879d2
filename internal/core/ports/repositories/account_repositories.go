package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account by its identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByEntity retrieves the account owned by a platform entity.
	FindAccountByEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// CreateAccountIfAbsent inserts account unless one already exists for its
	// entity, and returns the stored row either way.
	CreateAccountIfAbsent(ctx context.Context, account domain.Account) (*domain.Account, error)

	// UpdateKYCLevel stores the verification tier reported by the KYC pipeline.
	UpdateKYCLevel(ctx context.Context, accountID string, level domain.KYCLevel, now time.Time) error
}

// AccountLocker serializes work on one account for the rest of the transaction.
type AccountLocker interface {
	// LockAccount locks the account row and returns it.
	LockAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountLocker
}
