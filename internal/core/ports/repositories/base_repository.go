package repositories

import (
	"context"
)

// TxFunc is the body of a unit of work. The repositories it receives are bound
// to the surrounding transaction and must not be retained after it returns.
type TxFunc func(ctx context.Context, repos RepositoryProvider) error

// TransactionManager runs units of work against the store.
type TransactionManager interface {
	// InTx runs fn in a read-write transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn TxFunc) error

	// ReadOnly runs fn against a consistent snapshot. Writes fail.
	ReadOnly(ctx context.Context, fn TxFunc) error
}
