package repositories

import (
	"context"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// LotRepository stores credit lots.
type LotRepository interface {
	// InsertLot stores lot unless its idempotency key is taken. It reports
	// whether a row was written and fills lot.Seq when it was.
	InsertLot(ctx context.Context, lot *domain.Lot) (bool, error)

	FindLotByID(ctx context.Context, lotID string) (*domain.Lot, error)
	FindLotByIdempotencyKey(ctx context.Context, key string) (*domain.Lot, error)

	// FindLotForUpdate locks and returns one lot.
	FindLotForUpdate(ctx context.Context, lotID string) (*domain.Lot, error)

	// ListSpendableLotsForUpdate locks and returns the lots of an account pool
	// that still hold funds, oldest first.
	ListSpendableLotsForUpdate(ctx context.Context, accountID, poolID string) ([]domain.Lot, error)

	// FindLotsForUpdate locks and returns the given lots keyed by id.
	FindLotsForUpdate(ctx context.Context, lotIDs []string) (map[string]domain.Lot, error)

	UpdateLotAvailable(ctx context.Context, lotID string, availableMicro int64) error
}

// ReservationRepository stores holds.
type ReservationRepository interface {
	InsertReservation(ctx context.Context, reservation domain.Reservation) error
	FindReservationByID(ctx context.Context, reservationID string) (*domain.Reservation, error)
	FindReservationForUpdate(ctx context.Context, reservationID string) (*domain.Reservation, error)
	UpdateReservation(ctx context.Context, reservation domain.Reservation) error
}

// EntryRepository stores the append-only entry log.
type EntryRepository interface {
	// AppendEntry stores entry and fills entry.Seq.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error

	FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error)

	// LatestEntry returns the most recent entry of an account pool.
	LatestEntry(ctx context.Context, accountID, poolID string) (*domain.LedgerEntry, error)

	// ListEntries returns entries newest first.
	ListEntries(ctx context.Context, accountID string, filter domain.HistoryFilter) ([]domain.LedgerEntry, error)
}

// DebtRepository stores uncovered refunds.
type DebtRepository interface {
	InsertDebt(ctx context.Context, debt domain.Debt) error
	FindDebtByEntryID(ctx context.Context, entryID string) (*domain.Debt, error)
	ListOutstandingDebts(ctx context.Context, accountID string) ([]domain.Debt, error)
}

// BalanceReader computes balances from lots and debts.
type BalanceReader interface {
	// LockAccountPool serializes ledger mutations on one account pool until the
	// transaction ends.
	LockAccountPool(ctx context.Context, accountID, poolID string) error

	PoolBalance(ctx context.Context, accountID, poolID string) (domain.PoolBalance, error)

	// Balances returns one row per pool the account has lots or debts in, ordered by pool id.
	Balances(ctx context.Context, accountID string) ([]domain.PoolBalance, error)
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	LotRepository
	ReservationRepository
	EntryRepository
	DebtRepository
	BalanceReader
}
