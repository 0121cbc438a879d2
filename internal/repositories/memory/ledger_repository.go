package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

type ledgerRepository struct {
	*txState
}

var _ portsrepo.LedgerRepositoryFacade = (*ledgerRepository)(nil)

func (r *ledgerRepository) InsertLot(_ context.Context, lot *domain.Lot) (bool, error) {
	if err := r.writable(); err != nil {
		return false, err
	}
	if _, taken := r.lots[lot.LotID]; taken {
		return false, fmt.Errorf("%w: lot %s", apperrors.ErrDuplicate, lot.LotID)
	}
	if lot.IdempotencyKey != "" {
		for _, existing := range r.lots {
			if existing.IdempotencyKey == lot.IdempotencyKey {
				return false, nil
			}
		}
	}
	lot.Seq = r.nextSeq()
	r.lots[lot.LotID] = *lot
	return true, nil
}

func (r *ledgerRepository) FindLotByID(_ context.Context, lotID string) (*domain.Lot, error) {
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &lot, nil
}

func (r *ledgerRepository) FindLotByIdempotencyKey(_ context.Context, key string) (*domain.Lot, error) {
	for _, lot := range r.lots {
		if key != "" && lot.IdempotencyKey == key {
			return &lot, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *ledgerRepository) FindLotForUpdate(ctx context.Context, lotID string) (*domain.Lot, error) {
	return r.FindLotByID(ctx, lotID)
}

func (r *ledgerRepository) ListSpendableLotsForUpdate(_ context.Context, accountID, poolID string) ([]domain.Lot, error) {
	lots := []domain.Lot{}
	for _, lot := range r.lots {
		if lot.AccountID == accountID && lot.PoolID == poolID && lot.AvailableMicro > 0 {
			lots = append(lots, lot)
		}
	}
	slices.SortFunc(lots, func(a, b domain.Lot) int { return cmp.Compare(a.Seq, b.Seq) })
	return lots, nil
}

func (r *ledgerRepository) FindLotsForUpdate(_ context.Context, lotIDs []string) (map[string]domain.Lot, error) {
	found := make(map[string]domain.Lot, len(lotIDs))
	for _, id := range lotIDs {
		if lot, ok := r.lots[id]; ok {
			found[id] = lot
		}
	}
	return found, nil
}

func (r *ledgerRepository) UpdateLotAvailable(_ context.Context, lotID string, availableMicro int64) error {
	if err := r.writable(); err != nil {
		return err
	}
	lot, ok := r.lots[lotID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if availableMicro < 0 || availableMicro > lot.OriginalMicro {
		return fmt.Errorf("%w: lot %s available %d outside [0, %d]", apperrors.ErrValidation, lotID, availableMicro, lot.OriginalMicro)
	}
	lot.AvailableMicro = availableMicro
	r.lots[lotID] = lot
	return nil
}

func (r *ledgerRepository) InsertReservation(_ context.Context, reservation domain.Reservation) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, taken := r.reservations[reservation.ReservationID]; taken {
		return fmt.Errorf("%w: reservation %s", apperrors.ErrDuplicate, reservation.ReservationID)
	}
	r.reservations[reservation.ReservationID] = reservation.Clone()
	return nil
}

func (r *ledgerRepository) FindReservationByID(_ context.Context, reservationID string) (*domain.Reservation, error) {
	reservation, ok := r.reservations[reservationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := reservation.Clone()
	return &cp, nil
}

func (r *ledgerRepository) FindReservationForUpdate(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return r.FindReservationByID(ctx, reservationID)
}

func (r *ledgerRepository) UpdateReservation(_ context.Context, reservation domain.Reservation) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.reservations[reservation.ReservationID]; !ok {
		return apperrors.ErrNotFound
	}
	r.reservations[reservation.ReservationID] = reservation.Clone()
	return nil
}

func (r *ledgerRepository) AppendEntry(_ context.Context, entry *domain.LedgerEntry) error {
	if err := r.writable(); err != nil {
		return err
	}
	if entry.IdempotencyKey != "" {
		for _, existing := range r.entries {
			if existing.IdempotencyKey == entry.IdempotencyKey {
				return fmt.Errorf("%w: entry idempotency key %s", apperrors.ErrDuplicate, entry.IdempotencyKey)
			}
		}
	}
	entry.Seq = r.nextSeq()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *ledgerRepository) FindEntryByIdempotencyKey(_ context.Context, key string) (*domain.LedgerEntry, error) {
	for _, entry := range r.entries {
		if key != "" && entry.IdempotencyKey == key {
			return &entry, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *ledgerRepository) LatestEntry(_ context.Context, accountID, poolID string) (*domain.LedgerEntry, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if entry.AccountID == accountID && entry.PoolID == poolID {
			return &entry, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *ledgerRepository) ListEntries(_ context.Context, accountID string, filter domain.HistoryFilter) ([]domain.LedgerEntry, error) {
	entries := []domain.LedgerEntry{}
	// Entries are appended in seq order, so walking backwards yields newest first.
	for i := len(r.entries) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
		entry := r.entries[i]
		if entry.AccountID != accountID {
			continue
		}
		if filter.PoolID != "" && entry.PoolID != filter.PoolID {
			continue
		}
		if filter.BeforeSeq > 0 && entry.Seq >= filter.BeforeSeq {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *ledgerRepository) InsertDebt(_ context.Context, debt domain.Debt) error {
	if err := r.writable(); err != nil {
		return err
	}
	for _, existing := range r.debts {
		if existing.DebtID == debt.DebtID {
			return fmt.Errorf("%w: debt %s", apperrors.ErrDuplicate, debt.DebtID)
		}
	}
	r.debts = append(r.debts, debt)
	return nil
}

func (r *ledgerRepository) FindDebtByEntryID(_ context.Context, entryID string) (*domain.Debt, error) {
	for _, debt := range r.debts {
		if debt.EntryID == entryID {
			return &debt, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *ledgerRepository) ListOutstandingDebts(_ context.Context, accountID string) ([]domain.Debt, error) {
	debts := []domain.Debt{}
	for _, debt := range r.debts {
		if debt.AccountID == accountID && debt.ResolvedAt == nil {
			debts = append(debts, debt)
		}
	}
	return debts, nil
}

// LockAccountPool is a no-op: the store mutex already serializes writers.
func (r *ledgerRepository) LockAccountPool(_ context.Context, _, _ string) error {
	return nil
}

func (r *ledgerRepository) PoolBalance(_ context.Context, accountID, poolID string) (domain.PoolBalance, error) {
	var available, debt int64
	for _, lot := range r.lots {
		if lot.AccountID == accountID && lot.PoolID == poolID {
			available += lot.AvailableMicro
		}
	}
	for _, d := range r.debts {
		if d.AccountID == accountID && d.PoolID == poolID && d.ResolvedAt == nil {
			debt += d.DebtMicro
		}
	}
	return domain.NewPoolBalance(poolID, available, debt), nil
}

func (r *ledgerRepository) Balances(ctx context.Context, accountID string) ([]domain.PoolBalance, error) {
	pools := map[string]struct{}{}
	for _, lot := range r.lots {
		if lot.AccountID == accountID {
			pools[lot.PoolID] = struct{}{}
		}
	}
	for _, d := range r.debts {
		if d.AccountID == accountID && d.ResolvedAt == nil {
			pools[d.PoolID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(pools))
	for id := range pools {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	balances := make([]domain.PoolBalance, 0, len(ids))
	for _, id := range ids {
		b, err := r.PoolBalance(ctx, accountID, id)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}
