package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/platform/metrics"
	"github.com/SscSPs/community_billing/internal/utils/pagination"
	"github.com/google/uuid"
)

// ledgerService implements the LedgerSvcFacade interface
type ledgerService struct {
	BaseService
}

// NewLedgerService creates the ledger core service.
func NewLedgerService(txm portsrepo.TransactionManager, options ...ServiceOption) portssvc.LedgerSvcFacade {
	return &ledgerService{BaseService: newBaseService(txm, options...)}
}

func (s *ledgerService) EnsureAccount(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error) {
	if !entityType.Valid() {
		return nil, apperrors.NewValidationError("entityType must be person or community")
	}
	if err := requireNonEmpty("entityID", entityID); err != nil {
		return nil, err
	}

	now := s.clock()
	var account *domain.Account
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		account, err = repos.AccountRepo.CreateAccountIfAbsent(ctx, domain.Account{
			AccountID:   uuid.NewString(),
			EntityType:  entityType,
			EntityID:    entityID,
			KYCLevel:    domain.KYCNone,
			AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to ensure account", slog.String("entity_type", string(entityType)), slog.String("entity_id", entityID))
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var account *domain.Account
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		account, err = repos.AccountRepo.FindAccountByID(ctx, accountID)
		return notFound(err, "account", accountID)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *ledgerService) MintLot(ctx context.Context, accountID string, amountMicro int64, entryType domain.EntryType, in domain.MintLotInput) (*domain.Lot, error) {
	if amountMicro <= 0 {
		metrics.LedgerOperations.WithLabelValues("mint", metrics.OutcomeRejected).Inc()
		return nil, apperrors.ErrInvalidAmount
	}
	if !entryType.Mintable() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("entryType %q cannot mint a lot", entryType))
	}
	if err := requireNonEmpty("idempotencyKey", in.IdempotencyKey); err != nil {
		return nil, err
	}
	poolID := domain.PoolOrDefault(in.PoolID)
	logger := s.GetLogger(ctx).With(slog.String("account_id", accountID), slog.String("pool_id", poolID))

	now := s.clock()
	var (
		lot      *domain.Lot
		replayed bool
	)
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}

		existing, err := findMintReplay(ctx, repos, accountID, in.IdempotencyKey)
		if err != nil || existing != nil {
			lot, replayed = existing, existing != nil
			return err
		}

		if err := repos.LedgerRepo.LockAccountPool(ctx, accountID, poolID); err != nil {
			return err
		}
		before, err := repos.LedgerRepo.PoolBalance(ctx, accountID, poolID)
		if err != nil {
			return err
		}

		newLot := domain.Lot{
			LotID:          uuid.NewString(),
			AccountID:      accountID,
			PoolID:         poolID,
			OriginalMicro:  amountMicro,
			AvailableMicro: amountMicro,
			EntryType:      entryType,
			SourceID:       in.SourceID,
			IdempotencyKey: in.IdempotencyKey,
			Description:    in.Description,
			CreatedAt:      now,
		}
		inserted, err := repos.LedgerRepo.InsertLot(ctx, &newLot)
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent mint with the same key committed first.
			existing, err := findMintReplay(ctx, repos, accountID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("lot for idempotency key %s not visible after conflict", in.IdempotencyKey)
			}
			lot, replayed = existing, true
			return nil
		}

		entry := domain.LedgerEntry{
			AccountID:        accountID,
			PoolID:           poolID,
			EntryType:        entryType,
			AmountMicro:      amountMicro,
			PreBalanceMicro:  before.BalanceMicro,
			PostBalanceMicro: before.BalanceMicro + amountMicro,
			LotID:            newLot.LotID,
			IdempotencyKey:   in.IdempotencyKey,
			Description:      in.Description,
		}
		if err := s.appendEntry(ctx, repos, &entry, now); err != nil {
			return err
		}
		lot = &newLot
		return nil
	})
	if err != nil {
		s.recordOutcome("mint", err)
		s.logUnexpected(ctx, err, "Failed to mint lot", slog.String("account_id", accountID))
		return nil, err
	}

	if replayed {
		metrics.LedgerOperations.WithLabelValues("mint", metrics.OutcomeReplayed).Inc()
		logger.Info("Mint replayed for existing idempotency key", slog.String("lot_id", lot.LotID))
		return lot, nil
	}
	metrics.LedgerOperations.WithLabelValues("mint", metrics.OutcomeOK).Inc()
	metrics.LedgerMovedMicro.WithLabelValues("mint").Add(float64(amountMicro))
	logger.Info("Lot minted", slog.String("lot_id", lot.LotID), slog.Int64("amount_micro", amountMicro), slog.String("entry_type", string(entryType)))
	return lot, nil
}

// findMintReplay returns the lot already minted under key, or nil when there is none.
func findMintReplay(ctx context.Context, repos portsrepo.RepositoryProvider, accountID, key string) (*domain.Lot, error) {
	existing, err := repos.LedgerRepo.FindLotByIdempotencyKey(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if existing.AccountID != accountID {
		return nil, apperrors.NewAppError(http.StatusConflict, "idempotency key already used for another account", apperrors.ErrDuplicate)
	}
	return existing, nil
}

func (s *ledgerService) Reserve(ctx context.Context, accountID, poolID string, amountMicro int64) (*domain.Reservation, error) {
	if amountMicro <= 0 {
		metrics.LedgerOperations.WithLabelValues("reserve", metrics.OutcomeRejected).Inc()
		return nil, apperrors.ErrInvalidAmount
	}
	poolID = domain.PoolOrDefault(poolID)

	now := s.clock()
	var reservation domain.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		if err := repos.LedgerRepo.LockAccountPool(ctx, accountID, poolID); err != nil {
			return err
		}

		lots, err := repos.LedgerRepo.ListSpendableLotsForUpdate(ctx, accountID, poolID)
		if err != nil {
			return err
		}
		var totalAvailable int64
		for _, lot := range lots {
			totalAvailable += lot.AvailableMicro
		}
		if totalAvailable < amountMicro {
			return apperrors.ErrInsufficientFunds.WithMessage("insufficient funds: %d micro available, %d requested", totalAvailable, amountMicro)
		}

		before, err := repos.LedgerRepo.PoolBalance(ctx, accountID, poolID)
		if err != nil {
			return err
		}

		remaining := amountMicro
		allocations := make([]domain.Allocation, 0, len(lots))
		for _, lot := range lots {
			if remaining == 0 {
				break
			}
			take := min(lot.AvailableMicro, remaining)
			if err := repos.LedgerRepo.UpdateLotAvailable(ctx, lot.LotID, lot.AvailableMicro-take); err != nil {
				return err
			}
			allocations = append(allocations, domain.Allocation{LotID: lot.LotID, AmountMicro: take})
			remaining -= take
		}

		reservation = domain.Reservation{
			ReservationID: uuid.NewString(),
			AccountID:     accountID,
			PoolID:        poolID,
			AmountMicro:   amountMicro,
			Status:        domain.ReservationPending,
			Allocations:   allocations,
			AuditFields:   domain.AuditFields{CreatedAt: now, UpdatedAt: now},
		}
		if err := repos.LedgerRepo.InsertReservation(ctx, reservation); err != nil {
			return err
		}

		return s.appendEntry(ctx, repos, &domain.LedgerEntry{
			AccountID:        accountID,
			PoolID:           poolID,
			EntryType:        domain.EntryReserve,
			AmountMicro:      -amountMicro,
			PreBalanceMicro:  before.BalanceMicro,
			PostBalanceMicro: before.BalanceMicro - amountMicro,
			ReservationID:    reservation.ReservationID,
		}, now)
	})
	if err != nil {
		s.recordOutcome("reserve", err)
		s.logUnexpected(ctx, err, "Failed to reserve funds", slog.String("account_id", accountID), slog.String("pool_id", poolID))
		return nil, err
	}

	metrics.LedgerOperations.WithLabelValues("reserve", metrics.OutcomeOK).Inc()
	metrics.LedgerMovedMicro.WithLabelValues("reserve").Add(float64(amountMicro))
	s.LogDebug(ctx, "Funds reserved", slog.String("reservation_id", reservation.ReservationID), slog.Int("lots", len(reservation.Allocations)))
	return &reservation, nil
}

func (s *ledgerService) Finalize(ctx context.Context, reservationID string, actualMicro int64) (*domain.Reservation, error) {
	if actualMicro < 0 {
		return nil, apperrors.ErrInvalidFinalizeAmount.WithMessage("finalize amount must not be negative")
	}
	now := s.clock()
	var reservation *domain.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		r, err := lockPendingReservation(ctx, repos, reservationID)
		if err != nil {
			return err
		}
		if actualMicro > r.AmountMicro {
			return apperrors.ErrInvalidFinalizeAmount.WithMessage("finalize amount %d exceeds reserved %d", actualMicro, r.AmountMicro)
		}

		before, err := repos.LedgerRepo.PoolBalance(ctx, r.AccountID, r.PoolID)
		if err != nil {
			return err
		}
		// The reserve entry already took the hold out of the balance.
		if err := s.appendEntry(ctx, repos, &domain.LedgerEntry{
			AccountID:        r.AccountID,
			PoolID:           r.PoolID,
			EntryType:        domain.EntryFinalize,
			AmountMicro:      -actualMicro,
			PreBalanceMicro:  before.BalanceMicro,
			PostBalanceMicro: before.BalanceMicro,
			ReservationID:    r.ReservationID,
		}, now); err != nil {
			return err
		}

		if unused := r.AmountMicro - actualMicro; unused > 0 {
			if err := returnToLots(ctx, repos, r.Allocations, unused); err != nil {
				return err
			}
			if err := s.appendEntry(ctx, repos, &domain.LedgerEntry{
				AccountID:        r.AccountID,
				PoolID:           r.PoolID,
				EntryType:        domain.EntryRelease,
				AmountMicro:      unused,
				PreBalanceMicro:  before.BalanceMicro,
				PostBalanceMicro: before.BalanceMicro + unused,
				ReservationID:    r.ReservationID,
			}, now); err != nil {
				return err
			}
		}

		r.Status = domain.ReservationFinalized
		r.ActualMicro = &actualMicro
		r.UpdatedAt = now
		if err := repos.LedgerRepo.UpdateReservation(ctx, *r); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		s.recordOutcome("finalize", err)
		s.logUnexpected(ctx, err, "Failed to finalize reservation", slog.String("reservation_id", reservationID))
		return nil, err
	}

	metrics.LedgerOperations.WithLabelValues("finalize", metrics.OutcomeOK).Inc()
	metrics.LedgerMovedMicro.WithLabelValues("finalize").Add(float64(actualMicro))
	return reservation, nil
}

func (s *ledgerService) Release(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	now := s.clock()
	var reservation *domain.Reservation
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		r, err := lockPendingReservation(ctx, repos, reservationID)
		if err != nil {
			return err
		}
		before, err := repos.LedgerRepo.PoolBalance(ctx, r.AccountID, r.PoolID)
		if err != nil {
			return err
		}
		if err := returnToLots(ctx, repos, r.Allocations, r.AmountMicro); err != nil {
			return err
		}
		if err := s.appendEntry(ctx, repos, &domain.LedgerEntry{
			AccountID:        r.AccountID,
			PoolID:           r.PoolID,
			EntryType:        domain.EntryRelease,
			AmountMicro:      r.AmountMicro,
			PreBalanceMicro:  before.BalanceMicro,
			PostBalanceMicro: before.BalanceMicro + r.AmountMicro,
			ReservationID:    r.ReservationID,
		}, now); err != nil {
			return err
		}

		r.Status = domain.ReservationReleased
		r.UpdatedAt = now
		if err := repos.LedgerRepo.UpdateReservation(ctx, *r); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		s.recordOutcome("release", err)
		s.logUnexpected(ctx, err, "Failed to release reservation", slog.String("reservation_id", reservationID))
		return nil, err
	}

	metrics.LedgerOperations.WithLabelValues("release", metrics.OutcomeOK).Inc()
	metrics.LedgerMovedMicro.WithLabelValues("release").Add(float64(reservation.AmountMicro))
	return reservation, nil
}

// lockPendingReservation takes the pool lock of a reservation and returns it
// locked, failing unless it is still pending.
func lockPendingReservation(ctx context.Context, repos portsrepo.RepositoryProvider, reservationID string) (*domain.Reservation, error) {
	r, err := repos.LedgerRepo.FindReservationByID(ctx, reservationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrReservationNotFound.WithMessage("reservation %s not found", reservationID)
	}
	if err != nil {
		return nil, err
	}
	// The pool lock is always taken before row locks.
	if err := repos.LedgerRepo.LockAccountPool(ctx, r.AccountID, r.PoolID); err != nil {
		return nil, err
	}
	r, err = repos.LedgerRepo.FindReservationForUpdate(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationPending {
		return nil, apperrors.ErrReservationNotFound.WithMessage("reservation %s is already %s", reservationID, r.Status)
	}
	return r, nil
}

// returnToLots hands amountMicro back to the lots of a hold, newest allocation first.
func returnToLots(ctx context.Context, repos portsrepo.RepositoryProvider, allocations []domain.Allocation, amountMicro int64) error {
	lotIDs := make([]string, 0, len(allocations))
	for _, a := range allocations {
		lotIDs = append(lotIDs, a.LotID)
	}
	lots, err := repos.LedgerRepo.FindLotsForUpdate(ctx, lotIDs)
	if err != nil {
		return err
	}

	remaining := amountMicro
	for i := len(allocations) - 1; i >= 0 && remaining > 0; i-- {
		a := allocations[i]
		lot, ok := lots[a.LotID]
		if !ok {
			return fmt.Errorf("lot %s of allocation missing", a.LotID)
		}
		give := min(a.AmountMicro, remaining)
		if err := repos.LedgerRepo.UpdateLotAvailable(ctx, lot.LotID, lot.AvailableMicro+give); err != nil {
			return err
		}
		remaining -= give
	}
	if remaining != 0 {
		return fmt.Errorf("allocations cover %d micro less than the amount to return", remaining)
	}
	return nil
}

func (s *ledgerService) Refund(ctx context.Context, lotID string, amountMicro int64, in domain.RefundInput) (*domain.RefundResult, error) {
	if amountMicro <= 0 {
		metrics.LedgerOperations.WithLabelValues("refund", metrics.OutcomeRejected).Inc()
		return nil, apperrors.ErrInvalidAmount
	}

	now := s.clock()
	var result *domain.RefundResult
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if in.IdempotencyKey != "" {
			replay, err := findRefundReplay(ctx, repos, lotID, in.IdempotencyKey)
			if err != nil || replay != nil {
				result = replay
				return err
			}
		}

		lot, err := repos.LedgerRepo.FindLotByID(ctx, lotID)
		if err != nil {
			return notFound(err, "lot", lotID)
		}
		if err := repos.LedgerRepo.LockAccountPool(ctx, lot.AccountID, lot.PoolID); err != nil {
			return err
		}
		if lot, err = repos.LedgerRepo.FindLotForUpdate(ctx, lotID); err != nil {
			return err
		}
		before, err := repos.LedgerRepo.PoolBalance(ctx, lot.AccountID, lot.PoolID)
		if err != nil {
			return err
		}

		clawed := min(amountMicro, lot.AvailableMicro)
		if clawed > 0 {
			if err := repos.LedgerRepo.UpdateLotAvailable(ctx, lot.LotID, lot.AvailableMicro-clawed); err != nil {
				return err
			}
		}

		entry := domain.LedgerEntry{
			AccountID:        lot.AccountID,
			PoolID:           lot.PoolID,
			EntryType:        domain.EntryRefund,
			AmountMicro:      -amountMicro,
			PreBalanceMicro:  before.BalanceMicro,
			PostBalanceMicro: before.BalanceMicro - amountMicro,
			LotID:            lot.LotID,
			IdempotencyKey:   in.IdempotencyKey,
			Description:      refundDescription(in.SourcePaymentID),
		}
		if err := s.appendEntry(ctx, repos, &entry, now); err != nil {
			return err
		}

		result = &domain.RefundResult{Entry: entry, RefundedMicro: amountMicro, ClawedMicro: clawed}
		if shortfall := amountMicro - clawed; shortfall > 0 {
			debt := domain.Debt{
				DebtID:          uuid.NewString(),
				AccountID:       lot.AccountID,
				PoolID:          lot.PoolID,
				LotID:           lot.LotID,
				EntryID:         entry.EntryID,
				DebtMicro:       shortfall,
				SourcePaymentID: in.SourcePaymentID,
				CreatedAt:       now,
			}
			if err := repos.LedgerRepo.InsertDebt(ctx, debt); err != nil {
				return err
			}
			result.Debt = &debt
		}
		return nil
	})
	if err != nil {
		s.recordOutcome("refund", err)
		s.logUnexpected(ctx, err, "Failed to refund lot", slog.String("lot_id", lotID))
		return nil, err
	}

	if result.Replayed {
		metrics.LedgerOperations.WithLabelValues("refund", metrics.OutcomeReplayed).Inc()
		return result, nil
	}
	metrics.LedgerOperations.WithLabelValues("refund", metrics.OutcomeOK).Inc()
	metrics.LedgerMovedMicro.WithLabelValues("refund").Add(float64(amountMicro))
	if result.Debt != nil {
		metrics.DebtsCreated.Inc()
		s.GetLogger(ctx).Warn("Refund exceeded available funds, debt recorded",
			slog.String("lot_id", lotID),
			slog.String("debt_id", result.Debt.DebtID),
			slog.Int64("debt_micro", result.Debt.DebtMicro))
	}
	return result, nil
}

func findRefundReplay(ctx context.Context, repos portsrepo.RepositoryProvider, lotID, key string) (*domain.RefundResult, error) {
	entry, err := repos.LedgerRepo.FindEntryByIdempotencyKey(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.EntryType != domain.EntryRefund || entry.LotID != lotID {
		return nil, apperrors.NewAppError(http.StatusConflict, "idempotency key already used by another operation", apperrors.ErrDuplicate)
	}

	result := &domain.RefundResult{Entry: *entry, RefundedMicro: -entry.AmountMicro, Replayed: true}
	debt, err := repos.LedgerRepo.FindDebtByEntryID(ctx, entry.EntryID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		result.Debt = debt
	}
	result.ClawedMicro = result.RefundedMicro
	if result.Debt != nil {
		result.ClawedMicro -= result.Debt.DebtMicro
	}
	return result, nil
}

func refundDescription(sourcePaymentID string) string {
	if sourcePaymentID == "" {
		return "refund"
	}
	return "refund of payment " + sourcePaymentID
}

func (s *ledgerService) appendEntry(ctx context.Context, repos portsrepo.RepositoryProvider, entry *domain.LedgerEntry, now time.Time) error {
	entry.EntryID = uuid.NewString()
	entry.CreatedAt = now
	if err := repos.LedgerRepo.AppendEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to append %s entry: %w", entry.EntryType, err)
	}
	return nil
}

func (s *ledgerService) recordOutcome(operation string, err error) {
	outcome := metrics.OutcomeError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
		outcome = metrics.OutcomeRejected
	}
	metrics.LedgerOperations.WithLabelValues(operation, outcome).Inc()
}

func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	balance := &domain.Balance{AccountID: accountID, Pools: []domain.PoolBalance{}}
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		pools, err := repos.LedgerRepo.Balances(ctx, accountID)
		if err != nil {
			return err
		}
		for _, p := range pools {
			latest, err := repos.LedgerRepo.LatestEntry(ctx, accountID, p.PoolID)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
			case err != nil:
				return err
			case latest.PostBalanceMicro != p.BalanceMicro:
				metrics.LedgerDrift.Inc()
				s.GetLogger(ctx).Error("Pool balance does not match its latest ledger entry",
					slog.String("account_id", accountID),
					slog.String("pool_id", p.PoolID),
					slog.Int64("balance_micro", p.BalanceMicro),
					slog.Int64("entry_post_balance_micro", latest.PostBalanceMicro),
					slog.String("entry_id", latest.EntryID),
				)
			}
			balance.Pools = append(balance.Pools, p)
			balance.AvailableMicro += p.AvailableMicro
			balance.DebtMicro += p.DebtMicro
			balance.BalanceMicro += p.BalanceMicro
		}
		return nil
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to read balance", slog.String("account_id", accountID))
		return nil, err
	}
	return balance, nil
}

func (s *ledgerService) GetHistory(ctx context.Context, accountID string, query domain.HistoryQuery) (*domain.HistoryPage, error) {
	filter := domain.HistoryFilter{
		PoolID: strings.TrimSpace(query.PoolID),
		Limit:  s.policy.historyLimit(query.Limit),
	}
	if query.NextToken != nil && *query.NextToken != "" {
		seq, err := pagination.DecodeSeqToken(*query.NextToken)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		filter.BeforeSeq = seq
	}

	page := &domain.HistoryPage{Entries: []domain.LedgerEntry{}}
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		// One extra row tells us whether another page exists.
		probe := filter
		probe.Limit = filter.Limit + 1
		entries, err := repos.LedgerRepo.ListEntries(ctx, accountID, probe)
		if err != nil {
			return err
		}
		if len(entries) > filter.Limit {
			entries = entries[:filter.Limit]
			token := pagination.EncodeSeqToken(entries[len(entries)-1].Seq)
			page.NextToken = &token
		}
		page.Entries = append(page.Entries, entries...)
		return nil
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to read history", slog.String("account_id", accountID))
		return nil, err
	}
	return page, nil
}

func (s *ledgerService) ListDebts(ctx context.Context, accountID string) ([]domain.Debt, error) {
	debts := []domain.Debt{}
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		found, err := repos.LedgerRepo.ListOutstandingDebts(ctx, accountID)
		debts = append(debts, found...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *ledgerService) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	var reservation *domain.Reservation
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		reservation, err = repos.LedgerRepo.FindReservationByID(ctx, reservationID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrReservationNotFound.WithMessage("reservation %s not found", reservationID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}
