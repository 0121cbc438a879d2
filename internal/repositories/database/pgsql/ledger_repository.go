package pgsql

import (
	"context"
	"errors"
	"slices"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	"github.com/SscSPs/community_billing/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	lotColumns         = `lot_id, seq, account_id, pool_id, original_micro, available_micro, entry_type, source_id, idempotency_key, description, created_at`
	reservationColumns = `reservation_id, account_id, pool_id, amount_micro, actual_micro, status, allocations, created_at, updated_at`
	entryColumns       = `entry_id, seq, account_id, pool_id, entry_type, amount_micro, pre_balance_micro, post_balance_micro, lot_id, reservation_id, idempotency_key, description, created_at`
	debtColumns        = `debt_id, account_id, pool_id, lot_id, entry_id, debt_micro, source_payment_id, created_at, resolved_at`
)

type PgxLedgerRepository struct {
	db querier
}

func newPgxLedgerRepository(db querier) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{db: db}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func toDomainLot(m models.Lot) domain.Lot {
	return domain.Lot{
		LotID:          m.LotID,
		AccountID:      m.AccountID,
		PoolID:         m.PoolID,
		OriginalMicro:  m.OriginalMicro,
		AvailableMicro: m.AvailableMicro,
		EntryType:      domain.EntryType(m.EntryType),
		SourceID:       m.SourceID,
		IdempotencyKey: m.IdempotencyKey,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
		Seq:            m.Seq,
	}
}

func toModelReservation(d domain.Reservation) models.Reservation {
	// A nil slice would be stored as JSON null.
	allocations := d.Allocations
	if allocations == nil {
		allocations = []domain.Allocation{}
	}
	m := models.Reservation{
		ReservationID: d.ReservationID,
		AccountID:     d.AccountID,
		PoolID:        d.PoolID,
		AmountMicro:   d.AmountMicro,
		Status:        string(d.Status),
		Allocations:   allocations,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.ActualMicro != nil {
		m.ActualMicro.Int64, m.ActualMicro.Valid = *d.ActualMicro, true
	}
	return m
}

func toDomainReservation(m models.Reservation) domain.Reservation {
	d := domain.Reservation{
		ReservationID: m.ReservationID,
		AccountID:     m.AccountID,
		PoolID:        m.PoolID,
		AmountMicro:   m.AmountMicro,
		Status:        domain.ReservationStatus(m.Status),
		Allocations:   m.Allocations,
		AuditFields: domain.AuditFields{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
	if m.ActualMicro.Valid {
		actual := m.ActualMicro.Int64
		d.ActualMicro = &actual
	}
	return d
}

func toDomainEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:          m.EntryID,
		AccountID:        m.AccountID,
		PoolID:           m.PoolID,
		EntryType:        domain.EntryType(m.EntryType),
		AmountMicro:      m.AmountMicro,
		PreBalanceMicro:  m.PreBalanceMicro,
		PostBalanceMicro: m.PostBalanceMicro,
		LotID:            m.LotID.String,
		ReservationID:    m.ReservationID.String,
		IdempotencyKey:   m.IdempotencyKey.String,
		Description:      m.Description,
		CreatedAt:        m.CreatedAt,
		Seq:              m.Seq,
	}
}

func toDomainDebt(m models.Debt) domain.Debt {
	return domain.Debt{
		DebtID:          m.DebtID,
		AccountID:       m.AccountID,
		PoolID:          m.PoolID,
		LotID:           m.LotID,
		EntryID:         m.EntryID,
		DebtMicro:       m.DebtMicro,
		SourcePaymentID: m.SourcePaymentID,
		CreatedAt:       m.CreatedAt,
		ResolvedAt:      timePtr(m.ResolvedAt),
	}
}

func (r *PgxLedgerRepository) findLot(ctx context.Context, query string, args ...any) (*domain.Lot, error) {
	m, err := collectOne[models.Lot](ctx, r.db, "find lot", query, args...)
	if err != nil {
		return nil, err
	}
	lot := toDomainLot(m)
	return &lot, nil
}

func (r *PgxLedgerRepository) listLots(ctx context.Context, query string, args ...any) ([]domain.Lot, error) {
	rows, err := collectAll[models.Lot](ctx, r.db, "list lots", query, args...)
	if err != nil {
		return nil, err
	}
	lots := make([]domain.Lot, 0, len(rows))
	for _, m := range rows {
		lots = append(lots, toDomainLot(m))
	}
	return lots, nil
}

// InsertLot reports false when another lot already holds the idempotency key.
func (r *PgxLedgerRepository) InsertLot(ctx context.Context, lot *domain.Lot) (bool, error) {
	query := `
		INSERT INTO lots (lot_id, account_id, pool_id, original_micro, available_micro, entry_type, source_id, idempotency_key, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING seq;
	`
	err := r.db.QueryRow(ctx, query,
		lot.LotID,
		lot.AccountID,
		lot.PoolID,
		lot.OriginalMicro,
		lot.AvailableMicro,
		string(lot.EntryType),
		lot.SourceID,
		lot.IdempotencyKey,
		lot.Description,
		lot.CreatedAt,
	).Scan(&lot.Seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err, "insert lot "+lot.LotID)
	}
	return true, nil
}

func (r *PgxLedgerRepository) FindLotByID(ctx context.Context, lotID string) (*domain.Lot, error) {
	return r.findLot(ctx, `SELECT `+lotColumns+` FROM lots WHERE lot_id = $1`, lotID)
}

func (r *PgxLedgerRepository) FindLotByIdempotencyKey(ctx context.Context, key string) (*domain.Lot, error) {
	return r.findLot(ctx, `SELECT `+lotColumns+` FROM lots WHERE idempotency_key = $1`, key)
}

func (r *PgxLedgerRepository) FindLotForUpdate(ctx context.Context, lotID string) (*domain.Lot, error) {
	return r.findLot(ctx, `SELECT `+lotColumns+` FROM lots WHERE lot_id = $1 FOR UPDATE`, lotID)
}

func (r *PgxLedgerRepository) ListSpendableLotsForUpdate(ctx context.Context, accountID, poolID string) ([]domain.Lot, error) {
	return r.listLots(ctx, `
		SELECT `+lotColumns+`
		FROM lots
		WHERE account_id = $1 AND pool_id = $2 AND available_micro > 0
		ORDER BY seq
		FOR UPDATE`, accountID, poolID)
}

// FindLotsForUpdate locks in lot id order so two callers never wait on each other crosswise.
func (r *PgxLedgerRepository) FindLotsForUpdate(ctx context.Context, lotIDs []string) (map[string]domain.Lot, error) {
	lots, err := r.listLots(ctx, `
		SELECT `+lotColumns+`
		FROM lots
		WHERE lot_id = ANY($1)
		ORDER BY lot_id
		FOR UPDATE`, lotIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[string]domain.Lot, len(lots))
	for _, lot := range lots {
		found[lot.LotID] = lot
	}
	return found, nil
}

func (r *PgxLedgerRepository) UpdateLotAvailable(ctx context.Context, lotID string, availableMicro int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE lots SET available_micro = $2 WHERE lot_id = $1`, lotID, availableMicro)
	if err != nil {
		return mapError(err, "update lot "+lotID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxLedgerRepository) InsertReservation(ctx context.Context, reservation domain.Reservation) error {
	m := toModelReservation(reservation)
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		m.ReservationID,
		m.AccountID,
		m.PoolID,
		m.AmountMicro,
		m.ActualMicro,
		m.Status,
		m.Allocations,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return mapError(err, "insert reservation "+m.ReservationID)
}

func (r *PgxLedgerRepository) findReservation(ctx context.Context, query string, args ...any) (*domain.Reservation, error) {
	m, err := collectOne[models.Reservation](ctx, r.db, "find reservation", query, args...)
	if err != nil {
		return nil, err
	}
	reservation := toDomainReservation(m)
	return &reservation, nil
}

func (r *PgxLedgerRepository) FindReservationByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return r.findReservation(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE reservation_id = $1`, reservationID)
}

func (r *PgxLedgerRepository) FindReservationForUpdate(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return r.findReservation(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE reservation_id = $1 FOR UPDATE`, reservationID)
}

func (r *PgxLedgerRepository) UpdateReservation(ctx context.Context, reservation domain.Reservation) error {
	m := toModelReservation(reservation)
	query := `
		UPDATE reservations
		SET actual_micro = $2, status = $3, allocations = $4, updated_at = $5
		WHERE reservation_id = $1;
	`
	tag, err := r.db.Exec(ctx, query, m.ReservationID, m.ActualMicro, m.Status, m.Allocations, m.UpdatedAt)
	if err != nil {
		return mapError(err, "update reservation "+m.ReservationID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (entry_id, account_id, pool_id, entry_type, amount_micro, pre_balance_micro, post_balance_micro, lot_id, reservation_id, idempotency_key, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq;
	`
	err := r.db.QueryRow(ctx, query,
		entry.EntryID,
		entry.AccountID,
		entry.PoolID,
		string(entry.EntryType),
		entry.AmountMicro,
		entry.PreBalanceMicro,
		entry.PostBalanceMicro,
		nullString(entry.LotID),
		nullString(entry.ReservationID),
		nullString(entry.IdempotencyKey),
		entry.Description,
		entry.CreatedAt,
	).Scan(&entry.Seq)
	return mapError(err, "append entry "+entry.EntryID)
}

func (r *PgxLedgerRepository) findEntry(ctx context.Context, query string, args ...any) (*domain.LedgerEntry, error) {
	m, err := collectOne[models.LedgerEntry](ctx, r.db, "find entry", query, args...)
	if err != nil {
		return nil, err
	}
	entry := toDomainEntry(m)
	return &entry, nil
}

func (r *PgxLedgerRepository) FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE idempotency_key = $1`, key)
}

func (r *PgxLedgerRepository) LatestEntry(ctx context.Context, accountID, poolID string) (*domain.LedgerEntry, error) {
	return r.findEntry(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1 AND pool_id = $2
		ORDER BY seq DESC
		LIMIT 1`, accountID, poolID)
}

// ListEntries pages by seq. A zero limit returns everything.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, accountID string, filter domain.HistoryFilter) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		  AND ($2::text = '' OR pool_id = $2)
		  AND ($3::bigint = 0 OR seq < $3)
		ORDER BY seq DESC
		LIMIT NULLIF($4::bigint, 0);
	`
	rows, err := collectAll[models.LedgerEntry](ctx, r.db, "list entries", query,
		accountID, filter.PoolID, filter.BeforeSeq, int64(filter.Limit))
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, toDomainEntry(m))
	}
	return entries, nil
}

func (r *PgxLedgerRepository) InsertDebt(ctx context.Context, debt domain.Debt) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		debt.DebtID,
		debt.AccountID,
		debt.PoolID,
		debt.LotID,
		debt.EntryID,
		debt.DebtMicro,
		debt.SourcePaymentID,
		debt.CreatedAt,
		nullTime(debt.ResolvedAt),
	)
	return mapError(err, "insert debt "+debt.DebtID)
}

func (r *PgxLedgerRepository) FindDebtByEntryID(ctx context.Context, entryID string) (*domain.Debt, error) {
	m, err := collectOne[models.Debt](ctx, r.db, "find debt",
		`SELECT `+debtColumns+` FROM debts WHERE entry_id = $1`, entryID)
	if err != nil {
		return nil, err
	}
	debt := toDomainDebt(m)
	return &debt, nil
}

func (r *PgxLedgerRepository) ListOutstandingDebts(ctx context.Context, accountID string) ([]domain.Debt, error) {
	rows, err := collectAll[models.Debt](ctx, r.db, "list debts", `
		SELECT `+debtColumns+`
		FROM debts
		WHERE account_id = $1 AND resolved_at IS NULL
		ORDER BY created_at, debt_id`, accountID)
	if err != nil {
		return nil, err
	}
	debts := make([]domain.Debt, 0, len(rows))
	for _, m := range rows {
		debts = append(debts, toDomainDebt(m))
	}
	return debts, nil
}

// LockAccountPool takes a transaction-scoped advisory lock. Callers take it
// before any lot row lock.
func (r *PgxLedgerRepository) LockAccountPool(ctx context.Context, accountID, poolID string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`, accountID, poolID)
	return mapError(err, "lock pool "+poolID+" of "+accountID)
}

func (r *PgxLedgerRepository) PoolBalance(ctx context.Context, accountID, poolID string) (domain.PoolBalance, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(available_micro), 0)::bigint FROM lots WHERE account_id = $1 AND pool_id = $2),
			(SELECT COALESCE(SUM(debt_micro), 0)::bigint FROM debts WHERE account_id = $1 AND pool_id = $2 AND resolved_at IS NULL);
	`
	var available, debt int64
	if err := r.db.QueryRow(ctx, query, accountID, poolID).Scan(&available, &debt); err != nil {
		return domain.PoolBalance{}, mapError(err, "read balance of "+accountID)
	}
	return domain.NewPoolBalance(poolID, available, debt), nil
}

// Balances reads lot and debt totals in one round trip.
func (r *PgxLedgerRepository) Balances(ctx context.Context, accountID string) ([]domain.PoolBalance, error) {
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT pool_id, COALESCE(SUM(available_micro), 0)::bigint AS total_micro
		FROM lots WHERE account_id = $1 GROUP BY pool_id`, accountID)
	batch.Queue(`
		SELECT pool_id, COALESCE(SUM(debt_micro), 0)::bigint AS total_micro
		FROM debts WHERE account_id = $1 AND resolved_at IS NULL GROUP BY pool_id`, accountID)

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	available, err := collectPoolTotals(results)
	if err != nil {
		return nil, err
	}
	debts, err := collectPoolTotals(results)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(available)+len(debts))
	for id := range available {
		ids = append(ids, id)
	}
	for id := range debts {
		if _, seen := available[id]; !seen {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	balances := make([]domain.PoolBalance, 0, len(ids))
	for _, id := range ids {
		balances = append(balances, domain.NewPoolBalance(id, available[id], debts[id]))
	}
	return balances, nil
}

func collectPoolTotals(results pgx.BatchResults) (map[string]int64, error) {
	rows, err := results.Query()
	if err != nil {
		return nil, mapError(err, "read pool totals")
	}
	totals, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PoolTotal])
	if err != nil {
		return nil, mapError(err, "read pool totals")
	}
	byPool := make(map[string]int64, len(totals))
	for _, t := range totals {
		byPool[t.PoolID] = t.TotalMicro
	}
	return byPool, nil
}
