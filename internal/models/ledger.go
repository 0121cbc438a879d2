package models

import (
	"database/sql"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

type Lot struct {
	LotID          string    `db:"lot_id"`
	Seq            int64     `db:"seq"`
	AccountID      string    `db:"account_id"`
	PoolID         string    `db:"pool_id"`
	OriginalMicro  int64     `db:"original_micro"`
	AvailableMicro int64     `db:"available_micro"`
	EntryType      string    `db:"entry_type"`
	SourceID       string    `db:"source_id"`
	IdempotencyKey string    `db:"idempotency_key"`
	Description    string    `db:"description"`
	CreatedAt      time.Time `db:"created_at"`
}

// Reservation allocations live in a JSONB column that pgx encodes and decodes.
type Reservation struct {
	ReservationID string              `db:"reservation_id"`
	AccountID     string              `db:"account_id"`
	PoolID        string              `db:"pool_id"`
	AmountMicro   int64               `db:"amount_micro"`
	ActualMicro   sql.NullInt64       `db:"actual_micro"`
	Status        string              `db:"status"`
	Allocations   []domain.Allocation `db:"allocations"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

// LedgerEntry references are NULL when the entry has no lot, reservation or key.
type LedgerEntry struct {
	EntryID          string         `db:"entry_id"`
	Seq              int64          `db:"seq"`
	AccountID        string         `db:"account_id"`
	PoolID           string         `db:"pool_id"`
	EntryType        string         `db:"entry_type"`
	AmountMicro      int64          `db:"amount_micro"`
	PreBalanceMicro  int64          `db:"pre_balance_micro"`
	PostBalanceMicro int64          `db:"post_balance_micro"`
	LotID            sql.NullString `db:"lot_id"`
	ReservationID    sql.NullString `db:"reservation_id"`
	IdempotencyKey   sql.NullString `db:"idempotency_key"`
	Description      string         `db:"description"`
	CreatedAt        time.Time      `db:"created_at"`
}

type Debt struct {
	DebtID          string       `db:"debt_id"`
	AccountID       string       `db:"account_id"`
	PoolID          string       `db:"pool_id"`
	LotID           string       `db:"lot_id"`
	EntryID         string       `db:"entry_id"`
	DebtMicro       int64        `db:"debt_micro"`
	SourcePaymentID string       `db:"source_payment_id"`
	CreatedAt       time.Time    `db:"created_at"`
	ResolvedAt      sql.NullTime `db:"resolved_at"`
}

// PoolTotal is one pool's aggregate from a balance query.
type PoolTotal struct {
	PoolID     string `db:"pool_id"`
	TotalMicro int64  `db:"total_micro"`
}
