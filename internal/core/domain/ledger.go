package domain

import "time"

// EntryType classifies a ledger entry and, for lots, the operation that minted them.
type EntryType string

const (
	EntryDeposit             EntryType = "deposit"
	EntryReserve             EntryType = "reserve"
	EntryFinalize            EntryType = "finalize"
	EntryRelease             EntryType = "release"
	EntryRefund              EntryType = "refund"
	EntryGrant               EntryType = "grant"
	EntryShadowCharge        EntryType = "shadow_charge"
	EntryCommonsContribution EntryType = "commons_contribution"
	EntryEscrow              EntryType = "escrow"
)

// Mintable reports whether lots may be created with this entry type.
func (t EntryType) Mintable() bool {
	switch t {
	case EntryDeposit, EntryGrant, EntryCommonsContribution:
		return true
	}
	return false
}

// Lot is a grant of funds. OriginalMicro never changes; AvailableMicro only
// decreases, except when a reservation hands its hold back.
type Lot struct {
	LotID          string    `json:"lotID"`
	AccountID      string    `json:"accountID"`
	PoolID         string    `json:"poolID"`
	OriginalMicro  int64     `json:"originalMicro"`
	AvailableMicro int64     `json:"availableMicro"`
	EntryType      EntryType `json:"entryType"`
	SourceID       string    `json:"sourceID,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Seq            int64     `json:"seq"`
}

// MintLotInput carries the optional attributes of a mint.
type MintLotInput struct {
	PoolID         string
	SourceID       string
	IdempotencyKey string
	Description    string
}

// ReservationStatus is the lifecycle state of a hold.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationFinalized ReservationStatus = "finalized"
	ReservationReleased  ReservationStatus = "released"
)

// Allocation is the share of a reservation drawn from a single lot.
type Allocation struct {
	LotID       string `json:"lotID"`
	AmountMicro int64  `json:"amountMicro"`
}

// Reservation is an in-flight hold terminated by exactly one finalize or release.
type Reservation struct {
	ReservationID string            `json:"reservationID"`
	AccountID     string            `json:"accountID"`
	PoolID        string            `json:"poolID"`
	AmountMicro   int64             `json:"amountMicro"`
	ActualMicro   *int64            `json:"actualMicro,omitempty"`
	Status        ReservationStatus `json:"status"`
	Allocations   []Allocation      `json:"allocations"`
	AuditFields
}

// Clone returns a copy that does not share its allocation slice with r.
func (r Reservation) Clone() Reservation {
	cp := r
	cp.Allocations = append([]Allocation(nil), r.Allocations...)
	if r.ActualMicro != nil {
		v := *r.ActualMicro
		cp.ActualMicro = &v
	}
	return cp
}

// LedgerEntry is an append-only record of one balance-affecting operation.
type LedgerEntry struct {
	EntryID          string    `json:"entryID"`
	AccountID        string    `json:"accountID"`
	PoolID           string    `json:"poolID"`
	EntryType        EntryType `json:"entryType"`
	AmountMicro      int64     `json:"amountMicro"`
	PreBalanceMicro  int64     `json:"preBalanceMicro"`
	PostBalanceMicro int64     `json:"postBalanceMicro"`
	LotID            string    `json:"lotID,omitempty"`
	ReservationID    string    `json:"reservationID,omitempty"`
	IdempotencyKey   string    `json:"idempotencyKey,omitempty"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	Seq              int64     `json:"seq"`
}

// Debt records a refund that could not be covered by the lot's available funds.
type Debt struct {
	DebtID          string     `json:"debtID"`
	AccountID       string     `json:"accountID"`
	PoolID          string     `json:"poolID"`
	LotID           string     `json:"lotID"`
	EntryID         string     `json:"entryID"`
	DebtMicro       int64      `json:"debtMicro"`
	SourcePaymentID string     `json:"sourcePaymentID,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

// RefundInput carries the optional attributes of a refund.
type RefundInput struct {
	SourcePaymentID string
	IdempotencyKey  string
}

// RefundResult describes how a refund was covered.
type RefundResult struct {
	Entry         LedgerEntry `json:"entry"`
	RefundedMicro int64       `json:"refundedMicro"`
	ClawedMicro   int64       `json:"clawedMicro"`
	Debt          *Debt       `json:"debt,omitempty"`
	Replayed      bool        `json:"replayed"`
}

// PoolBalance is the balance of one sub-ledger.
type PoolBalance struct {
	PoolID         string `json:"poolID"`
	AvailableMicro int64  `json:"availableMicro"`
	DebtMicro      int64  `json:"debtMicro"`
	BalanceMicro   int64  `json:"balanceMicro"`
}

// NewPoolBalance derives the balance from its two components.
func NewPoolBalance(poolID string, available, debt int64) PoolBalance {
	return PoolBalance{PoolID: poolID, AvailableMicro: available, DebtMicro: debt, BalanceMicro: available - debt}
}

// Balance is the per-pool and total balance of an account.
type Balance struct {
	AccountID      string        `json:"accountID"`
	Pools          []PoolBalance `json:"pools"`
	AvailableMicro int64         `json:"availableMicro"`
	DebtMicro      int64         `json:"debtMicro"`
	BalanceMicro   int64         `json:"balanceMicro"`
}

// Pool returns the balance of poolID, zero when the account has never used it.
func (b Balance) Pool(poolID string) PoolBalance {
	for _, p := range b.Pools {
		if p.PoolID == poolID {
			return p
		}
	}
	return NewPoolBalance(poolID, 0, 0)
}

// HistoryFilter narrows and pages an entry listing. Entries are returned newest first.
type HistoryFilter struct {
	PoolID    string
	Limit     int
	BeforeSeq int64
}

// HistoryPage is one page of ledger entries.
type HistoryPage struct {
	Entries   []LedgerEntry `json:"entries"`
	NextToken *string       `json:"nextToken,omitempty"`
}

// HistoryQuery is a caller's request for a page of history.
type HistoryQuery struct {
	PoolID    string
	Limit     int
	NextToken *string
}
