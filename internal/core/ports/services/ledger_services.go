package services

import (
	"context"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// AccountSvc manages billing accounts.
type AccountSvc interface {
	// EnsureAccount returns the account of an entity, creating it on first use.
	EnsureAccount(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error)

	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// LedgerWriterSvc defines the money-moving ledger primitives.
type LedgerWriterSvc interface {
	// MintLot credits an account. A repeated idempotency key returns the
	// original lot and writes nothing.
	MintLot(ctx context.Context, accountID string, amountMicro int64, entryType domain.EntryType, in domain.MintLotInput) (*domain.Lot, error)

	// Reserve places a hold on the oldest lots of a pool.
	Reserve(ctx context.Context, accountID, poolID string, amountMicro int64) (*domain.Reservation, error)

	// Finalize consumes actualMicro of a pending hold and releases the rest.
	Finalize(ctx context.Context, reservationID string, actualMicro int64) (*domain.Reservation, error)

	// Release returns a pending hold to its lots.
	Release(ctx context.Context, reservationID string) (*domain.Reservation, error)

	// Refund takes up to amountMicro back from a lot, recording any shortfall as debt.
	Refund(ctx context.Context, lotID string, amountMicro int64, in domain.RefundInput) (*domain.RefundResult, error)
}

// LedgerReaderSvc defines read operations on the ledger.
type LedgerReaderSvc interface {
	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)
	GetHistory(ctx context.Context, accountID string, query domain.HistoryQuery) (*domain.HistoryPage, error)
	ListDebts(ctx context.Context, accountID string) ([]domain.Debt, error)
	GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	AccountSvc
	LedgerWriterSvc
	LedgerReaderSvc
}
