package dto

import (
	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/utils"
)

// Amounts are validated by the ledger so that callers get INVALID_AMOUNT
// rather than a generic binding failure.

// MintLotRequest defines the data needed to credit an account.
type MintLotRequest struct {
	AmountMicro    int64            `json:"amountMicro"`
	EntryType      domain.EntryType `json:"entryType" binding:"required"`
	PoolID         string           `json:"poolID" binding:"max=64"`
	SourceID       string           `json:"sourceID" binding:"max=200"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"required,max=200"`
	Description    string           `json:"description" binding:"max=500"`
}

func (r MintLotRequest) ToInput() domain.MintLotInput {
	return domain.MintLotInput{
		PoolID:         r.PoolID,
		SourceID:       r.SourceID,
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
	}
}

// LotResponse is a lot with display amounts.
type LotResponse struct {
	domain.Lot
	Original  string `json:"original"`
	Available string `json:"available"`
}

func ToLotResponse(lot *domain.Lot) LotResponse {
	return LotResponse{
		Lot:       *lot,
		Original:  utils.FormatMicroUSD(lot.OriginalMicro),
		Available: utils.FormatMicroUSD(lot.AvailableMicro),
	}
}

// ReserveRequest places a hold on a pool.
type ReserveRequest struct {
	PoolID      string `json:"poolID" binding:"max=64"`
	AmountMicro int64  `json:"amountMicro"`
}

// FinalizeRequest consumes part or all of a hold.
type FinalizeRequest struct {
	ActualMicro *int64 `json:"actualMicro" binding:"required"`
}

// RefundRequest takes funds back from a lot.
type RefundRequest struct {
	AmountMicro     int64  `json:"amountMicro"`
	SourcePaymentID string `json:"sourcePaymentID" binding:"max=200"`
	IdempotencyKey  string `json:"idempotencyKey" binding:"max=200"`
}

func (r RefundRequest) ToInput() domain.RefundInput {
	return domain.RefundInput{SourcePaymentID: r.SourcePaymentID, IdempotencyKey: r.IdempotencyKey}
}

// PoolBalanceResponse is one pool's balance with a display amount.
type PoolBalanceResponse struct {
	domain.PoolBalance
	Balance string `json:"balance"`
}

// BalanceResponse defines the data returned for a balance query.
type BalanceResponse struct {
	AccountID      string                `json:"accountID"`
	Pools          []PoolBalanceResponse `json:"pools"`
	AvailableMicro int64                 `json:"availableMicro"`
	DebtMicro      int64                 `json:"debtMicro"`
	BalanceMicro   int64                 `json:"balanceMicro"`
	Balance        string                `json:"balance"`
}

func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	pools := make([]PoolBalanceResponse, len(b.Pools))
	for i, p := range b.Pools {
		pools[i] = PoolBalanceResponse{PoolBalance: p, Balance: utils.FormatMicroUSD(p.BalanceMicro)}
	}
	return BalanceResponse{
		AccountID:      b.AccountID,
		Pools:          pools,
		AvailableMicro: b.AvailableMicro,
		DebtMicro:      b.DebtMicro,
		BalanceMicro:   b.BalanceMicro,
		Balance:        utils.FormatMicroUSD(b.BalanceMicro),
	}
}

// ListHistoryParams defines query parameters for listing ledger entries.
type ListHistoryParams struct {
	PoolID    string  `form:"poolID" binding:"max=64"`
	Limit     int     `form:"limit" binding:"gte=0,lte=500"`
	NextToken *string `form:"nextToken"`
}

func (p ListHistoryParams) ToQuery() domain.HistoryQuery {
	return domain.HistoryQuery{PoolID: p.PoolID, Limit: p.Limit, NextToken: p.NextToken}
}

// LedgerEntryResponse is an entry with a display amount.
type LedgerEntryResponse struct {
	domain.LedgerEntry
	Amount string `json:"amount"`
}

// ListHistoryResponse wraps one page of history.
type ListHistoryResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

func ToListHistoryResponse(page *domain.HistoryPage) ListHistoryResponse {
	entries := make([]LedgerEntryResponse, len(page.Entries))
	for i, e := range page.Entries {
		entries[i] = LedgerEntryResponse{LedgerEntry: e, Amount: utils.FormatMicroUSD(e.AmountMicro)}
	}
	return ListHistoryResponse{Entries: entries, NextToken: page.NextToken}
}
