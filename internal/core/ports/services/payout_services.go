package services

import (
	"context"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// PayoutSvcFacade gates and tracks withdrawals of settled earnings.
type PayoutSvcFacade interface {
	RequestPayout(ctx context.Context, in domain.PayoutInput) (*domain.PayoutRequest, error)
	CompletePayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error)
	FailPayout(ctx context.Context, payoutID, reason string) (*domain.PayoutRequest, error)
	GetPayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error)

	GetKYCStatus(ctx context.Context, accountID string) (*domain.KYCStatus, error)

	// UpdateKYCLevel records the tier reported by the external KYC pipeline.
	UpdateKYCLevel(ctx context.Context, accountID string, level domain.KYCLevel) (*domain.Account, error)
}
