package services

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// ReferralSvcFacade manages referral codes and referee bindings.
type ReferralSvcFacade interface {
	// CreateCode returns the account's active code, creating one if needed.
	CreateCode(ctx context.Context, accountID string, in domain.CreateCodeInput) (*domain.ReferralCode, error)

	RevokeCode(ctx context.Context, codeID, revokedBy string) (*domain.ReferralCode, error)

	// Register binds a referee to the owner of code.
	Register(ctx context.Context, refereeAccountID, code string) (*domain.ReferralRegistration, error)

	GetRegistration(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error)
	ListAttributionEvents(ctx context.Context, refereeAccountID string) ([]domain.AttributionEvent, error)

	IsAttributionActive(registration domain.ReferralRegistration, asOf time.Time) bool
}
