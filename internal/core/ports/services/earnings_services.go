package services

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// EarningsSvcFacade issues, matures and claws back referral bonuses.
type EarningsSvcFacade interface {
	// OnQualifyingAction issues a bonus for a referee event. A nil bonus with a
	// nil error means the action did not qualify.
	OnQualifyingAction(ctx context.Context, refereeAccountID string, action domain.QualifyingAction) (*domain.ReferralBonus, error)

	// SettleEarnings settles due bonuses as of asOf, or now when asOf is nil.
	SettleEarnings(ctx context.Context, asOf *time.Time) ([]domain.ReferralBonus, error)

	ClawbackEarning(ctx context.Context, bonusID, reason string) (*domain.ReferralBonus, error)
	ReviewEarning(ctx context.Context, bonusID, reviewedBy string) (*domain.ReferralBonus, error)

	GetBonus(ctx context.Context, bonusID string) (*domain.ReferralBonus, error)
	GetWithdrawableBalance(ctx context.Context, accountID string) (int64, error)
	GetEarningsSummary(ctx context.Context, accountID string) (*domain.EarningsSummary, error)
}
