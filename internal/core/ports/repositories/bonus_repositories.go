package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// BonusReader defines read operations for referral bonuses
type BonusReader interface {
	FindBonusByID(ctx context.Context, bonusID string) (*domain.ReferralBonus, error)
	FindBonusByAction(ctx context.Context, refereeAccountID string, actionType domain.ActionType, actionID string) (*domain.ReferralBonus, error)
	CountBonusesByReferrer(ctx context.Context, referrerAccountID string) (int, error)
	HasBonusForRegistration(ctx context.Context, registrationID string) (bool, error)

	// BonusTotalsByStatus aggregates a referrer's bonuses.
	BonusTotalsByStatus(ctx context.Context, referrerAccountID string) (map[domain.BonusStatus]domain.BonusTotals, error)
}

// BonusWriter defines write operations for referral bonuses
type BonusWriter interface {
	// InsertBonus stores bonus unless the (referee, action type, action id)
	// triple already has one. It reports whether a row was written.
	InsertBonus(ctx context.Context, bonus domain.ReferralBonus) (bool, error)

	FindBonusForUpdate(ctx context.Context, bonusID string) (*domain.ReferralBonus, error)
	UpdateBonus(ctx context.Context, bonus domain.ReferralBonus) error

	// SettleDueBonuses settles every pending bonus whose settleAfter is not
	// after asOf and returns them.
	SettleDueBonuses(ctx context.Context, asOf time.Time) ([]domain.ReferralBonus, error)
}

// BonusRepositoryFacade combines all bonus repository interfaces
type BonusRepositoryFacade interface {
	BonusReader
	BonusWriter
}
