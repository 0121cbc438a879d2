package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// PayoutReader defines read operations for payout requests
type PayoutReader interface {
	FindPayoutByID(ctx context.Context, payoutID string) (*domain.PayoutRequest, error)

	// SumPayouts totals an account's payouts in the given statuses.
	SumPayouts(ctx context.Context, accountID string, statuses []domain.PayoutStatus) (int64, error)

	// CountPayoutsSince counts an account's payouts in the given statuses created after since.
	CountPayoutsSince(ctx context.Context, accountID string, statuses []domain.PayoutStatus, since time.Time) (int, error)
}

// PayoutWriter defines write operations for payout requests
type PayoutWriter interface {
	InsertPayout(ctx context.Context, payout domain.PayoutRequest) error
	FindPayoutForUpdate(ctx context.Context, payoutID string) (*domain.PayoutRequest, error)
	UpdatePayout(ctx context.Context, payout domain.PayoutRequest) error
}

// PayoutRepositoryFacade combines all payout repository interfaces
type PayoutRepositoryFacade interface {
	PayoutReader
	PayoutWriter
}
