package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

type payoutRepository struct {
	*txState
}

var _ portsrepo.PayoutRepositoryFacade = (*payoutRepository)(nil)

func (r *payoutRepository) FindPayoutByID(_ context.Context, payoutID string) (*domain.PayoutRequest, error) {
	payout, ok := r.payouts[payoutID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &payout, nil
}

func (r *payoutRepository) SumPayouts(_ context.Context, accountID string, statuses []domain.PayoutStatus) (int64, error) {
	var total int64
	for _, payout := range r.payouts {
		if payout.AccountID == accountID && slices.Contains(statuses, payout.Status) {
			total += payout.AmountMicro
		}
	}
	return total, nil
}

func (r *payoutRepository) CountPayoutsSince(_ context.Context, accountID string, statuses []domain.PayoutStatus, since time.Time) (int, error) {
	n := 0
	for _, payout := range r.payouts {
		if payout.AccountID == accountID && slices.Contains(statuses, payout.Status) && payout.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *payoutRepository) InsertPayout(_ context.Context, payout domain.PayoutRequest) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, taken := r.payouts[payout.PayoutID]; taken {
		return fmt.Errorf("%w: payout %s", apperrors.ErrDuplicate, payout.PayoutID)
	}
	r.payouts[payout.PayoutID] = payout
	return nil
}

func (r *payoutRepository) FindPayoutForUpdate(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	return r.FindPayoutByID(ctx, payoutID)
}

func (r *payoutRepository) UpdatePayout(_ context.Context, payout domain.PayoutRequest) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.payouts[payout.PayoutID]; !ok {
		return apperrors.ErrNotFound
	}
	r.payouts[payout.PayoutID] = payout
	return nil
}
