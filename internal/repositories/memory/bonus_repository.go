package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

type bonusRepository struct {
	*txState
}

var _ portsrepo.BonusRepositoryFacade = (*bonusRepository)(nil)

func (r *bonusRepository) FindBonusByID(_ context.Context, bonusID string) (*domain.ReferralBonus, error) {
	bonus, ok := r.bonuses[bonusID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &bonus, nil
}

func (r *bonusRepository) FindBonusByAction(_ context.Context, refereeAccountID string, actionType domain.ActionType, actionID string) (*domain.ReferralBonus, error) {
	for _, bonus := range r.bonuses {
		if bonus.RefereeAccountID == refereeAccountID && bonus.ActionType == actionType && bonus.ActionID == actionID {
			return &bonus, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *bonusRepository) CountBonusesByReferrer(_ context.Context, referrerAccountID string) (int, error) {
	n := 0
	for _, bonus := range r.bonuses {
		if bonus.ReferrerAccountID == referrerAccountID {
			n++
		}
	}
	return n, nil
}

func (r *bonusRepository) HasBonusForRegistration(_ context.Context, registrationID string) (bool, error) {
	for _, bonus := range r.bonuses {
		if bonus.RegistrationID == registrationID {
			return true, nil
		}
	}
	return false, nil
}

func (r *bonusRepository) BonusTotalsByStatus(_ context.Context, referrerAccountID string) (map[domain.BonusStatus]domain.BonusTotals, error) {
	totals := map[domain.BonusStatus]domain.BonusTotals{}
	for _, bonus := range r.bonuses {
		if bonus.ReferrerAccountID != referrerAccountID {
			continue
		}
		t := totals[bonus.Status]
		t.Count++
		t.AmountMicro += bonus.AmountMicro
		totals[bonus.Status] = t
	}
	return totals, nil
}

func (r *bonusRepository) InsertBonus(ctx context.Context, bonus domain.ReferralBonus) (bool, error) {
	if err := r.writable(); err != nil {
		return false, err
	}
	if _, taken := r.bonuses[bonus.BonusID]; taken {
		return false, fmt.Errorf("%w: bonus %s", apperrors.ErrDuplicate, bonus.BonusID)
	}
	if _, err := r.FindBonusByAction(ctx, bonus.RefereeAccountID, bonus.ActionType, bonus.ActionID); err == nil {
		return false, nil
	}
	r.bonuses[bonus.BonusID] = bonus
	return true, nil
}

func (r *bonusRepository) FindBonusForUpdate(ctx context.Context, bonusID string) (*domain.ReferralBonus, error) {
	return r.FindBonusByID(ctx, bonusID)
}

func (r *bonusRepository) UpdateBonus(_ context.Context, bonus domain.ReferralBonus) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, ok := r.bonuses[bonus.BonusID]; !ok {
		return apperrors.ErrNotFound
	}
	r.bonuses[bonus.BonusID] = bonus
	return nil
}

func (r *bonusRepository) SettleDueBonuses(_ context.Context, asOf time.Time) ([]domain.ReferralBonus, error) {
	if err := r.writable(); err != nil {
		return nil, err
	}
	settled := []domain.ReferralBonus{}
	for id, bonus := range r.bonuses {
		if bonus.Status != domain.BonusPending || bonus.SettleAfter.After(asOf) {
			continue
		}
		at := asOf
		bonus.Status = domain.BonusSettled
		bonus.SettledAt = &at
		r.bonuses[id] = bonus
		settled = append(settled, bonus)
	}
	slices.SortFunc(settled, func(a, b domain.ReferralBonus) int { return cmp.Compare(a.SettleAfter.UnixNano(), b.SettleAfter.UnixNano()) })
	return settled, nil
}
