package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/platform/metrics"
	"github.com/google/uuid"
)

// Reasons a qualifying action does not produce a bonus.
const (
	skipNoRegistration  = "no_registration"
	skipAttributionOver = "attribution_expired"
	skipUnknownType     = "unknown_type"
	skipBelowFloor      = "below_floor"
	skipReferrerCap     = "referrer_cap"
	skipZeroAmount      = "zero_amount"
)

// earningsService implements the EarningsSvcFacade interface
type earningsService struct {
	BaseService
}

// NewEarningsService creates the bonus and settlement service.
func NewEarningsService(txm portsrepo.TransactionManager, options ...ServiceOption) portssvc.EarningsSvcFacade {
	return &earningsService{BaseService: newBaseService(txm, options...)}
}

func (s *earningsService) OnQualifyingAction(ctx context.Context, refereeAccountID string, action domain.QualifyingAction) (*domain.ReferralBonus, error) {
	if err := validateInput(action); err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(
		slog.String("referee_account_id", refereeAccountID),
		slog.String("action_type", string(action.Type)),
		slog.String("action_id", action.ActionID),
	)

	now := s.clock()
	var (
		bonus      *domain.ReferralBonus
		skipReason string
		replayed   bool
	)
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		existing, err := repos.BonusRepo.FindBonusByAction(ctx, refereeAccountID, action.Type, action.ActionID)
		if err == nil {
			bonus, replayed = existing, true
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		// Held until commit so a concurrent rebind either lands first or sees this bonus.
		reg, err := repos.ReferralRepo.FindRegistrationForShare(ctx, refereeAccountID)
		if errors.Is(err, apperrors.ErrNotFound) {
			skipReason = skipNoRegistration
			return nil
		}
		if err != nil {
			return err
		}
		if !reg.IsAttributionActive(now) {
			skipReason = skipAttributionOver
			return nil
		}

		floor, known := s.policy.ActionFloor(action.Type)
		if !known {
			skipReason = skipUnknownType
			return nil
		}
		if action.AmountMicro < floor {
			skipReason = skipBelowFloor
			return nil
		}

		// Serializes the cap check for one referrer.
		if _, err := repos.AccountRepo.LockAccount(ctx, reg.ReferrerAccountID); err != nil {
			return err
		}
		issued, err := repos.BonusRepo.CountBonusesByReferrer(ctx, reg.ReferrerAccountID)
		if err != nil {
			return err
		}
		if issued >= s.policy.MaxBonusesPerReferrer {
			skipReason = skipReferrerCap
			return nil
		}

		amount := domain.ApplyBps(action.AmountMicro, s.policy.ReferrerBps)
		if amount <= 0 {
			skipReason = skipZeroAmount
			return nil
		}

		candidate := domain.ReferralBonus{
			BonusID:           uuid.NewString(),
			RegistrationID:    reg.RegistrationID,
			ReferrerAccountID: reg.ReferrerAccountID,
			RefereeAccountID:  refereeAccountID,
			ActionType:        action.Type,
			ActionID:          action.ActionID,
			AmountMicro:       amount,
			ReferrerBps:       s.policy.ReferrerBps,
			SourceChargeMicro: action.AmountMicro,
			Status:            domain.BonusPending,
			SettleAfter:       now.Add(s.policy.SettlementDelay),
			RiskScore:         action.RiskScore,
			CreatedAt:         now,
		}
		if action.RiskScore != nil && *action.RiskScore >= s.policy.ReviewRiskScore {
			candidate.FlagReason = fmt.Sprintf("risk score %.2f at or above review threshold %.2f", *action.RiskScore, s.policy.ReviewRiskScore)
		}

		inserted, err := repos.BonusRepo.InsertBonus(ctx, candidate)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := repos.BonusRepo.FindBonusByAction(ctx, refereeAccountID, action.Type, action.ActionID)
			bonus, replayed = existing, true
			return err
		}
		bonus = &candidate
		return nil
	})
	if err != nil {
		metrics.BonusesIssued.WithLabelValues(metrics.OutcomeError).Inc()
		s.logUnexpected(ctx, err, "Failed to process qualifying action", slog.String("referee_account_id", refereeAccountID))
		return nil, err
	}

	switch {
	case skipReason != "":
		metrics.BonusesIssued.WithLabelValues(skipReason).Inc()
		logger.Info("Qualifying action skipped", slog.String("reason", skipReason))
		return nil, nil
	case replayed:
		metrics.BonusesIssued.WithLabelValues(metrics.OutcomeReplayed).Inc()
		logger.Debug("Qualifying action already rewarded", slog.String("bonus_id", bonus.BonusID))
		return bonus, nil
	}

	metrics.BonusesIssued.WithLabelValues("issued").Inc()
	logger.Info("Referral bonus issued",
		slog.String("bonus_id", bonus.BonusID),
		slog.String("referrer_account_id", bonus.ReferrerAccountID),
		slog.Int64("amount_micro", bonus.AmountMicro))
	if bonus.FlagReason != "" {
		logger.Warn("Referral bonus flagged for review", slog.String("bonus_id", bonus.BonusID), slog.String("flag_reason", bonus.FlagReason))
	}
	return bonus, nil
}

func (s *earningsService) SettleEarnings(ctx context.Context, asOf *time.Time) ([]domain.ReferralBonus, error) {
	at := s.clock()
	if asOf != nil {
		at = asOf.UTC().Truncate(time.Microsecond)
	}

	var settled []domain.ReferralBonus
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		settled, err = repos.BonusRepo.SettleDueBonuses(ctx, at)
		return err
	})
	if err != nil {
		metrics.SettlementRuns.WithLabelValues(metrics.OutcomeError).Inc()
		s.LogError(ctx, err, "Settlement sweep failed", slog.Time("as_of", at))
		return nil, err
	}

	metrics.SettlementRuns.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.BonusesSettled.Add(float64(len(settled)))
	if len(settled) > 0 {
		s.LogInfo(ctx, "Bonuses settled", slog.Int("count", len(settled)), slog.Time("as_of", at))
	}
	if settled == nil {
		settled = []domain.ReferralBonus{}
	}
	return settled, nil
}

func (s *earningsService) ClawbackEarning(ctx context.Context, bonusID, reason string) (*domain.ReferralBonus, error) {
	if err := requireNonEmpty("reason", reason); err != nil {
		return nil, err
	}
	now := s.clock()
	var (
		bonus   *domain.ReferralBonus
		changed bool
	)
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		b, err := repos.BonusRepo.FindBonusForUpdate(ctx, bonusID)
		if err != nil {
			return notFound(err, "bonus", bonusID)
		}
		bonus = b
		if b.Status == domain.BonusClawedBack {
			return nil
		}
		b.Status = domain.BonusClawedBack
		b.ClawedBackAt = &now
		b.ClawbackReason = reason
		changed = true
		return repos.BonusRepo.UpdateBonus(ctx, *b)
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to claw back bonus", slog.String("bonus_id", bonusID))
		return nil, err
	}
	if changed {
		metrics.BonusesClawedBack.Inc()
		s.GetLogger(ctx).Warn("Referral bonus clawed back",
			slog.String("bonus_id", bonusID),
			slog.String("referrer_account_id", bonus.ReferrerAccountID),
			slog.String("reason", reason))
	}
	return bonus, nil
}

func (s *earningsService) ReviewEarning(ctx context.Context, bonusID, reviewedBy string) (*domain.ReferralBonus, error) {
	if err := requireNonEmpty("reviewedBy", reviewedBy); err != nil {
		return nil, err
	}
	var bonus *domain.ReferralBonus
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		b, err := repos.BonusRepo.FindBonusForUpdate(ctx, bonusID)
		if err != nil {
			return notFound(err, "bonus", bonusID)
		}
		b.ReviewedBy = reviewedBy
		bonus = b
		return repos.BonusRepo.UpdateBonus(ctx, *b)
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to record bonus review", slog.String("bonus_id", bonusID))
		return nil, err
	}
	s.LogInfo(ctx, "Referral bonus reviewed", slog.String("bonus_id", bonusID), slog.String("reviewed_by", reviewedBy))
	return bonus, nil
}

func (s *earningsService) GetBonus(ctx context.Context, bonusID string) (*domain.ReferralBonus, error) {
	var bonus *domain.ReferralBonus
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		bonus, err = repos.BonusRepo.FindBonusByID(ctx, bonusID)
		return notFound(err, "bonus", bonusID)
	})
	if err != nil {
		return nil, err
	}
	return bonus, nil
}

func (s *earningsService) GetWithdrawableBalance(ctx context.Context, accountID string) (int64, error) {
	var withdrawable int64
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		var err error
		withdrawable, err = withdrawableBalance(ctx, repos, accountID)
		return err
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to compute withdrawable balance", slog.String("account_id", accountID))
		return 0, err
	}
	return withdrawable, nil
}

func (s *earningsService) GetEarningsSummary(ctx context.Context, accountID string) (*domain.EarningsSummary, error) {
	summary := &domain.EarningsSummary{AccountID: accountID}
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		totals, err := repos.BonusRepo.BonusTotalsByStatus(ctx, accountID)
		if err != nil {
			return err
		}
		summary.Pending = totals[domain.BonusPending]
		summary.Settled = totals[domain.BonusSettled]
		summary.ClawedBack = totals[domain.BonusClawedBack]

		if summary.EscrowedMicro, err = repos.PayoutRepo.SumPayouts(ctx, accountID, domain.OpenPayoutStatuses); err != nil {
			return err
		}
		if summary.PaidOutMicro, err = repos.PayoutRepo.SumPayouts(ctx, accountID, []domain.PayoutStatus{domain.PayoutCompleted}); err != nil {
			return err
		}
		summary.WithdrawableMicro = summary.Settled.AmountMicro - summary.EscrowedMicro - summary.PaidOutMicro
		return nil
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to build earnings summary", slog.String("account_id", accountID))
		return nil, err
	}
	return summary, nil
}

// withdrawableBalance is settled bonus earnings minus every payout that has
// not failed. Open payouts hold escrow and completed payouts have left.
func withdrawableBalance(ctx context.Context, repos portsrepo.RepositoryProvider, accountID string) (int64, error) {
	totals, err := repos.BonusRepo.BonusTotalsByStatus(ctx, accountID)
	if err != nil {
		return 0, err
	}
	committed, err := repos.PayoutRepo.SumPayouts(ctx, accountID, domain.CountedPayoutStatuses)
	if err != nil {
		return 0, err
	}
	return totals[domain.BonusSettled].AmountMicro - committed, nil
}
