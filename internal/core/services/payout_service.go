package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/platform/metrics"
	"github.com/SscSPs/community_billing/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// payoutService implements the PayoutSvcFacade interface
type payoutService struct {
	BaseService
}

// NewPayoutService creates the payout engine.
func NewPayoutService(txm portsrepo.TransactionManager, options ...ServiceOption) portssvc.PayoutSvcFacade {
	return &payoutService{BaseService: newBaseService(txm, options...)}
}

func (s *payoutService) RequestPayout(ctx context.Context, in domain.PayoutInput) (*domain.PayoutRequest, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.PayoutAddress = strings.TrimSpace(in.PayoutAddress)
	if err := validateInput(in); err != nil {
		metrics.PayoutRequests.WithLabelValues(string(apperrors.CodeValidation)).Inc()
		return nil, err
	}
	logger := s.GetLogger(ctx).With(slog.String("account_id", in.AccountID), slog.Int64("amount_micro", in.AmountMicro))

	if in.AmountMicro < s.policy.PayoutMinimumMicro {
		metrics.PayoutRequests.WithLabelValues(string(apperrors.CodeMinimumNotMet)).Inc()
		return nil, apperrors.ErrMinimumNotMet.WithMessage("payout of $%s is below the $%s minimum",
			utils.FormatMicroUSD(in.AmountMicro), utils.FormatMicroUSD(s.policy.PayoutMinimumMicro))
	}

	now := s.clock()
	var payout domain.PayoutRequest
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		// Serializes balance, rate-limit and KYC checks for the account.
		account, err := repos.AccountRepo.LockAccount(ctx, in.AccountID)
		if err != nil {
			return notFound(err, "account", in.AccountID)
		}

		withdrawable, err := withdrawableBalance(ctx, repos, in.AccountID)
		if err != nil {
			return err
		}
		if in.AmountMicro > withdrawable {
			return apperrors.ErrInsufficientBalance.WithMessage("payout of $%s exceeds withdrawable balance of $%s",
				utils.FormatMicroUSD(in.AmountMicro), utils.FormatMicroUSD(max(withdrawable, 0)))
		}

		recent, err := repos.PayoutRepo.CountPayoutsSince(ctx, in.AccountID, domain.CountedPayoutStatuses, now.Add(-s.policy.PayoutRateLimitWindow))
		if err != nil {
			return err
		}
		if recent > 0 {
			return apperrors.ErrRateLimited.WithMessage("only one payout is allowed every %s", s.policy.PayoutRateLimitWindow)
		}

		lifetime, err := repos.PayoutRepo.SumPayouts(ctx, in.AccountID, domain.CountedPayoutStatuses)
		if err != nil {
			return err
		}
		required := s.policy.RequiredKYCLevel(lifetime + in.AmountMicro)
		if !account.KYCLevel.Satisfies(required) {
			return apperrors.KYCRequired(string(required))
		}

		fee := domain.ApplyBps(in.AmountMicro, s.policy.PayoutFeeBps)
		payout = domain.PayoutRequest{
			PayoutID:      uuid.NewString(),
			AccountID:     in.AccountID,
			AmountMicro:   in.AmountMicro,
			FeeMicro:      fee,
			NetMicro:      in.AmountMicro - fee,
			Currency:      in.Currency,
			PayoutAddress: in.PayoutAddress,
			Status:        domain.PayoutApproved,
			CreatedAt:     now,
			ApprovedAt:    &now,
		}
		return repos.PayoutRepo.InsertPayout(ctx, payout)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
			metrics.PayoutRequests.WithLabelValues(string(appErr.Code)).Inc()
			logger.Warn("Payout request rejected", slog.String("reason", string(appErr.Code)), slog.String("detail", appErr.Message))
		} else {
			metrics.PayoutRequests.WithLabelValues(metrics.OutcomeError).Inc()
			logger.Error("Failed to request payout", slog.String("error", err.Error()))
		}
		return nil, err
	}

	metrics.PayoutRequests.WithLabelValues(string(domain.PayoutApproved)).Inc()
	logger.Info("Payout approved and escrowed", slog.String("payout_id", payout.PayoutID), slog.Int64("fee_micro", payout.FeeMicro))
	return &payout, nil
}

func (s *payoutService) CompletePayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	return s.transition(ctx, payoutID, func(p *domain.PayoutRequest) {
		now := s.clock()
		p.Status = domain.PayoutCompleted
		p.CompletedAt = &now
	})
}

func (s *payoutService) FailPayout(ctx context.Context, payoutID, reason string) (*domain.PayoutRequest, error) {
	if err := requireNonEmpty("reason", reason); err != nil {
		return nil, err
	}
	return s.transition(ctx, payoutID, func(p *domain.PayoutRequest) {
		now := s.clock()
		p.Status = domain.PayoutFailed
		p.FailureReason = reason
		p.FailedAt = &now
	})
}

// transition applies a terminal state change to an open payout.
func (s *payoutService) transition(ctx context.Context, payoutID string, apply func(*domain.PayoutRequest)) (*domain.PayoutRequest, error) {
	var payout *domain.PayoutRequest
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		p, err := repos.PayoutRepo.FindPayoutForUpdate(ctx, payoutID)
		if err != nil {
			return notFound(err, "payout", payoutID)
		}
		if !p.Open() {
			return apperrors.ErrInvalidState.WithMessage("payout %s is already %s", payoutID, p.Status)
		}
		apply(p)
		payout = p
		return repos.PayoutRepo.UpdatePayout(ctx, *p)
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to update payout", slog.String("payout_id", payoutID))
		return nil, err
	}
	metrics.PayoutTransitions.WithLabelValues(string(payout.Status)).Inc()
	s.LogInfo(ctx, "Payout transitioned", slog.String("payout_id", payoutID), slog.String("status", string(payout.Status)))
	return payout, nil
}

func (s *payoutService) GetPayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	var payout *domain.PayoutRequest
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		payout, err = repos.PayoutRepo.FindPayoutByID(ctx, payoutID)
		return notFound(err, "payout", payoutID)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *payoutService) GetKYCStatus(ctx context.Context, accountID string) (*domain.KYCStatus, error) {
	var status *domain.KYCStatus
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		account, err := repos.AccountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return notFound(err, "account", accountID)
		}
		cumulative, err := repos.PayoutRepo.SumPayouts(ctx, accountID, domain.CountedPayoutStatuses)
		if err != nil {
			return err
		}
		status = s.kycStatus(*account, cumulative)
		return nil
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to read KYC status", slog.String("account_id", accountID))
		return nil, err
	}
	return status, nil
}

var hundred = decimal.NewFromInt(100)

func (s *payoutService) kycStatus(account domain.Account, cumulativeMicro int64) *domain.KYCStatus {
	status := &domain.KYCStatus{
		AccountID:             account.AccountID,
		KYCLevel:              account.KYCLevel,
		CumulativePayoutMicro: cumulativeMicro,
		ProgressPercent:       decimal.Zero,
	}
	next, ok := s.policy.NextKYCThreshold(account.KYCLevel)
	if !ok || next.ThresholdMicro <= 0 {
		return status
	}

	threshold := next.ThresholdMicro
	status.NextThresholdMicro = &threshold
	status.NextRequiredLevel = next.Level

	progress := decimal.NewFromInt(cumulativeMicro).Mul(hundred).Div(decimal.NewFromInt(threshold))
	if progress.GreaterThan(hundred) {
		progress = hundred
	}
	status.ProgressPercent = progress.Round(2)

	if status.ProgressPercent.GreaterThanOrEqual(decimal.NewFromInt(s.policy.KYCWarningPercent)) {
		status.Warning = fmt.Sprintf("lifetime payouts of $%s are %s%% of the $%s limit; %s verification will be required",
			utils.FormatMicroUSD(cumulativeMicro), status.ProgressPercent.StringFixed(2), utils.FormatMicroUSD(threshold), next.Level)
	}
	return status
}

func (s *payoutService) UpdateKYCLevel(ctx context.Context, accountID string, level domain.KYCLevel) (*domain.Account, error) {
	if !level.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown kycLevel %q", level))
	}
	now := s.clock()
	var account *domain.Account
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.LockAccount(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}
		if err := repos.AccountRepo.UpdateKYCLevel(ctx, accountID, level, now); err != nil {
			return err
		}
		var err error
		account, err = repos.AccountRepo.FindAccountByID(ctx, accountID)
		return err
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to update KYC level", slog.String("account_id", accountID))
		return nil, err
	}
	s.LogInfo(ctx, "KYC level updated", slog.String("account_id", accountID), slog.String("kyc_level", string(level)))
	return account, nil
}
