package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/platform/metrics"
	"github.com/google/uuid"
)

// referralService implements the ReferralSvcFacade interface
type referralService struct {
	BaseService
}

// NewReferralService creates the referral attribution service.
func NewReferralService(txm portsrepo.TransactionManager, options ...ServiceOption) portssvc.ReferralSvcFacade {
	return &referralService{BaseService: newBaseService(txm, options...)}
}

func (s *referralService) CreateCode(ctx context.Context, accountID string, in domain.CreateCodeInput) (*domain.ReferralCode, error) {
	now := s.clock()
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return nil, apperrors.NewValidationError("maxUses must be at least 1")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, apperrors.NewValidationError("expiresAt must be in the future")
	}

	var code *domain.ReferralCode
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.LockAccount(ctx, accountID); err != nil {
			return notFound(err, "account", accountID)
		}

		active, err := repos.ReferralRepo.FindActiveCodeByAccount(ctx, accountID)
		if err == nil {
			code = active
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		for attempt := 0; attempt < s.policy.CodeGenerationAttempts; attempt++ {
			value, err := s.codeGen()
			if err != nil {
				return fmt.Errorf("failed to generate referral code: %w", err)
			}
			candidate := domain.ReferralCode{
				CodeID:    uuid.NewString(),
				AccountID: accountID,
				Code:      value,
				Status:    domain.CodeActive,
				MaxUses:   in.MaxUses,
				ExpiresAt: in.ExpiresAt,
				CreatedAt: now,
			}
			inserted, err := repos.ReferralRepo.InsertCode(ctx, candidate)
			if err != nil {
				return err
			}
			if inserted {
				code = &candidate
				return nil
			}
			s.LogDebug(ctx, "Referral code collided, regenerating", slog.Int("attempt", attempt+1))
		}
		return apperrors.NewInternalServerError("could not generate a unique referral code")
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to create referral code", slog.String("account_id", accountID))
		return nil, err
	}
	return code, nil
}

func (s *referralService) RevokeCode(ctx context.Context, codeID, revokedBy string) (*domain.ReferralCode, error) {
	if err := requireNonEmpty("revokedBy", revokedBy); err != nil {
		return nil, err
	}
	now := s.clock()
	var code *domain.ReferralCode
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		revoked, err := repos.ReferralRepo.RevokeCode(ctx, codeID, revokedBy, now)
		if err != nil {
			return err
		}
		if !revoked {
			return apperrors.NewNotFoundError(fmt.Sprintf("active referral code %s not found", codeID))
		}
		code, err = repos.ReferralRepo.FindCodeByID(ctx, codeID)
		return err
	})
	if err != nil {
		s.logUnexpected(ctx, err, "Failed to revoke referral code", slog.String("code_id", codeID))
		return nil, err
	}
	s.LogInfo(ctx, "Referral code revoked", slog.String("code_id", codeID), slog.String("revoked_by", revokedBy))
	return code, nil
}

func (s *referralService) Register(ctx context.Context, refereeAccountID, codeValue string) (*domain.ReferralRegistration, error) {
	codeValue = strings.ToUpper(strings.TrimSpace(codeValue))
	logger := s.GetLogger(ctx).With(slog.String("referee_account_id", refereeAccountID), slog.String("code", codeValue))

	now := s.clock()
	var (
		registration *domain.ReferralRegistration
		outcome      domain.AttributionOutcome
	)
	err := s.txm.InTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		// Serializes all registrations of one referee.
		if _, err := repos.AccountRepo.LockAccount(ctx, refereeAccountID); err != nil {
			return notFound(err, "account", refereeAccountID)
		}

		code, err := repos.ReferralRepo.FindCodeByValue(ctx, codeValue)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if code.Status != domain.CodeActive {
			return apperrors.ErrInvalidCode
		}
		if code.AccountID == refereeAccountID {
			return apperrors.ErrSelfReferral
		}
		if code.Expired(now) {
			return apperrors.ErrCodeExpired
		}

		existing, err := repos.ReferralRepo.FindRegistrationForUpdate(ctx, refereeAccountID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil && existing.CodeID == code.CodeID {
			registration = existing
			return nil
		}
		if code.Exhausted() {
			return apperrors.ErrMaxUsesReached
		}

		if existing == nil {
			registration, err = s.bind(ctx, repos, refereeAccountID, code, now)
			outcome = domain.OutcomeBound
			return err
		}
		registration, err = s.rebind(ctx, repos, existing, code, now)
		outcome = domain.OutcomeReboundGrace
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
			metrics.ReferralRegistrations.WithLabelValues(string(appErr.Code)).Inc()
			logger.Warn("Referral registration rejected", slog.String("reason", string(appErr.Code)))
		} else {
			metrics.ReferralRegistrations.WithLabelValues(metrics.OutcomeError).Inc()
			logger.Error("Failed to register referral", slog.String("error", err.Error()))
		}
		return nil, err
	}

	if outcome == "" {
		logger.Debug("Referee already bound with this code")
		return registration, nil
	}
	metrics.ReferralRegistrations.WithLabelValues(string(outcome)).Inc()
	logger.Info("Referral registered",
		slog.String("outcome", string(outcome)),
		slog.String("registration_id", registration.RegistrationID),
		slog.String("referrer_account_id", registration.ReferrerAccountID))
	return registration, nil
}

func (s *referralService) bind(ctx context.Context, repos portsrepo.RepositoryProvider, refereeAccountID string, code *domain.ReferralCode, now time.Time) (*domain.ReferralRegistration, error) {
	reg := domain.ReferralRegistration{
		RegistrationID:       uuid.NewString(),
		RefereeAccountID:     refereeAccountID,
		ReferrerAccountID:    code.AccountID,
		CodeID:               code.CodeID,
		CreatedAt:            now,
		AttributionExpiresAt: s.policy.AttributionExpiry(now),
	}

	incremented, err := repos.ReferralRepo.IncrementCodeUse(ctx, code.CodeID)
	if err != nil {
		return nil, err
	}
	if !incremented {
		return nil, apperrors.ErrMaxUsesReached
	}

	if err := repos.ReferralRepo.InsertRegistration(ctx, reg); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			return nil, apperrors.ErrAlreadyBound
		case errors.Is(err, apperrors.ErrValidation):
			return nil, apperrors.ErrSelfReferral
		}
		return nil, err
	}

	err = repos.ReferralRepo.AppendAttributionEvent(ctx, domain.AttributionEvent{
		EventID:           uuid.NewString(),
		RefereeAccountID:  refereeAccountID,
		ReferrerAccountID: code.AccountID,
		CodeID:            code.CodeID,
		RegistrationID:    reg.RegistrationID,
		Outcome:           domain.OutcomeBound,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// rebind moves an existing binding to the owner of code. Earning a bonus locks
// attribution permanently; otherwise the move is allowed inside the grace window.
func (s *referralService) rebind(ctx context.Context, repos portsrepo.RepositoryProvider, existing *domain.ReferralRegistration, code *domain.ReferralCode, now time.Time) (*domain.ReferralRegistration, error) {
	locked, err := repos.BonusRepo.HasBonusForRegistration(ctx, existing.RegistrationID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperrors.ErrAttributionLocked
	}
	if !existing.WithinGrace(now, s.policy.ReferralGraceWindow) {
		return nil, apperrors.ErrAlreadyBound
	}

	// Touch both code rows in a fixed order so concurrent swaps cannot deadlock.
	incrementNew := func() error {
		incremented, err := repos.ReferralRepo.IncrementCodeUse(ctx, code.CodeID)
		if err != nil {
			return err
		}
		if !incremented {
			return apperrors.ErrMaxUsesReached
		}
		return nil
	}
	decrementOld := func() error {
		return repos.ReferralRepo.DecrementCodeUse(ctx, existing.CodeID)
	}
	steps := []func() error{incrementNew, decrementOld}
	if existing.CodeID < code.CodeID {
		steps = []func() error{decrementOld, incrementNew}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	previousReferrer := existing.ReferrerAccountID
	rebound := *existing
	rebound.ReferrerAccountID = code.AccountID
	rebound.CodeID = code.CodeID
	rebound.ReboundAt = &now
	if err := repos.ReferralRepo.RebindRegistration(ctx, rebound); err != nil {
		return nil, err
	}

	err = repos.ReferralRepo.AppendAttributionEvent(ctx, domain.AttributionEvent{
		EventID:                   uuid.NewString(),
		RefereeAccountID:          rebound.RefereeAccountID,
		ReferrerAccountID:         code.AccountID,
		CodeID:                    code.CodeID,
		RegistrationID:            rebound.RegistrationID,
		Outcome:                   domain.OutcomeReboundGrace,
		PreviousReferrerAccountID: previousReferrer,
		CreatedAt:                 now,
	})
	if err != nil {
		return nil, err
	}
	return &rebound, nil
}

func (s *referralService) GetRegistration(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	var registration *domain.ReferralRegistration
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		registration, err = repos.ReferralRepo.FindRegistrationByReferee(ctx, refereeAccountID)
		return notFound(err, "registration for referee", refereeAccountID)
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *referralService) ListAttributionEvents(ctx context.Context, refereeAccountID string) ([]domain.AttributionEvent, error) {
	events := []domain.AttributionEvent{}
	err := s.txm.ReadOnly(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		found, err := repos.ReferralRepo.ListAttributionEvents(ctx, refereeAccountID)
		events = append(events, found...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *referralService) IsAttributionActive(registration domain.ReferralRegistration, asOf time.Time) bool {
	return registration.IsAttributionActive(asOf)
}
