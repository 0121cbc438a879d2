package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

type referralRepository struct {
	*txState
}

var _ portsrepo.ReferralRepositoryFacade = (*referralRepository)(nil)

func (r *referralRepository) InsertCode(_ context.Context, code domain.ReferralCode) (bool, error) {
	if err := r.writable(); err != nil {
		return false, err
	}
	if _, taken := r.codes[code.CodeID]; taken {
		return false, fmt.Errorf("%w: referral code %s", apperrors.ErrDuplicate, code.CodeID)
	}
	for _, existing := range r.codes {
		if existing.Code == code.Code {
			return false, nil
		}
		if code.Status == domain.CodeActive && existing.Status == domain.CodeActive && existing.AccountID == code.AccountID {
			return false, nil
		}
	}
	r.codes[code.CodeID] = code
	return true, nil
}

func (r *referralRepository) FindCodeByID(_ context.Context, codeID string) (*domain.ReferralCode, error) {
	code, ok := r.codes[codeID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &code, nil
}

func (r *referralRepository) FindActiveCodeByAccount(_ context.Context, accountID string) (*domain.ReferralCode, error) {
	for _, code := range r.codes {
		if code.AccountID == accountID && code.Status == domain.CodeActive {
			return &code, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *referralRepository) FindCodeByValue(_ context.Context, value string) (*domain.ReferralCode, error) {
	for _, code := range r.codes {
		if code.Code == value {
			return &code, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *referralRepository) RevokeCode(_ context.Context, codeID, revokedBy string, now time.Time) (bool, error) {
	if err := r.writable(); err != nil {
		return false, err
	}
	code, ok := r.codes[codeID]
	if !ok || code.Status != domain.CodeActive {
		return false, nil
	}
	code.Status = domain.CodeRevoked
	code.RevokedAt = &now
	code.RevokedBy = revokedBy
	r.codes[codeID] = code
	return true, nil
}

func (r *referralRepository) IncrementCodeUse(_ context.Context, codeID string) (bool, error) {
	if err := r.writable(); err != nil {
		return false, err
	}
	code, ok := r.codes[codeID]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if code.Exhausted() {
		return false, nil
	}
	code.UseCount++
	r.codes[codeID] = code
	return true, nil
}

func (r *referralRepository) DecrementCodeUse(_ context.Context, codeID string) error {
	if err := r.writable(); err != nil {
		return err
	}
	code, ok := r.codes[codeID]
	if !ok {
		return apperrors.ErrNotFound
	}
	code.UseCount = max(code.UseCount-1, 0)
	r.codes[codeID] = code
	return nil
}

func (r *referralRepository) FindRegistrationByReferee(_ context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	reg, ok := r.registrations[refereeAccountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &reg, nil
}

func (r *referralRepository) FindRegistrationForUpdate(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	return r.FindRegistrationByReferee(ctx, refereeAccountID)
}

func (r *referralRepository) FindRegistrationForShare(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	return r.FindRegistrationByReferee(ctx, refereeAccountID)
}

func (r *referralRepository) InsertRegistration(_ context.Context, reg domain.ReferralRegistration) error {
	if err := r.writable(); err != nil {
		return err
	}
	if reg.RefereeAccountID == reg.ReferrerAccountID {
		return fmt.Errorf("%w: referee and referrer are the same account", apperrors.ErrValidation)
	}
	if _, taken := r.registrations[reg.RefereeAccountID]; taken {
		return fmt.Errorf("%w: registration for referee %s", apperrors.ErrDuplicate, reg.RefereeAccountID)
	}
	r.registrations[reg.RefereeAccountID] = reg
	return nil
}

func (r *referralRepository) RebindRegistration(_ context.Context, reg domain.ReferralRegistration) error {
	if err := r.writable(); err != nil {
		return err
	}
	if reg.RefereeAccountID == reg.ReferrerAccountID {
		return fmt.Errorf("%w: referee and referrer are the same account", apperrors.ErrValidation)
	}
	if _, ok := r.registrations[reg.RefereeAccountID]; !ok {
		return apperrors.ErrNotFound
	}
	r.registrations[reg.RefereeAccountID] = reg
	return nil
}

func (r *referralRepository) AppendAttributionEvent(_ context.Context, event domain.AttributionEvent) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *referralRepository) ListAttributionEvents(_ context.Context, refereeAccountID string) ([]domain.AttributionEvent, error) {
	events := []domain.AttributionEvent{}
	for _, event := range r.events {
		if event.RefereeAccountID == refereeAccountID {
			events = append(events, event)
		}
	}
	return events, nil
}
