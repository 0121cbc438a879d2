package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// ReferralCodeRepository stores referral codes.
type ReferralCodeRepository interface {
	// InsertCode stores code unless its value collides or the account already
	// has an active code. It reports whether a row was written.
	InsertCode(ctx context.Context, code domain.ReferralCode) (bool, error)

	FindCodeByID(ctx context.Context, codeID string) (*domain.ReferralCode, error)
	FindActiveCodeByAccount(ctx context.Context, accountID string) (*domain.ReferralCode, error)

	// FindCodeByValue returns a code by its public value.
	FindCodeByValue(ctx context.Context, code string) (*domain.ReferralCode, error)

	// RevokeCode revokes an active code and reports whether it was active.
	RevokeCode(ctx context.Context, codeID, revokedBy string, now time.Time) (bool, error)

	// IncrementCodeUse adds one use unless the code is at its limit and
	// reports whether it did.
	IncrementCodeUse(ctx context.Context, codeID string) (bool, error)

	// DecrementCodeUse removes one use, never going below zero.
	DecrementCodeUse(ctx context.Context, codeID string) error
}

// RegistrationRepository stores referee bindings and their audit trail.
type RegistrationRepository interface {
	FindRegistrationByReferee(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error)
	FindRegistrationForUpdate(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error)

	// FindRegistrationForShare reads a registration and keeps it from being
	// rebound until the transaction ends.
	FindRegistrationForShare(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error)

	// InsertRegistration returns apperrors.ErrDuplicate when the referee is already bound
	// and apperrors.ErrValidation when referee and referrer are the same account.
	InsertRegistration(ctx context.Context, registration domain.ReferralRegistration) error

	// RebindRegistration moves a registration to another referrer and code.
	RebindRegistration(ctx context.Context, registration domain.ReferralRegistration) error

	AppendAttributionEvent(ctx context.Context, event domain.AttributionEvent) error
	ListAttributionEvents(ctx context.Context, refereeAccountID string) ([]domain.AttributionEvent, error)
}

// ReferralRepositoryFacade combines all referral repository interfaces
type ReferralRepositoryFacade interface {
	ReferralCodeRepository
	RegistrationRepository
}
