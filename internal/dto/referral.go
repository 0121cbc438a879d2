package dto

import (
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// CreateReferralCodeRequest carries the optional limits of a new code.
type CreateReferralCodeRequest struct {
	MaxUses   *int       `json:"maxUses" binding:"omitempty,gt=0"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (r CreateReferralCodeRequest) ToInput() domain.CreateCodeInput {
	return domain.CreateCodeInput{MaxUses: r.MaxUses, ExpiresAt: r.ExpiresAt}
}

// RegisterReferralRequest binds the account to the owner of Code.
type RegisterReferralRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

// ReferralStatusResponse is a referee's binding and whether it still earns bonuses.
type ReferralStatusResponse struct {
	domain.ReferralRegistration
	AttributionActive bool `json:"attributionActive"`
}

// ListAttributionEventsResponse wraps a referee's audit trail.
type ListAttributionEventsResponse struct {
	Events []domain.AttributionEvent `json:"events"`
}
