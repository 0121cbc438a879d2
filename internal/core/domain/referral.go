package domain

import "time"

// ReferralCodeAlphabet excludes characters that are easy to confuse (0/O, 1/I/L).
const ReferralCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ReferralCodeLength is the number of characters in a generated code.
const ReferralCodeLength = 10

type CodeStatus string

const (
	CodeActive  CodeStatus = "active"
	CodeRevoked CodeStatus = "revoked"
)

// ReferralCode belongs to one account. An account has at most one active code.
type ReferralCode struct {
	CodeID    string     `json:"codeID"`
	AccountID string     `json:"accountID"`
	Code      string     `json:"code"`
	Status    CodeStatus `json:"status"`
	MaxUses   *int       `json:"maxUses,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UseCount  int        `json:"useCount"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	RevokedBy string     `json:"revokedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Expired reports whether the code can no longer be used at asOf.
func (c ReferralCode) Expired(asOf time.Time) bool {
	return c.ExpiresAt != nil && !asOf.Before(*c.ExpiresAt)
}

// Exhausted reports whether the code has reached its use limit.
func (c ReferralCode) Exhausted() bool {
	return c.MaxUses != nil && c.UseCount >= *c.MaxUses
}

// CreateCodeInput carries the optional limits of a new code.
type CreateCodeInput struct {
	MaxUses   *int
	ExpiresAt *time.Time
}

// ReferralRegistration binds a referee to the referrer whose code they used.
type ReferralRegistration struct {
	RegistrationID       string     `json:"registrationID"`
	RefereeAccountID     string     `json:"refereeAccountID"`
	ReferrerAccountID    string     `json:"referrerAccountID"`
	CodeID               string     `json:"codeID"`
	CreatedAt            time.Time  `json:"createdAt"`
	ReboundAt            *time.Time `json:"reboundAt,omitempty"`
	AttributionExpiresAt time.Time  `json:"attributionExpiresAt"`
}

// IsAttributionActive reports whether bonuses may still be attributed at asOf.
func (r ReferralRegistration) IsAttributionActive(asOf time.Time) bool {
	return asOf.Before(r.AttributionExpiresAt)
}

// WithinGrace reports whether the binding may still be moved to another referrer.
func (r ReferralRegistration) WithinGrace(asOf time.Time, grace time.Duration) bool {
	return asOf.Sub(r.CreatedAt) <= grace
}

type AttributionOutcome string

const (
	OutcomeBound        AttributionOutcome = "bound"
	OutcomeReboundGrace AttributionOutcome = "rebound_grace"
)

// AttributionEvent is the audit record written with every durable binding change.
type AttributionEvent struct {
	EventID                   string             `json:"eventID"`
	RefereeAccountID          string             `json:"refereeAccountID"`
	ReferrerAccountID         string             `json:"referrerAccountID"`
	CodeID                    string             `json:"codeID"`
	RegistrationID            string             `json:"registrationID"`
	Outcome                   AttributionOutcome `json:"outcome"`
	PreviousReferrerAccountID string             `json:"previousReferrerAccountID,omitempty"`
	CreatedAt                 time.Time          `json:"createdAt"`
}
