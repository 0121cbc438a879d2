package models

import (
	"database/sql"
	"time"
)

type ReferralCode struct {
	CodeID    string        `db:"code_id"`
	AccountID string        `db:"account_id"`
	Code      string        `db:"code"`
	Status    string        `db:"status"`
	MaxUses   sql.NullInt32 `db:"max_uses"`
	ExpiresAt sql.NullTime  `db:"expires_at"`
	UseCount  int32         `db:"use_count"`
	RevokedAt sql.NullTime  `db:"revoked_at"`
	RevokedBy string        `db:"revoked_by"`
	CreatedAt time.Time     `db:"created_at"`
}

type ReferralRegistration struct {
	RegistrationID       string       `db:"registration_id"`
	RefereeAccountID     string       `db:"referee_account_id"`
	ReferrerAccountID    string       `db:"referrer_account_id"`
	CodeID               string       `db:"code_id"`
	CreatedAt            time.Time    `db:"created_at"`
	ReboundAt            sql.NullTime `db:"rebound_at"`
	AttributionExpiresAt time.Time    `db:"attribution_expires_at"`
}

type AttributionEvent struct {
	EventID                   string    `db:"event_id"`
	RefereeAccountID          string    `db:"referee_account_id"`
	ReferrerAccountID         string    `db:"referrer_account_id"`
	CodeID                    string    `db:"code_id"`
	RegistrationID            string    `db:"registration_id"`
	Outcome                   string    `db:"outcome"`
	PreviousReferrerAccountID string    `db:"previous_referrer_account_id"`
	CreatedAt                 time.Time `db:"created_at"`
}
