package models

import (
	"database/sql"
	"time"
)

type ReferralBonus struct {
	BonusID           string          `db:"bonus_id"`
	RegistrationID    string          `db:"registration_id"`
	ReferrerAccountID string          `db:"referrer_account_id"`
	RefereeAccountID  string          `db:"referee_account_id"`
	ActionType        string          `db:"action_type"`
	ActionID          string          `db:"action_id"`
	AmountMicro       int64           `db:"amount_micro"`
	ReferrerBps       int64           `db:"referrer_bps"`
	SourceChargeMicro int64           `db:"source_charge_micro"`
	Status            string          `db:"status"`
	SettleAfter       time.Time       `db:"settle_after"`
	SettledAt         sql.NullTime    `db:"settled_at"`
	ClawedBackAt      sql.NullTime    `db:"clawed_back_at"`
	ClawbackReason    string          `db:"clawback_reason"`
	RiskScore         sql.NullFloat64 `db:"risk_score"`
	FlagReason        string          `db:"flag_reason"`
	ReviewedBy        string          `db:"reviewed_by"`
	CreatedAt         time.Time       `db:"created_at"`
}

// BonusTotal is one status row of a referrer's aggregate.
type BonusTotal struct {
	Status      string `db:"status"`
	Count       int64  `db:"count"`
	AmountMicro int64  `db:"amount_micro"`
}

type PayoutRequest struct {
	PayoutID      string       `db:"payout_id"`
	AccountID     string       `db:"account_id"`
	AmountMicro   int64        `db:"amount_micro"`
	FeeMicro      int64        `db:"fee_micro"`
	NetMicro      int64        `db:"net_micro"`
	Currency      string       `db:"currency"`
	PayoutAddress string       `db:"payout_address"`
	Status        string       `db:"status"`
	FailureReason string       `db:"failure_reason"`
	CreatedAt     time.Time    `db:"created_at"`
	ApprovedAt    sql.NullTime `db:"approved_at"`
	CompletedAt   sql.NullTime `db:"completed_at"`
	FailedAt      sql.NullTime `db:"failed_at"`
}
