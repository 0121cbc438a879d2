package domain

import "time"

// ActionType names a referee milestone that can earn the referrer a bonus.
type ActionType string

const (
	ActionPurchase          ActionType = "purchase"
	ActionSubscription      ActionType = "subscription"
	ActionCommunityCreation ActionType = "community_creation"
)

type BonusStatus string

const (
	BonusPending    BonusStatus = "pending"
	BonusSettled    BonusStatus = "settled"
	BonusClawedBack BonusStatus = "clawed_back"
)

// QualifyingAction is a referee event reported by the caller.
type QualifyingAction struct {
	Type        ActionType `validate:"required"`
	ActionID    string     `validate:"required,max=200"`
	AmountMicro int64      `validate:"gte=0"`
	RiskScore   *float64   `validate:"omitempty,gte=0,lte=1"`
}

// ReferralBonus is the referrer's earning from one qualifying action.
type ReferralBonus struct {
	BonusID           string      `json:"bonusID"`
	RegistrationID    string      `json:"registrationID"`
	ReferrerAccountID string      `json:"referrerAccountID"`
	RefereeAccountID  string      `json:"refereeAccountID"`
	ActionType        ActionType  `json:"actionType"`
	ActionID          string      `json:"actionID"`
	AmountMicro       int64       `json:"amountMicro"`
	ReferrerBps       int64       `json:"referrerBps"`
	SourceChargeMicro int64       `json:"sourceChargeMicro"`
	Status            BonusStatus `json:"status"`
	SettleAfter       time.Time   `json:"settleAfter"`
	SettledAt         *time.Time  `json:"settledAt,omitempty"`
	ClawedBackAt      *time.Time  `json:"clawedBackAt,omitempty"`
	ClawbackReason    string      `json:"clawbackReason,omitempty"`
	RiskScore         *float64    `json:"riskScore,omitempty"`
	FlagReason        string      `json:"flagReason,omitempty"`
	ReviewedBy        string      `json:"reviewedBy,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// BonusTotals aggregates a referrer's bonuses in one status.
type BonusTotals struct {
	Count       int   `json:"count"`
	AmountMicro int64 `json:"amountMicro"`
}

// EarningsSummary is a referrer's bonus totals by status plus the withdrawable view.
type EarningsSummary struct {
	AccountID         string      `json:"accountID"`
	Pending           BonusTotals `json:"pending"`
	Settled           BonusTotals `json:"settled"`
	ClawedBack        BonusTotals `json:"clawedBack"`
	EscrowedMicro     int64       `json:"escrowedMicro"`
	PaidOutMicro      int64       `json:"paidOutMicro"`
	WithdrawableMicro int64       `json:"withdrawableMicro"`
}
