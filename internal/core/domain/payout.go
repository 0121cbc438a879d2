package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutApproved  PayoutStatus = "approved"
	PayoutCompleted PayoutStatus = "completed"
	PayoutFailed    PayoutStatus = "failed"
)

// OpenPayoutStatuses hold escrow: their amount is excluded from the withdrawable balance.
var OpenPayoutStatuses = []PayoutStatus{PayoutPending, PayoutApproved}

// CountedPayoutStatuses are every status except failed. They count toward the
// withdrawable deduction, the rate limit and lifetime KYC totals.
var CountedPayoutStatuses = []PayoutStatus{PayoutPending, PayoutApproved, PayoutCompleted}

// PayoutInput is a withdrawal request from an account's settled earnings.
type PayoutInput struct {
	AccountID     string `validate:"required"`
	AmountMicro   int64  `validate:"gt=0"`
	PayoutAddress string `validate:"required,max=256"`
	Currency      string `validate:"required,len=3,alpha"`
}

// PayoutRequest is an escrowed withdrawal handed to the external payment processor.
type PayoutRequest struct {
	PayoutID      string       `json:"payoutID"`
	AccountID     string       `json:"accountID"`
	AmountMicro   int64        `json:"amountMicro"`
	FeeMicro      int64        `json:"feeMicro"`
	NetMicro      int64        `json:"netMicro"`
	Currency      string       `json:"currency"`
	PayoutAddress string       `json:"payoutAddress"`
	Status        PayoutStatus `json:"status"`
	FailureReason string       `json:"failureReason,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	ApprovedAt    *time.Time   `json:"approvedAt,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	FailedAt      *time.Time   `json:"failedAt,omitempty"`
}

// Open reports whether the payout can still complete or fail.
func (p PayoutRequest) Open() bool {
	return p.Status == PayoutPending || p.Status == PayoutApproved
}

// KYCThreshold is the lifetime payout amount at which Level becomes required.
type KYCThreshold struct {
	Level          KYCLevel
	ThresholdMicro int64
}

// KYCStatus reports how close an account is to the next verification requirement.
type KYCStatus struct {
	AccountID             string          `json:"accountID"`
	KYCLevel              KYCLevel        `json:"kycLevel"`
	CumulativePayoutMicro int64           `json:"cumulativePayoutMicro"`
	NextThresholdMicro    *int64          `json:"nextThresholdMicro,omitempty"`
	NextRequiredLevel     KYCLevel        `json:"nextRequiredLevel,omitempty"`
	ProgressPercent       decimal.Decimal `json:"progressPercent"`
	Warning               string          `json:"warning,omitempty"`
}
