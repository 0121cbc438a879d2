package dto

import (
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/utils"
)

// QualifyingActionRequest reports a referee milestone.
type QualifyingActionRequest struct {
	ActionType  domain.ActionType `json:"actionType" binding:"required"`
	ActionID    string            `json:"actionID" binding:"required,max=200"`
	AmountMicro int64             `json:"amountMicro" binding:"gte=0"`
	RiskScore   *float64          `json:"riskScore" binding:"omitempty,gte=0,lte=1"`
}

func (r QualifyingActionRequest) ToAction() domain.QualifyingAction {
	return domain.QualifyingAction{
		Type:        r.ActionType,
		ActionID:    r.ActionID,
		AmountMicro: r.AmountMicro,
		RiskScore:   r.RiskScore,
	}
}

// QualifyingActionResponse reports whether a bonus was issued.
type QualifyingActionResponse struct {
	Qualified bool           `json:"qualified"`
	Bonus     *BonusResponse `json:"bonus,omitempty"`
}

// BonusResponse is a bonus with a display amount.
type BonusResponse struct {
	domain.ReferralBonus
	Amount string `json:"amount"`
}

func ToBonusResponse(b *domain.ReferralBonus) BonusResponse {
	return BonusResponse{ReferralBonus: *b, Amount: utils.FormatMicroUSD(b.AmountMicro)}
}

// SettleEarningsRequest optionally pins the settlement instant.
type SettleEarningsRequest struct {
	AsOf *time.Time `json:"asOf"`
}

// SettleEarningsResponse lists the bonuses settled by one sweep.
type SettleEarningsResponse struct {
	SettledCount int             `json:"settledCount"`
	Bonuses      []BonusResponse `json:"bonuses"`
}

func ToSettleEarningsResponse(bonuses []domain.ReferralBonus) SettleEarningsResponse {
	res := SettleEarningsResponse{SettledCount: len(bonuses), Bonuses: make([]BonusResponse, len(bonuses))}
	for i := range bonuses {
		res.Bonuses[i] = ToBonusResponse(&bonuses[i])
	}
	return res
}

// ClawbackRequest reverses a bonus.
type ClawbackRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// EarningsSummaryResponse is domain.EarningsSummary with display amounts.
type EarningsSummaryResponse struct {
	domain.EarningsSummary
	Settled      string `json:"settledAmount"`
	Withdrawable string `json:"withdrawable"`
}

func ToEarningsSummaryResponse(s *domain.EarningsSummary) EarningsSummaryResponse {
	return EarningsSummaryResponse{
		EarningsSummary: *s,
		Settled:         utils.FormatMicroUSD(s.Settled.AmountMicro),
		Withdrawable:    utils.FormatMicroUSD(s.WithdrawableMicro),
	}
}
