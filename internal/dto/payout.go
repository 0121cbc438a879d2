package dto

import (
	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/utils"
)

// CreatePayoutRequest asks for a withdrawal of settled earnings.
type CreatePayoutRequest struct {
	AmountMicro   int64  `json:"amountMicro"`
	PayoutAddress string `json:"payoutAddress" binding:"required,max=256"`
	Currency      string `json:"currency" binding:"required,len=3,alpha"`
}

func (r CreatePayoutRequest) ToInput(accountID string) domain.PayoutInput {
	return domain.PayoutInput{
		AccountID:     accountID,
		AmountMicro:   r.AmountMicro,
		PayoutAddress: r.PayoutAddress,
		Currency:      r.Currency,
	}
}

// FailPayoutRequest records why the processor rejected a payout.
type FailPayoutRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PayoutResponse is a payout with display amounts.
type PayoutResponse struct {
	domain.PayoutRequest
	Amount string `json:"amount"`
	Net    string `json:"net"`
}

func ToPayoutResponse(p *domain.PayoutRequest) PayoutResponse {
	return PayoutResponse{
		PayoutRequest: *p,
		Amount:        utils.FormatMicroUSD(p.AmountMicro),
		Net:           utils.FormatMicroUSD(p.NetMicro),
	}
}
