package dto

import (
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/utils"
)

// EnsureAccountRequest names the platform entity whose billing account is wanted.
type EnsureAccountRequest struct {
	EntityType domain.EntityType `json:"entityType" binding:"required,oneof=person community"`
	EntityID   string            `json:"entityID" binding:"required,max=200"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID  string            `json:"accountID"`
	EntityType domain.EntityType `json:"entityType"`
	EntityID   string            `json:"entityID"`
	KYCLevel   domain.KYCLevel   `json:"kycLevel"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:  acc.AccountID,
		EntityType: acc.EntityType,
		EntityID:   acc.EntityID,
		KYCLevel:   acc.KYCLevel,
		CreatedAt:  acc.CreatedAt,
		UpdatedAt:  acc.UpdatedAt,
	}
}

// UpdateKYCLevelRequest carries the tier reported by the KYC pipeline.
type UpdateKYCLevelRequest struct {
	KYCLevel domain.KYCLevel `json:"kycLevel" binding:"required,oneof=none basic enhanced verified"`
}

// KYCStatusResponse is domain.KYCStatus with display amounts.
type KYCStatusResponse struct {
	AccountID             string          `json:"accountID"`
	KYCLevel              domain.KYCLevel `json:"kycLevel"`
	CumulativePayoutMicro int64           `json:"cumulativePayoutMicro"`
	CumulativePayout      string          `json:"cumulativePayout"`
	NextThresholdMicro    *int64          `json:"nextThresholdMicro,omitempty"`
	NextThreshold         string          `json:"nextThreshold,omitempty"`
	NextRequiredLevel     domain.KYCLevel `json:"nextRequiredLevel,omitempty"`
	ProgressPercent       string          `json:"progressPercent"`
	Warning               string          `json:"warning,omitempty"`
}

func ToKYCStatusResponse(st *domain.KYCStatus) KYCStatusResponse {
	res := KYCStatusResponse{
		AccountID:             st.AccountID,
		KYCLevel:              st.KYCLevel,
		CumulativePayoutMicro: st.CumulativePayoutMicro,
		CumulativePayout:      utils.FormatMicroUSD(st.CumulativePayoutMicro),
		NextThresholdMicro:    st.NextThresholdMicro,
		NextRequiredLevel:     st.NextRequiredLevel,
		ProgressPercent:       utils.FormatWithPrecision(st.ProgressPercent, 2),
		Warning:               st.Warning,
	}
	if st.NextThresholdMicro != nil {
		res.NextThreshold = utils.FormatMicroUSD(*st.NextThresholdMicro)
	}
	return res
}
