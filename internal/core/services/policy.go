package services

import (
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
)

// Policy holds the business constants of the billing core.
type Policy struct {
	// Referral attribution
	ReferralGraceWindow    time.Duration
	AttributionTTLMonths   int
	CodeGenerationAttempts int

	// Bonuses
	SettlementDelay       time.Duration
	ReferrerBps           int64
	MaxBonusesPerReferrer int
	ActionFloors          map[domain.ActionType]int64
	ReviewRiskScore       float64

	// Payouts
	PayoutMinimumMicro    int64
	PayoutRateLimitWindow time.Duration
	PayoutFeeBps          int64
	KYCThresholds         []domain.KYCThreshold // ascending by amount
	KYCWarningPercent     int64

	// History paging
	HistoryDefaultLimit int
	HistoryMaxLimit     int
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		ReferralGraceWindow:    24 * time.Hour,
		AttributionTTLMonths:   12,
		CodeGenerationAttempts: 5,

		SettlementDelay:       48 * time.Hour,
		ReferrerBps:           1000,
		MaxBonusesPerReferrer: 500,
		ActionFloors: map[domain.ActionType]int64{
			domain.ActionPurchase:          domain.USD(1),
			domain.ActionSubscription:      domain.USD(1),
			domain.ActionCommunityCreation: domain.Cents(10),
		},
		ReviewRiskScore: 0.8,

		PayoutMinimumMicro:    domain.USD(10),
		PayoutRateLimitWindow: 24 * time.Hour,
		PayoutFeeBps:          100,
		KYCThresholds: []domain.KYCThreshold{
			{Level: domain.KYCBasic, ThresholdMicro: domain.USD(100)},
			{Level: domain.KYCEnhanced, ThresholdMicro: domain.USD(1000)},
		},
		KYCWarningPercent: 80,

		HistoryDefaultLimit: 50,
		HistoryMaxLimit:     200,
	}
}

// ActionFloor returns the minimum qualifying amount of an action type.
// Unknown types never qualify.
func (p Policy) ActionFloor(t domain.ActionType) (int64, bool) {
	floor, ok := p.ActionFloors[t]
	return floor, ok
}

// RequiredKYCLevel returns the tier needed once lifetime payouts reach lifetimeMicro.
func (p Policy) RequiredKYCLevel(lifetimeMicro int64) domain.KYCLevel {
	required := domain.KYCNone
	for _, t := range p.KYCThresholds {
		if lifetimeMicro >= t.ThresholdMicro {
			required = t.Level
		}
	}
	return required
}

// NextKYCThreshold returns the first threshold the given level does not satisfy.
func (p Policy) NextKYCThreshold(level domain.KYCLevel) (domain.KYCThreshold, bool) {
	for _, t := range p.KYCThresholds {
		if !level.Satisfies(t.Level) {
			return t, true
		}
	}
	return domain.KYCThreshold{}, false
}

// AttributionExpiry returns when a binding made at createdAt stops earning bonuses.
func (p Policy) AttributionExpiry(createdAt time.Time) time.Time {
	return createdAt.AddDate(0, p.AttributionTTLMonths, 0)
}

func (p Policy) historyLimit(requested int) int {
	if requested <= 0 {
		return p.HistoryDefaultLimit
	}
	if requested > p.HistoryMaxLimit {
		return p.HistoryMaxLimit
	}
	return requested
}
