package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestApplyBps(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{name: "ten percent of a dollar", amount: domain.USD(1), bps: 1000, want: domain.Cents(10)},
		{name: "one percent fee", amount: domain.USD(85), bps: 100, want: domain.Cents(85)},
		{name: "truncates toward zero", amount: 9, bps: 1000, want: 0},
		{name: "large amounts do not overflow", amount: 9_000_000_000_000_000, bps: 5000, want: 4_500_000_000_000_000},
		{name: "zero bps", amount: domain.USD(5), bps: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ApplyBps(tt.amount, tt.bps))
		})
	}
}

func TestMicroToDecimal(t *testing.T) {
	assert.Equal(t, "12.345678", domain.MicroToDecimal(12_345_678).String())
	assert.Equal(t, "0.10", domain.MicroToDecimal(domain.Cents(10)).StringFixed(2))
}

func TestKYCLevel_Satisfies(t *testing.T) {
	tests := []struct {
		level    domain.KYCLevel
		required domain.KYCLevel
		want     bool
	}{
		{domain.KYCNone, domain.KYCNone, true},
		{domain.KYCNone, domain.KYCBasic, false},
		{domain.KYCBasic, domain.KYCBasic, true},
		{domain.KYCBasic, domain.KYCEnhanced, false},
		{domain.KYCEnhanced, domain.KYCBasic, true},
		{domain.KYCVerified, domain.KYCEnhanced, true},
		{domain.KYCVerified, "unknown", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.level)+"->"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Satisfies(tt.required))
		})
	}
	assert.False(t, domain.KYCLevel("gold").Valid())
}

func TestReferralCode_ExpiredAndExhausted(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)
	two := 2

	code := domain.ReferralCode{ExpiresAt: &expires, MaxUses: &two, UseCount: 1}
	assert.False(t, code.Expired(now))
	assert.True(t, code.Expired(expires))
	assert.False(t, code.Exhausted())

	code.UseCount = 2
	assert.True(t, code.Exhausted())

	unlimited := domain.ReferralCode{UseCount: 1_000_000}
	assert.False(t, unlimited.Exhausted())
	assert.False(t, unlimited.Expired(now.AddDate(50, 0, 0)))
}

func TestReferralRegistration_Windows(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := domain.ReferralRegistration{CreatedAt: created, AttributionExpiresAt: created.AddDate(0, 12, 0)}

	assert.True(t, reg.WithinGrace(created.Add(23*time.Hour), 24*time.Hour))
	assert.True(t, reg.WithinGrace(created.Add(24*time.Hour), 24*time.Hour))
	assert.False(t, reg.WithinGrace(created.Add(25*time.Hour), 24*time.Hour))

	assert.True(t, reg.IsAttributionActive(created.AddDate(0, 11, 30)))
	assert.False(t, reg.IsAttributionActive(reg.AttributionExpiresAt))
}

func TestReservation_CloneDoesNotShareAllocations(t *testing.T) {
	actual := int64(3)
	r := domain.Reservation{Allocations: []domain.Allocation{{LotID: "l1", AmountMicro: 5}}, ActualMicro: &actual}
	cp := r.Clone()
	cp.Allocations[0].AmountMicro = 1
	*cp.ActualMicro = 9

	assert.Equal(t, int64(5), r.Allocations[0].AmountMicro)
	assert.Equal(t, int64(3), *r.ActualMicro)
}

func TestBalance_Pool(t *testing.T) {
	b := domain.Balance{Pools: []domain.PoolBalance{domain.NewPoolBalance("ads", 10, 4)}}
	assert.Equal(t, int64(6), b.Pool("ads").BalanceMicro)
	assert.Equal(t, domain.NewPoolBalance("general", 0, 0), b.Pool("general"))
	assert.Equal(t, domain.DefaultPoolID, domain.PoolOrDefault(""))
	assert.True(t, domain.EntryGrant.Mintable())
	assert.False(t, domain.EntryRefund.Mintable())
}
