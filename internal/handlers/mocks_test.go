package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) EnsureAccount(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Account, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) MintLot(ctx context.Context, accountID string, amountMicro int64, entryType domain.EntryType, in domain.MintLotInput) (*domain.Lot, error) {
	args := m.Called(ctx, accountID, amountMicro, entryType, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lot), args.Error(1)
}

func (m *MockLedgerService) Reserve(ctx context.Context, accountID, poolID string, amountMicro int64) (*domain.Reservation, error) {
	args := m.Called(ctx, accountID, poolID, amountMicro)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockLedgerService) Finalize(ctx context.Context, reservationID string, actualMicro int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID, actualMicro)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockLedgerService) Release(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockLedgerService) Refund(ctx context.Context, lotID string, amountMicro int64, in domain.RefundInput) (*domain.RefundResult, error) {
	args := m.Called(ctx, lotID, amountMicro, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockLedgerService) GetHistory(ctx context.Context, accountID string, query domain.HistoryQuery) (*domain.HistoryPage, error) {
	args := m.Called(ctx, accountID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryPage), args.Error(1)
}

func (m *MockLedgerService) ListDebts(ctx context.Context, accountID string) ([]domain.Debt, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Debt), args.Error(1)
}

func (m *MockLedgerService) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

// --- Mock ReferralService ---
type MockReferralService struct {
	mock.Mock
}

func (m *MockReferralService) CreateCode(ctx context.Context, accountID string, in domain.CreateCodeInput) (*domain.ReferralCode, error) {
	args := m.Called(ctx, accountID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralCode), args.Error(1)
}

func (m *MockReferralService) RevokeCode(ctx context.Context, codeID, revokedBy string) (*domain.ReferralCode, error) {
	args := m.Called(ctx, codeID, revokedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralCode), args.Error(1)
}

func (m *MockReferralService) Register(ctx context.Context, refereeAccountID, code string) (*domain.ReferralRegistration, error) {
	args := m.Called(ctx, refereeAccountID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralRegistration), args.Error(1)
}

func (m *MockReferralService) GetRegistration(ctx context.Context, refereeAccountID string) (*domain.ReferralRegistration, error) {
	args := m.Called(ctx, refereeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralRegistration), args.Error(1)
}

func (m *MockReferralService) ListAttributionEvents(ctx context.Context, refereeAccountID string) ([]domain.AttributionEvent, error) {
	args := m.Called(ctx, refereeAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttributionEvent), args.Error(1)
}

func (m *MockReferralService) IsAttributionActive(registration domain.ReferralRegistration, asOf time.Time) bool {
	return registration.IsAttributionActive(asOf)
}

// --- Mock EarningsService ---
type MockEarningsService struct {
	mock.Mock
}

func (m *MockEarningsService) OnQualifyingAction(ctx context.Context, refereeAccountID string, action domain.QualifyingAction) (*domain.ReferralBonus, error) {
	args := m.Called(ctx, refereeAccountID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralBonus), args.Error(1)
}

func (m *MockEarningsService) SettleEarnings(ctx context.Context, asOf *time.Time) ([]domain.ReferralBonus, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferralBonus), args.Error(1)
}

func (m *MockEarningsService) ClawbackEarning(ctx context.Context, bonusID, reason string) (*domain.ReferralBonus, error) {
	args := m.Called(ctx, bonusID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralBonus), args.Error(1)
}

func (m *MockEarningsService) ReviewEarning(ctx context.Context, bonusID, reviewedBy string) (*domain.ReferralBonus, error) {
	args := m.Called(ctx, bonusID, reviewedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralBonus), args.Error(1)
}

func (m *MockEarningsService) GetBonus(ctx context.Context, bonusID string) (*domain.ReferralBonus, error) {
	args := m.Called(ctx, bonusID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralBonus), args.Error(1)
}

func (m *MockEarningsService) GetWithdrawableBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEarningsService) GetEarningsSummary(ctx context.Context, accountID string) (*domain.EarningsSummary, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarningsSummary), args.Error(1)
}

// --- Mock PayoutService ---
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) RequestPayout(ctx context.Context, in domain.PayoutInput) (*domain.PayoutRequest, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutRequest), args.Error(1)
}

func (m *MockPayoutService) CompletePayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutRequest), args.Error(1)
}

func (m *MockPayoutService) FailPayout(ctx context.Context, payoutID, reason string) (*domain.PayoutRequest, error) {
	args := m.Called(ctx, payoutID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutRequest), args.Error(1)
}

func (m *MockPayoutService) GetPayout(ctx context.Context, payoutID string) (*domain.PayoutRequest, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutRequest), args.Error(1)
}

func (m *MockPayoutService) GetKYCStatus(ctx context.Context, accountID string) (*domain.KYCStatus, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KYCStatus), args.Error(1)
}

func (m *MockPayoutService) UpdateKYCLevel(ctx context.Context, accountID string, level domain.KYCLevel) (*domain.Account, error) {
	args := m.Called(ctx, accountID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// Ensure mocks implement the interfaces
var (
	_ portssvc.LedgerSvcFacade   = (*MockLedgerService)(nil)
	_ portssvc.ReferralSvcFacade = (*MockReferralService)(nil)
	_ portssvc.EarningsSvcFacade = (*MockEarningsService)(nil)
	_ portssvc.PayoutSvcFacade   = (*MockPayoutService)(nil)
)
