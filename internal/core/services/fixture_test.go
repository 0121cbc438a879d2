package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/core/services"
	"github.com/SscSPs/community_billing/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// testClock is a manually advanced wall clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// billingSuite wires every service against a fresh in-memory store.
type billingSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *testClock
	policy services.Policy
	store  *memory.Store
	svc    *portssvc.ServiceContainer
}

func (suite *billingSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.clock = &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	suite.policy = services.DefaultPolicy()
	suite.rebuild()
}

// rebuild recreates the services with the current suite.policy against a new store.
func (suite *billingSuite) rebuild() {
	suite.store = memory.NewStore()
	suite.svc = services.NewServiceContainer(suite.store,
		services.WithClock(suite.clock.Now),
		services.WithPolicy(suite.policy),
	)
}

func (suite *billingSuite) newAccount() *domain.Account {
	account, err := suite.svc.Ledger.EnsureAccount(suite.ctx, domain.EntityPerson, uuid.NewString())
	suite.Require().NoError(err)
	return account
}

// bindReferral creates a referrer and a referee bound to the referrer's code.
func (suite *billingSuite) bindReferral() (referrer, referee *domain.Account) {
	referrer = suite.newAccount()
	referee = suite.newAccount()
	code, err := suite.svc.Referral.CreateCode(suite.ctx, referrer.AccountID, domain.CreateCodeInput{})
	suite.Require().NoError(err)
	_, err = suite.svc.Referral.Register(suite.ctx, referee.AccountID, code.Code)
	suite.Require().NoError(err)
	return referrer, referee
}

// earnSettled issues a purchase bonus for the referee and settles it.
func (suite *billingSuite) earnSettled(referee *domain.Account, purchaseMicro int64) *domain.ReferralBonus {
	bonus, err := suite.svc.Earnings.OnQualifyingAction(suite.ctx, referee.AccountID, domain.QualifyingAction{
		Type:        domain.ActionPurchase,
		ActionID:    uuid.NewString(),
		AmountMicro: purchaseMicro,
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(bonus)
	suite.clock.Advance(suite.policy.SettlementDelay + time.Hour)
	_, err = suite.svc.Earnings.SettleEarnings(suite.ctx, nil)
	suite.Require().NoError(err)
	return bonus
}

func (suite *billingSuite) requireCode(err error, code apperrors.Code) {
	suite.T().Helper()
	suite.Require().Error(err)
	appErr := apperrors.AsAppError(err)
	suite.Equal(code, appErr.Code, "unexpected error: %v", err)
}
