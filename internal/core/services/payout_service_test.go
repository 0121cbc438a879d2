package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/stretchr/testify/suite"
)

type PayoutServiceTestSuite struct {
	billingSuite
}

func TestPayoutServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PayoutServiceTestSuite))
}

func (suite *PayoutServiceTestSuite) request(accountID string, amount int64) (*domain.PayoutRequest, error) {
	return suite.svc.Payout.RequestPayout(suite.ctx, domain.PayoutInput{
		AccountID:     accountID,
		AmountMicro:   amount,
		PayoutAddress: "acct_1Ab2Cd",
		Currency:      "usd",
	})
}

func (suite *PayoutServiceTestSuite) withdrawable(accountID string) int64 {
	w, err := suite.svc.Earnings.GetWithdrawableBalance(suite.ctx, accountID)
	suite.Require().NoError(err)
	return w
}

func (suite *PayoutServiceTestSuite) TestRequestPayout_EscrowsAmount() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(200))
	suite.Equal(domain.USD(20), suite.withdrawable(referrer.AccountID))

	payout, err := suite.request(referrer.AccountID, domain.USD(10))
	suite.Require().NoError(err)
	suite.Equal(domain.PayoutApproved, payout.Status)
	suite.Equal("USD", payout.Currency)
	suite.Equal(domain.Cents(10), payout.FeeMicro)
	suite.Equal(domain.USD(10)-domain.Cents(10), payout.NetMicro)
	suite.NotNil(payout.ApprovedAt)

	suite.Equal(domain.USD(10), suite.withdrawable(referrer.AccountID))
	summary, err := suite.svc.Earnings.GetEarningsSummary(suite.ctx, referrer.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.USD(20), summary.Settled.AmountMicro)
	suite.Equal(domain.USD(10), summary.EscrowedMicro)
}

func (suite *PayoutServiceTestSuite) TestRequestPayout_Rejections() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(200))

	_, err := suite.request(referrer.AccountID, domain.USD(5))
	suite.ErrorIs(err, apperrors.ErrMinimumNotMet)

	_, err = suite.request(referrer.AccountID, domain.USD(30))
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)

	_, err = suite.svc.Payout.RequestPayout(suite.ctx, domain.PayoutInput{
		AccountID: referrer.AccountID, AmountMicro: domain.USD(10), PayoutAddress: "x", Currency: "US",
	})
	suite.requireCode(err, apperrors.CodeValidation)

	_, err = suite.request("missing", domain.USD(10))
	suite.requireCode(err, apperrors.CodeNotFound)
}

func (suite *PayoutServiceTestSuite) TestRequestPayout_RateLimited() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(500))

	_, err := suite.request(referrer.AccountID, domain.USD(10))
	suite.Require().NoError(err)

	suite.clock.Advance(23 * time.Hour)
	_, err = suite.request(referrer.AccountID, domain.USD(10))
	suite.ErrorIs(err, apperrors.ErrRateLimited)

	suite.clock.Advance(2 * time.Hour)
	_, err = suite.request(referrer.AccountID, domain.USD(10))
	suite.NoError(err)
}

func (suite *PayoutServiceTestSuite) TestRequestPayout_KYCGate() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(2350))

	_, err := suite.request(referrer.AccountID, domain.USD(85))
	suite.Require().NoError(err)
	suite.clock.Advance(25 * time.Hour)

	_, err = suite.request(referrer.AccountID, domain.USD(150))
	suite.ErrorIs(err, apperrors.ErrKYCRequired)
	level, ok := apperrors.RequiredKYCLevel(err)
	suite.True(ok)
	suite.Equal(string(domain.KYCBasic), level)

	_, err = suite.svc.Payout.UpdateKYCLevel(suite.ctx, referrer.AccountID, domain.KYCBasic)
	suite.Require().NoError(err)
	payout, err := suite.request(referrer.AccountID, domain.USD(150))
	suite.Require().NoError(err)
	suite.Equal(domain.PayoutApproved, payout.Status)
}

func (suite *PayoutServiceTestSuite) TestRequestPayout_VerifiedAlwaysPasses() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(20000))

	_, err := suite.svc.Payout.UpdateKYCLevel(suite.ctx, referrer.AccountID, domain.KYCVerified)
	suite.Require().NoError(err)
	_, err = suite.request(referrer.AccountID, domain.USD(1500))
	suite.NoError(err)
}

func (suite *PayoutServiceTestSuite) TestPayoutTransitions() {
	referrer, referee := suite.bindReferral()
	suite.earnSettled(referee, domain.USD(500))

	payout, err := suite.request(referrer.AccountID, domain.USD(20))
	suite.Require().NoError(err)

	_, err = suite.svc.Payout.FailPayout(suite.ctx, payout.PayoutID, " ")
	suite.requireCode(err, apperrors.CodeValidation)

	failed, err := suite.svc.Payout.FailPayout(suite.ctx, payout.PayoutID, "bank rejected")
	suite.Require().NoError(err)
	suite.Equal(domain.PayoutFailed, failed.Status)
	suite.NotNil(failed.FailedAt)
	suite.Equal(domain.USD(50), suite.withdrawable(referrer.AccountID), "failure releases escrow")

	_, err = suite.svc.Payout.CompletePayout(suite.ctx, payout.PayoutID)
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	// Failed payouts do not count toward the rate limit.
	second, err := suite.request(referrer.AccountID, domain.USD(20))
	suite.Require().NoError(err)
	completed, err := suite.svc.Payout.CompletePayout(suite.ctx, second.PayoutID)
	suite.Require().NoError(err)
	suite.Equal(domain.PayoutCompleted, completed.Status)
	suite.Equal(domain.USD(30), suite.withdrawable(referrer.AccountID))

	got, err := suite.svc.Payout.GetPayout(suite.ctx, second.PayoutID)
	suite.Require().NoError(err)
	suite.Equal(domain.PayoutCompleted, got.Status)

	_, err = suite.svc.Payout.GetPayout(suite.ctx, "missing")
	suite.requireCode(err, apperrors.CodeNotFound)
}

func (suite *PayoutServiceTestSuite) TestGetKYCStatus() {
	referrer, referee := suite.bindReferral()

	status, err := suite.svc.Payout.GetKYCStatus(suite.ctx, referrer.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.KYCNone, status.KYCLevel)
	suite.Require().NotNil(status.NextThresholdMicro)
	suite.Equal(domain.USD(100), *status.NextThresholdMicro)
	suite.Equal(domain.KYCBasic, status.NextRequiredLevel)
	suite.True(status.ProgressPercent.IsZero())
	suite.Empty(status.Warning)

	suite.earnSettled(referee, domain.USD(1000))
	_, err = suite.request(referrer.AccountID, domain.USD(85))
	suite.Require().NoError(err)

	status, err = suite.svc.Payout.GetKYCStatus(suite.ctx, referrer.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.USD(85), status.CumulativePayoutMicro)
	suite.Equal("85.00", status.ProgressPercent.StringFixed(2))
	suite.Contains(status.Warning, string(domain.KYCBasic))

	_, err = suite.svc.Payout.UpdateKYCLevel(suite.ctx, referrer.AccountID, domain.KYCEnhanced)
	suite.Require().NoError(err)
	status, err = suite.svc.Payout.GetKYCStatus(suite.ctx, referrer.AccountID)
	suite.Require().NoError(err)
	suite.Nil(status.NextThresholdMicro)
	suite.Empty(status.Warning)
}

func (suite *PayoutServiceTestSuite) TestUpdateKYCLevel_Validation() {
	account := suite.newAccount()

	_, err := suite.svc.Payout.UpdateKYCLevel(suite.ctx, account.AccountID, "platinum")
	suite.requireCode(err, apperrors.CodeValidation)

	_, err = suite.svc.Payout.UpdateKYCLevel(suite.ctx, "missing", domain.KYCBasic)
	suite.requireCode(err, apperrors.CodeNotFound)

	updated, err := suite.svc.Payout.UpdateKYCLevel(suite.ctx, account.AccountID, domain.KYCBasic)
	suite.Require().NoError(err)
	suite.Equal(domain.KYCBasic, updated.KYCLevel)
}
