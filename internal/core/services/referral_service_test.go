package services_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/core/services"
	"github.com/SscSPs/community_billing/internal/repositories/memory"
	"github.com/stretchr/testify/suite"
)

type ReferralServiceTestSuite struct {
	billingSuite
}

func TestReferralServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReferralServiceTestSuite))
}

func (suite *ReferralServiceTestSuite) createCode(accountID string, in domain.CreateCodeInput) *domain.ReferralCode {
	code, err := suite.svc.Referral.CreateCode(suite.ctx, accountID, in)
	suite.Require().NoError(err)
	return code
}

func (suite *ReferralServiceTestSuite) TestCreateCode_ReturnsExistingActiveCode() {
	referrer := suite.newAccount()

	first := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})
	second := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})

	suite.Equal(first.CodeID, second.CodeID)
	suite.Len(first.Code, domain.ReferralCodeLength)
	for _, ch := range first.Code {
		suite.True(strings.ContainsRune(domain.ReferralCodeAlphabet, ch), "unexpected character %q", ch)
	}
	suite.Equal(domain.CodeActive, first.Status)
}

func (suite *ReferralServiceTestSuite) TestCreateCode_RegeneratesOnCollision() {
	values := []string{"AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
	next := 0
	suite.svc = services.NewServiceContainer(memory.NewStore(),
		services.WithClock(suite.clock.Now),
		services.WithCodeGenerator(func() (string, error) {
			v := values[next]
			next++
			return v, nil
		}),
	)

	a := suite.createCode(suite.newAccount().AccountID, domain.CreateCodeInput{})
	b := suite.createCode(suite.newAccount().AccountID, domain.CreateCodeInput{})
	suite.Equal("AAAAAAAAAA", a.Code)
	suite.Equal("BBBBBBBBBB", b.Code)
}

func (suite *ReferralServiceTestSuite) TestCreateCode_Validation() {
	referrer := suite.newAccount()
	zero := 0
	past := suite.clock.Now().Add(-time.Minute)

	_, err := suite.svc.Referral.CreateCode(suite.ctx, referrer.AccountID, domain.CreateCodeInput{MaxUses: &zero})
	suite.requireCode(err, apperrors.CodeValidation)
	_, err = suite.svc.Referral.CreateCode(suite.ctx, referrer.AccountID, domain.CreateCodeInput{ExpiresAt: &past})
	suite.requireCode(err, apperrors.CodeValidation)
	_, err = suite.svc.Referral.CreateCode(suite.ctx, "missing", domain.CreateCodeInput{})
	suite.requireCode(err, apperrors.CodeNotFound)
}

func (suite *ReferralServiceTestSuite) TestRegister_Binds() {
	referrer := suite.newAccount()
	referee := suite.newAccount()
	code := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})

	reg, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, strings.ToLower(code.Code))
	suite.Require().NoError(err)
	suite.Equal(referrer.AccountID, reg.ReferrerAccountID)
	suite.Equal(code.CodeID, reg.CodeID)
	suite.Equal(reg.CreatedAt.AddDate(0, 12, 0), reg.AttributionExpiresAt)

	events, err := suite.svc.Referral.ListAttributionEvents(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal(domain.OutcomeBound, events[0].Outcome)

	again, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, code.Code)
	suite.Require().NoError(err)
	suite.Equal(reg.RegistrationID, again.RegistrationID)
	events, err = suite.svc.Referral.ListAttributionEvents(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)
	suite.Len(events, 1)
}

func (suite *ReferralServiceTestSuite) TestRegister_Rejections() {
	referrer := suite.newAccount()
	referee := suite.newAccount()
	code := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})

	_, err := suite.svc.Referral.Register(suite.ctx, referrer.AccountID, code.Code)
	suite.ErrorIs(err, apperrors.ErrSelfReferral)

	_, err = suite.svc.Referral.Register(suite.ctx, referee.AccountID, "NOSUCHCODE")
	suite.ErrorIs(err, apperrors.ErrInvalidCode)

	_, err = suite.svc.Referral.RevokeCode(suite.ctx, code.CodeID, "ops@example.com")
	suite.Require().NoError(err)
	_, err = suite.svc.Referral.Register(suite.ctx, referee.AccountID, code.Code)
	suite.ErrorIs(err, apperrors.ErrInvalidCode)

	_, err = suite.svc.Referral.GetRegistration(suite.ctx, referee.AccountID)
	suite.requireCode(err, apperrors.CodeNotFound)
}

func (suite *ReferralServiceTestSuite) TestRegister_ExpiredCode() {
	referrer := suite.newAccount()
	referee := suite.newAccount()
	expires := suite.clock.Now().Add(time.Hour)
	code := suite.createCode(referrer.AccountID, domain.CreateCodeInput{ExpiresAt: &expires})

	suite.clock.Advance(time.Hour)
	_, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, code.Code)
	suite.ErrorIs(err, apperrors.ErrCodeExpired)
}

func (suite *ReferralServiceTestSuite) TestRegister_MaxUses() {
	referrer := suite.newAccount()
	one := 1
	code := suite.createCode(referrer.AccountID, domain.CreateCodeInput{MaxUses: &one})

	_, err := suite.svc.Referral.Register(suite.ctx, suite.newAccount().AccountID, code.Code)
	suite.Require().NoError(err)
	_, err = suite.svc.Referral.Register(suite.ctx, suite.newAccount().AccountID, code.Code)
	suite.ErrorIs(err, apperrors.ErrMaxUsesReached)
}

func (suite *ReferralServiceTestSuite) TestRegister_RebindInsideGrace() {
	first := suite.newAccount()
	second := suite.newAccount()
	referee := suite.newAccount()
	firstCode := suite.createCode(first.AccountID, domain.CreateCodeInput{})
	secondCode := suite.createCode(second.AccountID, domain.CreateCodeInput{})

	original, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, firstCode.Code)
	suite.Require().NoError(err)

	suite.clock.Advance(23 * time.Hour)
	rebound, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, secondCode.Code)
	suite.Require().NoError(err)
	suite.Equal(second.AccountID, rebound.ReferrerAccountID)
	suite.Equal(original.RegistrationID, rebound.RegistrationID)
	suite.Equal(original.CreatedAt, rebound.CreatedAt)
	suite.NotNil(rebound.ReboundAt)

	events, err := suite.svc.Referral.ListAttributionEvents(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)
	suite.Equal(domain.OutcomeReboundGrace, events[1].Outcome)
	suite.Equal(first.AccountID, events[1].PreviousReferrerAccountID)

	// The use moves from the first code to the second.
	reused := suite.createCode(first.AccountID, domain.CreateCodeInput{})
	suite.Equal(0, reused.UseCount)
	target := suite.createCode(second.AccountID, domain.CreateCodeInput{})
	suite.Equal(secondCode.CodeID, target.CodeID)
	suite.Equal(1, target.UseCount)
}

func (suite *ReferralServiceTestSuite) TestRegister_RebindAfterGrace() {
	first := suite.newAccount()
	second := suite.newAccount()
	referee := suite.newAccount()
	firstCode := suite.createCode(first.AccountID, domain.CreateCodeInput{})
	secondCode := suite.createCode(second.AccountID, domain.CreateCodeInput{})

	_, err := suite.svc.Referral.Register(suite.ctx, referee.AccountID, firstCode.Code)
	suite.Require().NoError(err)

	suite.clock.Advance(25 * time.Hour)
	_, err = suite.svc.Referral.Register(suite.ctx, referee.AccountID, secondCode.Code)
	suite.ErrorIs(err, apperrors.ErrAlreadyBound)

	reg, err := suite.svc.Referral.GetRegistration(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)
	suite.Equal(first.AccountID, reg.ReferrerAccountID)
}

func (suite *ReferralServiceTestSuite) TestRegister_LockedByBonus() {
	referrer, referee := suite.bindReferral()
	other := suite.newAccount()
	otherCode := suite.createCode(other.AccountID, domain.CreateCodeInput{})

	_, err := suite.svc.Earnings.OnQualifyingAction(suite.ctx, referee.AccountID, domain.QualifyingAction{
		Type: domain.ActionPurchase, ActionID: "order-1", AmountMicro: domain.USD(20),
	})
	suite.Require().NoError(err)

	suite.clock.Advance(time.Hour)
	_, err = suite.svc.Referral.Register(suite.ctx, referee.AccountID, otherCode.Code)
	suite.ErrorIs(err, apperrors.ErrAttributionLocked)

	reg, err := suite.svc.Referral.GetRegistration(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)
	suite.Equal(referrer.AccountID, reg.ReferrerAccountID)
}

func (suite *ReferralServiceTestSuite) TestRegister_RebindRacingBonus() {
	for i := 0; i < 20; i++ {
		first, referee := suite.bindReferral()
		second := suite.newAccount()
		secondCode := suite.createCode(second.AccountID, domain.CreateCodeInput{})

		var (
			wg        sync.WaitGroup
			bonus     *domain.ReferralBonus
			bonusErr  error
			rebindErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			bonus, bonusErr = suite.svc.Earnings.OnQualifyingAction(suite.ctx, referee.AccountID, domain.QualifyingAction{
				Type: domain.ActionPurchase, ActionID: "order-1", AmountMicro: domain.USD(20),
			})
		}()
		go func() {
			defer wg.Done()
			_, rebindErr = suite.svc.Referral.Register(suite.ctx, referee.AccountID, secondCode.Code)
		}()
		wg.Wait()

		suite.Require().NoError(bonusErr)
		suite.Require().NotNil(bonus)
		reg, err := suite.svc.Referral.GetRegistration(suite.ctx, referee.AccountID)
		suite.Require().NoError(err)
		// Whichever commits first, the bonus belongs to the binding that stays.
		suite.Equal(reg.ReferrerAccountID, bonus.ReferrerAccountID)
		if rebindErr != nil {
			suite.ErrorIs(rebindErr, apperrors.ErrAttributionLocked)
			suite.Equal(first.AccountID, reg.ReferrerAccountID)
		} else {
			suite.Equal(second.AccountID, reg.ReferrerAccountID)
		}
	}
}

func (suite *ReferralServiceTestSuite) TestIsAttributionActive() {
	_, referee := suite.bindReferral()
	reg, err := suite.svc.Referral.GetRegistration(suite.ctx, referee.AccountID)
	suite.Require().NoError(err)

	suite.True(suite.svc.Referral.IsAttributionActive(*reg, reg.AttributionExpiresAt.Add(-time.Second)))
	suite.False(suite.svc.Referral.IsAttributionActive(*reg, reg.AttributionExpiresAt))
}

func (suite *ReferralServiceTestSuite) TestRevokeCode() {
	referrer := suite.newAccount()
	code := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})

	_, err := suite.svc.Referral.RevokeCode(suite.ctx, code.CodeID, "")
	suite.requireCode(err, apperrors.CodeValidation)

	revoked, err := suite.svc.Referral.RevokeCode(suite.ctx, code.CodeID, "ops")
	suite.Require().NoError(err)
	suite.Equal(domain.CodeRevoked, revoked.Status)
	suite.Equal("ops", revoked.RevokedBy)

	_, err = suite.svc.Referral.RevokeCode(suite.ctx, code.CodeID, "ops")
	suite.requireCode(err, apperrors.CodeNotFound)

	fresh := suite.createCode(referrer.AccountID, domain.CreateCodeInput{})
	suite.NotEqual(code.CodeID, fresh.CodeID)
}
