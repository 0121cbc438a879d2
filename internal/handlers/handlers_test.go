package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/core/domain"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/handlers"
	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testCaller = "svc-checkout"

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSecret string

	ledger   *MockLedgerService
	referral *MockReferralService
	earnings *MockEarningsService
	payout   *MockPayoutService
}

// generateTestToken creates a signed service token for subject.
func (suite *HandlerTestSuite) generateTestToken(subject string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "billing-test",
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) newRouter(rateLimit string) *gin.Engine {
	router := gin.New()
	cfg := &config.Config{JWTSecret: suite.jwtSecret, RateLimit: rateLimit}
	err := handlers.RegisterRoutes(router, cfg, &portssvc.ServiceContainer{
		Ledger:   suite.ledger,
		Referral: suite.referral,
		Earnings: suite.earnings,
		Payout:   suite.payout,
	})
	suite.Require().NoError(err)
	return router
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.ledger = new(MockLedgerService)
	suite.referral = new(MockReferralService)
	suite.earnings = new(MockEarningsService)
	suite.payout = new(MockPayoutService)
	suite.router = suite.newRouter("1000-M")
}

func (suite *HandlerTestSuite) do(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, url, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(testCaller))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.ErrorBody {
	var res dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res.Error
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestHealth_IsPublic() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *HandlerTestSuite) TestAPI_RequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal(apperrors.CodeUnauthorized, suite.decodeError(w).Code)
	suite.ledger.AssertNotCalled(suite.T(), "GetAccount", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestEnsureAccount_Success() {
	account := &domain.Account{AccountID: "acc-1", EntityType: domain.EntityPerson, EntityID: "user-42", KYCLevel: domain.KYCNone}
	suite.ledger.On("EnsureAccount", mock.Anything, domain.EntityPerson, "user-42").Return(account, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts", dto.EnsureAccountRequest{EntityType: domain.EntityPerson, EntityID: "user-42"})

	suite.Equal(http.StatusOK, w.Code)
	var res dto.AccountResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("acc-1", res.AccountID)
	suite.Equal(domain.KYCNone, res.KYCLevel)
	suite.ledger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestEnsureAccount_RejectsUnknownEntityType() {
	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts", map[string]string{"entityType": "robot", "entityID": "r2"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apperrors.CodeValidation, suite.decodeError(w).Code)
	suite.ledger.AssertNotCalled(suite.T(), "EnsureAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestGetAccount_NotFoundSentinel() {
	suite.ledger.On("GetAccount", mock.Anything, "missing").
		Return(nil, fmt.Errorf("account missing: %w", apperrors.ErrNotFound)).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/accounts/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apperrors.CodeNotFound, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestMintLot_Created() {
	in := domain.MintLotInput{PoolID: "general", IdempotencyKey: "pay-1"}
	lot := &domain.Lot{LotID: "lot-1", AccountID: "acc-1", PoolID: "general", OriginalMicro: domain.USD(20), AvailableMicro: domain.USD(20), EntryType: domain.EntryDeposit, IdempotencyKey: "pay-1"}
	suite.ledger.On("MintLot", mock.Anything, "acc-1", domain.USD(20), domain.EntryDeposit, in).Return(lot, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/lots", dto.MintLotRequest{
		AmountMicro:    domain.USD(20),
		EntryType:      domain.EntryDeposit,
		PoolID:         "general",
		IdempotencyKey: "pay-1",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.LotResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("lot-1", res.LotID)
	suite.Equal("20.00", res.Available)
	suite.ledger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestMintLot_InvalidAmountFromService() {
	suite.ledger.On("MintLot", mock.Anything, "acc-1", int64(0), domain.EntryDeposit, mock.Anything).
		Return(nil, apperrors.ErrInvalidAmount).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/lots", dto.MintLotRequest{
		EntryType:      domain.EntryDeposit,
		IdempotencyKey: "pay-2",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apperrors.CodeInvalidAmount, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestReserve_InsufficientFunds() {
	suite.ledger.On("Reserve", mock.Anything, "acc-1", "general", domain.USD(50)).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/reservations", dto.ReserveRequest{PoolID: "general", AmountMicro: domain.USD(50)})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal(apperrors.CodeInsufficientFunds, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestFinalize_Twice() {
	suite.ledger.On("Finalize", mock.Anything, "res-1", int64(0)).Return(nil, apperrors.ErrReservationNotFound).Once()

	zero := int64(0)
	w := suite.do(suite.router, http.MethodPost, "/api/v1/reservations/res-1/finalize", dto.FinalizeRequest{ActualMicro: &zero})

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apperrors.CodeReservationNotFound, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestFinalize_RequiresActualAmount() {
	w := suite.do(suite.router, http.MethodPost, "/api/v1/reservations/res-1/finalize", map[string]any{})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.ledger.AssertNotCalled(suite.T(), "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestRefund_ShortfallIsNotAnError() {
	result := &domain.RefundResult{
		RefundedMicro: domain.USD(10),
		ClawedMicro:   domain.USD(4),
		Debt:          &domain.Debt{DebtID: "debt-1", DebtMicro: domain.USD(6)},
	}
	suite.ledger.On("Refund", mock.Anything, "lot-1", domain.USD(10), domain.RefundInput{SourcePaymentID: "pay-1"}).Return(result, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/lots/lot-1/refunds", dto.RefundRequest{AmountMicro: domain.USD(10), SourcePaymentID: "pay-1"})

	suite.Equal(http.StatusOK, w.Code)
	var res domain.RefundResult
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Require().NotNil(res.Debt)
	suite.Equal(domain.USD(6), res.Debt.DebtMicro)
}

func (suite *HandlerTestSuite) TestGetBalance_FormatsAmounts() {
	balance := &domain.Balance{
		AccountID:      "acc-1",
		Pools:          []domain.PoolBalance{domain.NewPoolBalance("general", 12_345_678, 0)},
		AvailableMicro: 12_345_678,
		BalanceMicro:   12_345_678,
	}
	suite.ledger.On("GetBalance", mock.Anything, "acc-1").Return(balance, nil).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/accounts/acc-1/balance", nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.BalanceResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("12.35", res.Balance)
	suite.Require().Len(res.Pools, 1)
	suite.Equal("general", res.Pools[0].PoolID)
}

func (suite *HandlerTestSuite) TestGetBalance_HidesUnexpectedErrors() {
	suite.ledger.On("GetBalance", mock.Anything, "acc-1").Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/accounts/acc-1/balance", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	body := suite.decodeError(w)
	suite.Equal(apperrors.CodeInternal, body.Code)
	suite.NotContains(body.Message, "connection reset")
}

func (suite *HandlerTestSuite) TestGetHistory_PassesQuery() {
	next := "seq-token"
	suite.ledger.On("GetHistory", mock.Anything, "acc-1", mock.MatchedBy(func(q domain.HistoryQuery) bool {
		return q.PoolID == "general" && q.Limit == 5 && q.NextToken != nil && *q.NextToken == next
	})).Return(&domain.HistoryPage{
		Entries: []domain.LedgerEntry{{EntryID: "e-2", AmountMicro: domain.Cents(250)}},
	}, nil).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/accounts/acc-1/history?poolID=general&limit=5&nextToken="+next, nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.ListHistoryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Require().Len(res.Entries, 1)
	suite.Equal("2.50", res.Entries[0].Amount)
	suite.Nil(res.NextToken)
	suite.ledger.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestRegisterReferral_AlreadyBound() {
	suite.referral.On("Register", mock.Anything, "acc-2", "ABCDEFGH23").Return(nil, apperrors.ErrAlreadyBound).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-2/referral", dto.RegisterReferralRequest{Code: "ABCDEFGH23"})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal(apperrors.CodeAlreadyBound, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestCreateReferralCode_EmptyBody() {
	code := &domain.ReferralCode{CodeID: "code-1", AccountID: "acc-1", Code: "ABCDEFGH23", Status: domain.CodeActive}
	suite.referral.On("CreateCode", mock.Anything, "acc-1", domain.CreateCodeInput{}).Return(code, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/referral-code", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.referral.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestRevokeCode_UsesCallerAsRevoker() {
	revoked := &domain.ReferralCode{CodeID: "code-1", Status: domain.CodeRevoked, RevokedBy: testCaller}
	suite.referral.On("RevokeCode", mock.Anything, "code-1", testCaller).Return(revoked, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/referral-codes/code-1/revoke", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.referral.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetRegistration_ReportsAttribution() {
	reg := &domain.ReferralRegistration{
		RegistrationID:       "reg-1",
		RefereeAccountID:     "acc-2",
		ReferrerAccountID:    "acc-1",
		AttributionExpiresAt: time.Now().Add(24 * time.Hour),
	}
	suite.referral.On("GetRegistration", mock.Anything, "acc-2").Return(reg, nil).Once()

	w := suite.do(suite.router, http.MethodGet, "/api/v1/accounts/acc-2/referral", nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.ReferralStatusResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.True(res.AttributionActive)
	suite.Equal("acc-1", res.ReferrerAccountID)
}

func (suite *HandlerTestSuite) TestQualifyingAction_NotQualified() {
	action := domain.QualifyingAction{Type: domain.ActionPurchase, ActionID: "order-1", AmountMicro: domain.USD(10)}
	suite.earnings.On("OnQualifyingAction", mock.Anything, "acc-2", action).Return(nil, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-2/qualifying-actions", dto.QualifyingActionRequest{
		ActionType:  domain.ActionPurchase,
		ActionID:    "order-1",
		AmountMicro: domain.USD(10),
	})

	suite.Equal(http.StatusOK, w.Code)
	var res dto.QualifyingActionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.False(res.Qualified)
	suite.Nil(res.Bonus)
}

func (suite *HandlerTestSuite) TestQualifyingAction_BonusIssued() {
	bonus := &domain.ReferralBonus{BonusID: "b-1", AmountMicro: domain.USD(1), Status: domain.BonusPending}
	suite.earnings.On("OnQualifyingAction", mock.Anything, "acc-2", mock.Anything).Return(bonus, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-2/qualifying-actions", dto.QualifyingActionRequest{
		ActionType:  domain.ActionSubscription,
		ActionID:    "sub-1",
		AmountMicro: domain.USD(10),
	})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.QualifyingActionResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.True(res.Qualified)
	suite.Require().NotNil(res.Bonus)
	suite.Equal("1.00", res.Bonus.Amount)
}

func (suite *HandlerTestSuite) TestSettleEarnings_DefaultsAsOf() {
	suite.earnings.On("SettleEarnings", mock.Anything, (*time.Time)(nil)).
		Return([]domain.ReferralBonus{{BonusID: "b-1", Status: domain.BonusSettled}}, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/earnings/settle", nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.SettleEarningsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal(1, res.SettledCount)
}

func (suite *HandlerTestSuite) TestReviewEarning_UsesCallerAsReviewer() {
	suite.earnings.On("ReviewEarning", mock.Anything, "b-1", testCaller).
		Return(&domain.ReferralBonus{BonusID: "b-1", ReviewedBy: testCaller}, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/bonuses/b-1/review", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.earnings.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestRequestPayout_KYCRequired() {
	in := domain.PayoutInput{AccountID: "acc-1", AmountMicro: domain.USD(150), PayoutAddress: "acct_123", Currency: "USD"}
	suite.payout.On("RequestPayout", mock.Anything, in).Return(nil, apperrors.KYCRequired(string(domain.KYCBasic))).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/payouts", dto.CreatePayoutRequest{
		AmountMicro:   domain.USD(150),
		PayoutAddress: "acct_123",
		Currency:      "USD",
	})

	suite.Equal(http.StatusForbidden, w.Code)
	body := suite.decodeError(w)
	suite.Equal(apperrors.CodeKYCRequired, body.Code)
	suite.Equal("basic", body.Meta[apperrors.MetaRequiredKYCLevel])
}

func (suite *HandlerTestSuite) TestRequestPayout_Created() {
	payout := &domain.PayoutRequest{PayoutID: "p-1", AccountID: "acc-1", AmountMicro: domain.USD(10), NetMicro: domain.USD(10), Status: domain.PayoutPending}
	suite.payout.On("RequestPayout", mock.Anything, mock.Anything).Return(payout, nil).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/payouts", dto.CreatePayoutRequest{
		AmountMicro:   domain.USD(10),
		PayoutAddress: "acct_123",
		Currency:      "USD",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.PayoutResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("p-1", res.PayoutID)
	suite.Equal("10.00", res.Net)
}

func (suite *HandlerTestSuite) TestRequestPayout_RateLimited() {
	suite.payout.On("RequestPayout", mock.Anything, mock.Anything).Return(nil, apperrors.ErrRateLimited).Once()

	w := suite.do(suite.router, http.MethodPost, "/api/v1/accounts/acc-1/payouts", dto.CreatePayoutRequest{
		AmountMicro:   domain.USD(10),
		PayoutAddress: "acct_123",
		Currency:      "USD",
	})

	suite.Equal(http.StatusTooManyRequests, w.Code)
	suite.Equal(apperrors.CodeRateLimited, suite.decodeError(w).Code)
}

func (suite *HandlerTestSuite) TestFailPayout_RequiresReason() {
	w := suite.do(suite.router, http.MethodPost, "/api/v1/payouts/p-1/fail", map[string]string{})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.payout.AssertNotCalled(suite.T(), "FailPayout", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestUpdateKYCLevel() {
	suite.payout.On("UpdateKYCLevel", mock.Anything, "acc-1", domain.KYCBasic).
		Return(&domain.Account{AccountID: "acc-1", KYCLevel: domain.KYCBasic}, nil).Once()

	w := suite.do(suite.router, http.MethodPut, "/api/v1/accounts/acc-1/kyc", dto.UpdateKYCLevelRequest{KYCLevel: domain.KYCBasic})

	suite.Equal(http.StatusOK, w.Code)
	suite.payout.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestRequestRateLimit() {
	router := suite.newRouter("1-M")
	suite.ledger.On("GetAccount", mock.Anything, "acc-1").Return(&domain.Account{AccountID: "acc-1"}, nil).Once()

	first := suite.do(router, http.MethodGet, "/api/v1/accounts/acc-1", nil)
	second := suite.do(router, http.MethodGet, "/api/v1/accounts/acc-1", nil)

	suite.Equal(http.StatusOK, first.Code)
	suite.Equal(http.StatusTooManyRequests, second.Code)
	suite.ledger.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
