package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/community_billing/internal/apperrors"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/gin-gonic/gin"
)

type referralHandler struct {
	referralService portssvc.ReferralSvcFacade
}

func newReferralHandler(rs portssvc.ReferralSvcFacade) *referralHandler {
	return &referralHandler{referralService: rs}
}

func registerReferralRoutes(rg *gin.RouterGroup, referralService portssvc.ReferralSvcFacade) {
	h := newReferralHandler(referralService)

	accounts := rg.Group("/accounts/:id")
	{
		accounts.POST("/referral-code", h.createCode)
		accounts.POST("/referral", h.register)
		accounts.GET("/referral", h.getRegistration)
		accounts.GET("/referral/events", h.listAttributionEvents)
	}

	rg.POST("/referral-codes/:id/revoke", h.revokeCode)
}

// createCode returns the account's active referral code, creating one if
// needed. The body is optional.
func (h *referralHandler) createCode(c *gin.Context) {
	var req dto.CreateReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	code, err := h.referralService.CreateCode(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		respondError(c, err, "create referral code")
		return
	}
	c.JSON(http.StatusOK, code)
}

// revokeCode revokes a code on behalf of the calling service.
func (h *referralHandler) revokeCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		logger.Error("Caller ID not found in context")
		respondError(c, apperrors.NewAppError(http.StatusUnauthorized, "Unauthorized", nil), "revoke referral code")
		return
	}

	code, err := h.referralService.RevokeCode(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err, "revoke referral code")
		return
	}

	logger.Info("Referral code revoked", slog.String("code_id", code.CodeID))
	c.JSON(http.StatusOK, code)
}

// register binds the account, as referee, to the owner of the submitted code.
func (h *referralHandler) register(c *gin.Context) {
	var req dto.RegisterReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	registration, err := h.referralService.Register(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		respondError(c, err, "register referral")
		return
	}
	c.JSON(http.StatusOK, registration)
}

func (h *referralHandler) getRegistration(c *gin.Context) {
	registration, err := h.referralService.GetRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve referral")
		return
	}
	c.JSON(http.StatusOK, dto.ReferralStatusResponse{
		ReferralRegistration: *registration,
		AttributionActive:    h.referralService.IsAttributionActive(*registration, time.Now().UTC()),
	})
}

func (h *referralHandler) listAttributionEvents(c *gin.Context) {
	events, err := h.referralService.ListAttributionEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "list attribution events")
		return
	}
	c.JSON(http.StatusOK, dto.ListAttributionEventsResponse{Events: events})
}
