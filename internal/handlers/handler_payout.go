package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/gin-gonic/gin"
)

type payoutHandler struct {
	payoutService portssvc.PayoutSvcFacade
}

func newPayoutHandler(ps portssvc.PayoutSvcFacade) *payoutHandler {
	return &payoutHandler{payoutService: ps}
}

func registerPayoutRoutes(rg *gin.RouterGroup, payoutService portssvc.PayoutSvcFacade) {
	h := newPayoutHandler(payoutService)

	rg.POST("/accounts/:id/payouts", h.requestPayout)

	payouts := rg.Group("/payouts/:id")
	{
		payouts.GET("", h.getPayout)
		payouts.POST("/complete", h.completePayout)
		payouts.POST("/fail", h.failPayout)
	}
}

// requestPayout escrows a withdrawal of settled earnings.
func (h *payoutHandler) requestPayout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	var req dto.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payout, err := h.payoutService.RequestPayout(c.Request.Context(), req.ToInput(accountID))
	if err != nil {
		respondError(c, err, "request payout")
		return
	}

	logger.Info("Payout requested", slog.String("payout_id", payout.PayoutID), slog.String("account_id", accountID))
	c.JSON(http.StatusCreated, dto.ToPayoutResponse(payout))
}

func (h *payoutHandler) getPayout(c *gin.Context) {
	payout, err := h.payoutService.GetPayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout))
}

func (h *payoutHandler) completePayout(c *gin.Context) {
	payout, err := h.payoutService.CompletePayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "complete payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout))
}

// failPayout releases the escrow of a payout the processor rejected.
func (h *payoutHandler) failPayout(c *gin.Context) {
	var req dto.FailPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payout, err := h.payoutService.FailPayout(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "fail payout")
		return
	}
	c.JSON(http.StatusOK, dto.ToPayoutResponse(payout))
}
