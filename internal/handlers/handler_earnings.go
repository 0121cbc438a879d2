package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/SscSPs/community_billing/internal/apperrors"
	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/gin-gonic/gin"
)

type earningsHandler struct {
	earningsService portssvc.EarningsSvcFacade
}

func newEarningsHandler(es portssvc.EarningsSvcFacade) *earningsHandler {
	return &earningsHandler{earningsService: es}
}

func registerEarningsRoutes(rg *gin.RouterGroup, earningsService portssvc.EarningsSvcFacade) {
	h := newEarningsHandler(earningsService)

	rg.POST("/accounts/:id/qualifying-actions", h.onQualifyingAction)
	rg.GET("/accounts/:id/earnings", h.getEarningsSummary)
	rg.POST("/earnings/settle", h.settleEarnings)

	bonuses := rg.Group("/bonuses/:id")
	{
		bonuses.GET("", h.getBonus)
		bonuses.POST("/clawback", h.clawback)
		bonuses.POST("/review", h.review)
	}
}

// onQualifyingAction reports a referee milestone. Actions that earn nothing
// are answered with qualified=false.
func (h *earningsHandler) onQualifyingAction(c *gin.Context) {
	var req dto.QualifyingActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bonus, err := h.earningsService.OnQualifyingAction(c.Request.Context(), c.Param("id"), req.ToAction())
	if err != nil {
		respondError(c, err, "process qualifying action")
		return
	}
	if bonus == nil {
		c.JSON(http.StatusOK, dto.QualifyingActionResponse{Qualified: false})
		return
	}
	res := dto.ToBonusResponse(bonus)
	c.JSON(http.StatusCreated, dto.QualifyingActionResponse{Qualified: true, Bonus: &res})
}

// settleEarnings runs one settlement sweep. The body is optional.
func (h *earningsHandler) settleEarnings(c *gin.Context) {
	var req dto.SettleEarningsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	settled, err := h.earningsService.SettleEarnings(c.Request.Context(), req.AsOf)
	if err != nil {
		respondError(c, err, "settle earnings")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettleEarningsResponse(settled))
}

func (h *earningsHandler) getBonus(c *gin.Context) {
	bonus, err := h.earningsService.GetBonus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve bonus")
		return
	}
	c.JSON(http.StatusOK, dto.ToBonusResponse(bonus))
}

func (h *earningsHandler) clawback(c *gin.Context) {
	var req dto.ClawbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bonus, err := h.earningsService.ClawbackEarning(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err, "claw back bonus")
		return
	}
	c.JSON(http.StatusOK, dto.ToBonusResponse(bonus))
}

// review records the calling service as the reviewer of a bonus. The risk flag is kept.
func (h *earningsHandler) review(c *gin.Context) {
	callerID, ok := middleware.GetCallerIDFromContext(c)
	if !ok {
		respondError(c, apperrors.NewAppError(http.StatusUnauthorized, "Unauthorized", nil), "review bonus")
		return
	}

	bonus, err := h.earningsService.ReviewEarning(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err, "review bonus")
		return
	}
	c.JSON(http.StatusOK, dto.ToBonusResponse(bonus))
}

func (h *earningsHandler) getEarningsSummary(c *gin.Context) {
	summary, err := h.earningsService.GetEarningsSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve earnings summary")
		return
	}
	c.JSON(http.StatusOK, dto.ToEarningsSummaryResponse(summary))
}
