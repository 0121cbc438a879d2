package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to billing accounts and their KYC tier.
type accountHandler struct {
	ledgerService portssvc.LedgerSvcFacade
	payoutService portssvc.PayoutSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(ls portssvc.LedgerSvcFacade, ps portssvc.PayoutSvcFacade) *accountHandler {
	return &accountHandler{
		ledgerService: ls,
		payoutService: ps,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, payoutService portssvc.PayoutSvcFacade) {
	h := newAccountHandler(ledgerService, payoutService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.ensureAccount)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/kyc", h.getKYCStatus)
		accounts.PUT("/:id/kyc", h.updateKYCLevel)
	}
}

// ensureAccount returns the account of an entity, creating it on first use.
func (h *accountHandler) ensureAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EnsureAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	logger.Info("Received request to ensure account", slog.String("entity_type", string(req.EntityType)), slog.String("entity_id", req.EntityID))

	account, err := h.ledgerService.EnsureAccount(c.Request.Context(), req.EntityType, req.EntityID)
	if err != nil {
		respondError(c, err, "ensure account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.ledgerService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getKYCStatus reports how close the account is to its next verification requirement.
func (h *accountHandler) getKYCStatus(c *gin.Context) {
	status, err := h.payoutService.GetKYCStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve KYC status")
		return
	}
	c.JSON(http.StatusOK, dto.ToKYCStatusResponse(status))
}

// updateKYCLevel records the tier reported by the external KYC pipeline.
func (h *accountHandler) updateKYCLevel(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	var req dto.UpdateKYCLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	account, err := h.payoutService.UpdateKYCLevel(c.Request.Context(), accountID, req.KYCLevel)
	if err != nil {
		respondError(c, err, "update KYC level")
		return
	}

	logger.Info("KYC level updated", slog.String("account_id", accountID), slog.String("kyc_level", string(account.KYCLevel)))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
