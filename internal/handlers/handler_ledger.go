package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/community_billing/internal/core/ports/services"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/gin-gonic/gin"
)

// ledgerHandler serves the money-moving ledger primitives and balance reads.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts/:id")
	{
		accounts.GET("/balance", h.getBalance)
		accounts.GET("/history", h.getHistory)
		accounts.GET("/debts", h.listDebts)
		accounts.POST("/lots", h.mintLot)
		accounts.POST("/reservations", h.reserve)
	}

	reservations := rg.Group("/reservations/:id")
	{
		reservations.GET("", h.getReservation)
		reservations.POST("/finalize", h.finalize)
		reservations.POST("/release", h.release)
	}

	rg.POST("/lots/:id/refunds", h.refund)
}

// mintLot credits an account. Replaying an idempotency key returns the original lot.
func (h *ledgerHandler) mintLot(c *gin.Context) {
	accountID := c.Param("id")

	var req dto.MintLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	lot, err := h.ledgerService.MintLot(c.Request.Context(), accountID, req.AmountMicro, req.EntryType, req.ToInput())
	if err != nil {
		respondError(c, err, "mint lot")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLotResponse(lot))
}

// reserve places a hold on the oldest lots of a pool.
func (h *ledgerHandler) reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.ledgerService.Reserve(c.Request.Context(), c.Param("id"), req.PoolID, req.AmountMicro)
	if err != nil {
		respondError(c, err, "reserve funds")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

func (h *ledgerHandler) getReservation(c *gin.Context) {
	reservation, err := h.ledgerService.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// finalize consumes part or all of a pending hold.
func (h *ledgerHandler) finalize(c *gin.Context) {
	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.ledgerService.Finalize(c.Request.Context(), c.Param("id"), *req.ActualMicro)
	if err != nil {
		respondError(c, err, "finalize reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

func (h *ledgerHandler) release(c *gin.Context) {
	reservation, err := h.ledgerService.Release(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "release reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// refund takes funds back from a lot. A shortfall is reported as debt, not as an error.
func (h *ledgerHandler) refund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledgerService.Refund(c.Request.Context(), c.Param("id"), req.AmountMicro, req.ToInput())
	if err != nil {
		respondError(c, err, "refund lot")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ledgerHandler) getBalance(c *gin.Context) {
	balance, err := h.ledgerService.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// getHistory lists ledger entries newest first, paged by nextToken.
func (h *ledgerHandler) getHistory(c *gin.Context) {
	var params dto.ListHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.ledgerService.GetHistory(c.Request.Context(), c.Param("id"), params.ToQuery())
	if err != nil {
		respondError(c, err, "retrieve history")
		return
	}
	c.JSON(http.StatusOK, dto.ToListHistoryResponse(page))
}

func (h *ledgerHandler) listDebts(c *gin.Context) {
	debts, err := h.ledgerService.ListDebts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "list debts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"debts": debts})
}
