package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/community_billing/internal/apperrors"
	"github.com/SscSPs/community_billing/internal/dto"
	"github.com/SscSPs/community_billing/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError renders err as {"error": {code, message, meta}} with the status
// carried by its AppError. Unexpected failures are logged and hidden.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	appErr := apperrors.AsAppError(err)

	body := dto.ErrorBody{Code: appErr.Code, Message: appErr.Message, Meta: appErr.Meta}
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		body = dto.ErrorBody{Code: apperrors.CodeInternal, Message: "Failed to " + action}
	} else {
		logger.Warn("Rejected request to "+action, slog.String("code", string(appErr.Code)), slog.String("error", err.Error()))
	}
	c.JSON(appErr.Status, dto.ErrorResponse{Error: body})
}

// respondBindError reports a malformed body or query as VALIDATION_ERROR.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorBody{
		Code:    apperrors.CodeValidation,
		Message: "Invalid request format: " + err.Error(),
	}})
}
