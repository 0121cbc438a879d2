package dto

import "github.com/SscSPs/community_billing/internal/apperrors"

// ErrorBody is the machine-readable part of every failed response.
type ErrorBody struct {
	Code    apperrors.Code    `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// ErrorResponse wraps ErrorBody under "error".
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
