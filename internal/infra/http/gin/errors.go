package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentflow/internal/domain/shared/errs"
)

const idempotencyHeader = "Idempotency-Key"

type errorBody struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Missing  []string `json:"missing,omitempty"`
	Required *float64 `json:"required,omitempty"`
	Current  *float64 `json:"current,omitempty"`
}

// respondError maps a classified error to its status and machine code.
// Internal errors are logged and answered with a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(err error) (int, errorBody) {
	var docErr *errs.DocumentError
	if errors.As(err, &docErr) {
		return http.StatusUnprocessableEntity, errorBody{Code: "document_validation", Message: docErr.Error(), Missing: docErr.Missing}
	}
	var balErr *errs.BalanceError
	if errors.As(err, &balErr) {
		required, current := balErr.Required, balErr.Current
		return http.StatusUnprocessableEntity, errorBody{Code: "insufficient_balance", Message: balErr.Error(), Required: &required, Current: &current}
	}
	status, body := kindResponse(err)
	var classified *errs.Error
	if status < http.StatusInternalServerError && errors.As(err, &classified) && classified.Code != "" {
		body.Code = classified.Code
	}
	return status, body
}

func kindResponse(err error) (int, errorBody) {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest, errorBody{Code: "validation_error", Message: err.Error()}
	case errs.KindNotFound:
		return http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()}
	case errs.KindForbidden:
		return http.StatusForbidden, errorBody{Code: "forbidden", Message: err.Error()}
	case errs.KindConflict:
		return http.StatusConflict, errorBody{Code: "conflict", Message: err.Error()}
	case errs.KindDocumentValidation:
		return http.StatusUnprocessableEntity, errorBody{Code: "document_validation", Message: err.Error()}
	case errs.KindInsufficientBalance:
		return http.StatusUnprocessableEntity, errorBody{Code: "insufficient_balance", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal server error"}
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Code: "validation_error", Message: err.Error()})
}
