package apierror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
	"github.com/dirham-pay/dirham_pay/internal/ledger"
	"github.com/dirham-pay/dirham_pay/internal/validation"
)

// Stable machine-readable error codes carried on every error response.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidOTP          = "INVALID_OTP"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeContractNotFound    = "CONTRACT_NOT_FOUND"
	CodeInvalidPhone        = "INVALID_PHONE"
	CodeTransactionFailed   = "TRANSACTION_FAILED"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// StatusAndCode classifies an error into its HTTP status and wire code.
func StatusAndCode(err error) (int, string) {
	switch {
	case errors.Is(err, validation.ErrInvalidPhone):
		return http.StatusBadRequest, CodeInvalidPhone
	case errors.Is(err, credential.ErrCodeMismatch), errors.Is(err, credential.ErrCodeConsumed):
		return http.StatusBadRequest, CodeInvalidOTP
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, gateway.ErrInsufficientBalance):
		return http.StatusBadRequest, CodeInsufficientBalance
	case errors.Is(err, ledger.ErrContractNotFound):
		return http.StatusNotFound, CodeContractNotFound
	case errors.Is(err, validation.ErrInvalidRIB),
		errors.Is(err, validation.ErrInvalidAmount),
		errors.Is(err, validation.ErrMissingField),
		errors.Is(err, validation.ErrAmountMismatch),
		errors.Is(err, credential.ErrNotFound),
		errors.Is(err, ledger.ErrAccountExists),
		errors.Is(err, ledger.ErrSameAccount):
		return http.StatusBadRequest, CodeValidation
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case http.StatusNotFound:
			return fiberErr.Code, CodeContractNotFound
		case http.StatusBadRequest:
			return fiberErr.Code, CodeValidation
		default:
			return fiberErr.Code, CodeTransactionFailed
		}
	}

	// Gateway transport failures and anything unexpected surface as a retryable
	// 5xx so callers can tell "try again later" from "this will never succeed".
	return http.StatusInternalServerError, CodeTransactionFailed
}

// Handler builds the Fiber error handler translating domain errors into the
// stable wire contract.
func Handler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := StatusAndCode(err)
		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", "path", c.Path(), "error", err)
		}
		return c.Status(status).JSON(errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
	}
}
