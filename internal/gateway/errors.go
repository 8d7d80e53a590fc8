package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials indicates the upstream rejected our API
	// credentials (401/403). Never retried.
	ErrInvalidCredentials = errors.New("invalid gateway credentials")

	// ErrInsufficientBalance indicates the upstream declined the operation for
	// lack of funds. Never retried; surfaced as a business error.
	ErrInsufficientBalance = errors.New("gateway: insufficient balance")
)

// StatusError carries a non-2xx upstream status and its raw payload.
type StatusError struct {
	Status  int
	Payload string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Payload)
}

// Classify translates an upstream HTTP status and body into the adapter's
// error taxonomy. A 2xx status yields nil.
func Classify(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrInvalidCredentials
	case status == http.StatusBadRequest && mentionsBalance(body):
		return ErrInsufficientBalance
	default:
		return &StatusError{Status: status, Payload: string(body)}
	}
}

// Retryable reports whether the error warrants another attempt: network
// failures, 5xx and 429. Classified business errors never retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInsufficientBalance) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests
	}
	// Anything else reaching the adapter is a transport-level failure.
	return true
}

func mentionsBalance(body []byte) bool {
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "balance") || strings.Contains(msg, "insufficient")
}
