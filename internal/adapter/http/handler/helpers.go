package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/domain"
)

const maxBodyBytes = 1 << 20

// reconciliationMessage is what a caller sees when money is stuck; the
// underlying failures are logged and sent to operators instead.
const reconciliationMessage = "transaction could not be completed, support has been notified"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// writeDomainError maps err to a status and error code.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal error"
		if code == "RECONCILIATION_REQUIRED" {
			msg = reconciliationMessage
		}
	case http.StatusServiceUnavailable:
		msg = "service temporarily unavailable, retry later"
	}

	writeError(w, status, code, msg)
}

var validationErrors = []error{
	domain.ErrInvalidHandle,
	domain.ErrInvalidHolderName,
	domain.ErrInvalidIFSC,
	domain.ErrInvalidBankName,
	domain.ErrNoteTooLong,
	domain.ErrMessageTooLong,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooWeak,
	domain.ErrInvalidStatus,
	domain.ErrInvalidRole,
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) (int, string) {
	// Reconciliation wraps the credit and compensation failures, so it
	// must be matched before anything those might match.
	switch {
	case errors.Is(err, domain.ErrReconciliationRequired):
		return http.StatusInternalServerError, "RECONCILIATION_REQUIRED"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest, "SAME_ACCOUNT"
	case errors.Is(err, domain.ErrUnknownAccount):
		return http.StatusNotFound, "UNKNOWN_ACCOUNT"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "ACCOUNT_NOT_FOUND"
	case errors.Is(err, domain.ErrTransferNotFound):
		return http.StatusNotFound, "TRANSFER_NOT_FOUND"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "INSUFFICIENT_FUNDS"
	case errors.Is(err, domain.ErrAccountAlreadyLinked):
		return http.StatusConflict, "ACCOUNT_ALREADY_LINKED"
	case errors.Is(err, domain.ErrHandleTaken):
		return http.StatusConflict, "HANDLE_TAKEN"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "EMAIL_TAKEN"
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusUnprocessableEntity, "IDEMPOTENCY_CONFLICT"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized, "TOKEN_EXPIRED"
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	}

	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, "VALIDATION_ERROR"
		}
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
