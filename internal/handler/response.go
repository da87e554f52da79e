package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// mapDomainError maps domain errors to HTTP responses. The marketplace
// shares one error taxonomy, so all handlers route failures through here.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidPrice):
		WriteError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, domain.ErrSelfTrade):
		WriteError(w, http.StatusForbidden, "self_trade", err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		WriteError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyListed):
		WriteError(w, http.StatusConflict, "already_listed", err.Error())
	case errors.Is(err, domain.ErrNotListed):
		WriteError(w, http.StatusConflict, "not_listed", err.Error())
	case errors.Is(err, domain.ErrNotPurchasable):
		WriteError(w, http.StatusConflict, "not_purchasable", err.Error())
	case errors.Is(err, domain.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
