package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrItemNotFound       = errors.New("item_not_found")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrNotOwner           = errors.New("not_owner")
	ErrNotPurchasable     = errors.New("not_purchasable")
	ErrSelfTrade          = errors.New("self_trade")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrAlreadyListed      = errors.New("already_listed")
	ErrNotListed          = errors.New("not_listed")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrConflict           = errors.New("conflict")
	ErrWebhookNotFound    = errors.New("webhook_not_found")
	ErrStorageUnavailable = errors.New("storage_unavailable")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
