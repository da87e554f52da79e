package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/efreitasn/nftmarket/internal/auth"
)

var walletRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

type contextKey string

const walletContextKey contextKey = "wallet"

// requireAuth returns middleware that validates the Bearer token and puts
// the caller's wallet address in the request context. Requests without a
// valid token get 401 before the handler runs.
func requireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing or malformed Authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), walletContextKey, claims.Wallet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerWallet extracts the authenticated wallet from the request context.
// Only meaningful behind requireAuth.
func callerWallet(r *http.Request) string {
	wallet, _ := r.Context().Value(walletContextKey).(string)
	return wallet
}

// AuthHandler issues identity tokens. Wallet signature verification
// happens upstream; the token only binds subsequent requests to a wallet.
type AuthHandler struct {
	secret   string
	tokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(secret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{secret: secret, tokenTTL: tokenTTL}
}

// tokenRequest is the JSON request body for POST /auth/token.
type tokenRequest struct {
	Wallet   string `json:"wallet"`
	Username string `json:"username"`
}

// tokenResponse is the JSON response for POST /auth/token.
type tokenResponse struct {
	Token     string `json:"token"`
	Wallet    string `json:"wallet"`
	ExpiresAt string `json:"expires_at"`
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if !walletRegex.MatchString(req.Wallet) {
		WriteError(w, http.StatusBadRequest, "validation_error", "wallet must be a valid wallet address")
		return
	}

	token, err := auth.GenerateToken(h.secret, req.Wallet, req.Username, h.tokenTTL)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse{
		Token:     token,
		Wallet:    req.Wallet,
		ExpiresAt: time.Now().Add(h.tokenTTL).UTC().Format("2006-01-02T15:04:05Z"),
	})
}
