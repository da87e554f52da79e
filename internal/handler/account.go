package handler

import (
	"net/http"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
)

// AccountHandler handles wallet balance, faucet, and transfer endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// balanceResponse is the JSON response for wallet balance endpoints.
type balanceResponse struct {
	Address  string  `json:"address"`
	Lamports int64   `json:"lamports"`
	Sol      float64 `json:"sol"`
}

// faucetRequest is the JSON request body for POST /wallets/faucet.
type faucetRequest struct {
	Amount float64 `json:"amount"`
}

// transferRequest is the JSON request body for POST /wallets/transfer.
type transferRequest struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// transferResponse is the JSON response for POST /wallets/transfer.
type transferResponse struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Amount      float64 `json:"amount"`
	FromBalance int64   `json:"from_balance"`
	ToBalance   int64   `json:"to_balance"`
}

// GetBalance handles GET /wallets/{address}/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	balance, err := h.accountSvc.Balance(address)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(balance))
}

// Faucet handles POST /wallets/faucet. Credits the authenticated wallet.
func (h *AccountHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	var req faucetRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	balance, err := h.accountSvc.Faucet(callerWallet(r), req.Amount)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBalanceResponse(balance))
}

// Transfer handles POST /wallets/transfer. Debits the authenticated wallet.
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.accountSvc.Transfer(service.TransferRequest{
		From:      callerWallet(r),
		To:        req.To,
		AmountSol: req.Amount,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, transferResponse{
		From:        result.From,
		To:          result.To,
		Amount:      domain.LamportsToSol(result.Amount),
		FromBalance: result.FromBalance,
		ToBalance:   result.ToBalance,
	})
}

func buildBalanceResponse(b *service.BalanceResponse) balanceResponse {
	return balanceResponse{
		Address:  b.Address,
		Lamports: b.Lamports,
		Sol:      domain.LamportsToSol(b.Lamports),
	}
}
