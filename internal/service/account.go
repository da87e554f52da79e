package service

import (
	"github.com/efreitasn/nftmarket/internal/domain"
)

// BalanceResponse represents the response for the wallet balance endpoint.
type BalanceResponse struct {
	Address  string
	Lamports int64
}

// TransferRequest represents the input for a direct wallet transfer.
type TransferRequest struct {
	From      string
	To        string
	AmountSol float64
}

// TransferResponse holds post-transfer balances of both wallets.
type TransferResponse struct {
	From        string
	To          string
	Amount      int64 // lamports
	FromBalance int64
	ToBalance   int64
}

// AccountService handles wallet balance queries, faucet credits, and
// direct transfers.
type AccountService struct {
	ledger      AccountLedger
	persist     Persister
	faucetLimit int64 // max lamports per faucet request
}

// NewAccountService creates a new AccountService. persist may be nil.
func NewAccountService(led AccountLedger, persist Persister, faucetLimit int64) *AccountService {
	return &AccountService{
		ledger:      led,
		persist:     persist,
		faucetLimit: faucetLimit,
	}
}

// Balance returns the current balance for a wallet. Unknown wallets
// report zero.
func (s *AccountService) Balance(address string) (*BalanceResponse, error) {
	if !walletRegex.MatchString(address) {
		return nil, &domain.ValidationError{Message: "address must be a valid wallet address"}
	}
	return &BalanceResponse{
		Address:  address,
		Lamports: s.ledger.Balance(address),
	}, nil
}

// Faucet credits a wallet with the requested SOL amount, capped by the
// configured per-request limit. Simulates the original devnet airdrop.
func (s *AccountService) Faucet(address string, amountSol float64) (*BalanceResponse, error) {
	if !walletRegex.MatchString(address) {
		return nil, &domain.ValidationError{Message: "address must be a valid wallet address"}
	}
	if amountSol <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be > 0"}
	}
	amount, err := domain.SolToLamports(amountSol)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if amount <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be > 0"}
	}
	if amount > s.faucetLimit {
		return nil, &domain.ValidationError{Message: "amount exceeds the faucet limit"}
	}

	balance, err := s.ledger.Credit(address, amount)
	if err != nil {
		return nil, err
	}
	if s.persist != nil {
		s.persist.SaveAccount(address, balance)
	}
	return &BalanceResponse{Address: address, Lamports: balance}, nil
}

// Transfer moves SOL between two wallets on the ledger.
func (s *AccountService) Transfer(req TransferRequest) (*TransferResponse, error) {
	if !walletRegex.MatchString(req.From) {
		return nil, &domain.ValidationError{Message: "from must be a valid wallet address"}
	}
	if !walletRegex.MatchString(req.To) {
		return nil, &domain.ValidationError{Message: "to must be a valid wallet address"}
	}
	if req.From == req.To {
		return nil, &domain.ValidationError{Message: "from and to must differ"}
	}
	if req.AmountSol <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be > 0"}
	}
	amount, err := domain.SolToLamports(req.AmountSol)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if amount <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be > 0"}
	}

	res, err := s.ledger.Transfer(req.From, req.To, amount)
	if err != nil {
		return nil, err
	}
	if s.persist != nil {
		s.persist.SaveAccount(req.From, res.FromBalance)
		s.persist.SaveAccount(req.To, res.ToBalance)
	}
	return &TransferResponse{
		From:        req.From,
		To:          req.To,
		Amount:      amount,
		FromBalance: res.FromBalance,
		ToBalance:   res.ToBalance,
	}, nil
}
