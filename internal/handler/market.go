package handler

import (
	"net/http"
	"strconv"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
)

// MarketHandler handles listing, unlisting, and purchase endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// listItemRequest is the JSON request body for POST /items/{item_id}/list.
type listItemRequest struct {
	Price float64 `json:"price"`
}

// receiptResponse is the JSON response for a committed purchase.
type receiptResponse struct {
	ReceiptID     string  `json:"receipt_id"`
	ItemID        int64   `json:"item_id"`
	Buyer         string  `json:"buyer"`
	Seller        string  `json:"seller"`
	Price         float64 `json:"price"`
	BuyerBalance  int64   `json:"buyer_balance"`
	SellerBalance int64   `json:"seller_balance"`
	ExecutedAt    string  `json:"executed_at"`
}

// statsResponse is the JSON response for GET /stats.
type statsResponse struct {
	TotalItems     int            `json:"total_items"`
	ActiveListings int            `json:"active_listings"`
	ByStatus       map[string]int `json:"by_status"`
	ByGame         map[string]int `json:"by_game"`
	Games          []string       `json:"games"`
	TotalSales     int            `json:"total_sales"`
	TotalVolume    float64        `json:"total_volume"`
}

// ListForSale handles POST /items/{item_id}/list.
func (h *MarketHandler) ListForSale(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req listItemRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	item, err := h.marketSvc.ListForSale(itemID, callerWallet(r), req.Price)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildItemResponse(item))
}

// Unlist handles POST /items/{item_id}/unlist.
func (h *MarketHandler) Unlist(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, err := h.marketSvc.Unlist(itemID, callerWallet(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildItemResponse(item))
}

// Buy handles POST /items/{item_id}/buy.
func (h *MarketHandler) Buy(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	receipt, err := h.marketSvc.Purchase(itemID, callerWallet(r))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, receiptResponse{
		ReceiptID:     receipt.ReceiptID,
		ItemID:        receipt.ItemID,
		Buyer:         receipt.Buyer,
		Seller:        receipt.Seller,
		Price:         domain.LamportsToSol(receipt.Price),
		BuyerBalance:  receipt.BuyerBalance,
		SellerBalance: receipt.SellerBalance,
		ExecutedAt:    receipt.ExecutedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// RecentSales handles GET /sales.
func (h *MarketHandler) RecentSales(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = n
	}

	WriteJSON(w, http.StatusOK, buildSaleResponses(h.marketSvc.RecentSales(limit)))
}

// Stats handles GET /stats.
func (h *MarketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.marketSvc.Stats()

	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}

	WriteJSON(w, http.StatusOK, statsResponse{
		TotalItems:     stats.TotalItems,
		ActiveListings: stats.ActiveListings,
		ByStatus:       byStatus,
		ByGame:         stats.ByGame,
		Games:          stats.Games,
		TotalSales:     stats.TotalSales,
		TotalVolume:    domain.LamportsToSol(stats.TotalVolume),
	})
}
