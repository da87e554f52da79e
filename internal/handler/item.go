package handler

import (
	"net/http"
	"strconv"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/registry"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
)

// ItemHandler handles HTTP requests for catalog and item endpoints.
type ItemHandler struct {
	marketSvc *service.MarketService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(marketSvc *service.MarketService) *ItemHandler {
	return &ItemHandler{marketSvc: marketSvc}
}

// mintItemRequest is the JSON request body for POST /items.
type mintItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Game        string  `json:"game"`
	Kind        string  `json:"kind"`
	Rarity      string  `json:"rarity"`
	Price       float64 `json:"price"`
	Owned       bool    `json:"owned"`
}

// itemResponse is the JSON representation of an item. Price is in SOL;
// owner is null until the first purchase.
type itemResponse struct {
	ItemID      int64   `json:"item_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Game        string  `json:"game"`
	Kind        string  `json:"kind"`
	Rarity      string  `json:"rarity"`
	Price       float64 `json:"price"`
	Seller      string  `json:"seller"`
	Owner       *string `json:"owner"`
	Status      string  `json:"status"`
	Version     int64   `json:"version"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// saleResponse is a single sale record in provenance and sale feeds.
type saleResponse struct {
	SaleID     string  `json:"sale_id"`
	ItemID     int64   `json:"item_id"`
	Buyer      string  `json:"buyer"`
	Seller     string  `json:"seller"`
	Price      float64 `json:"price"`
	ExecutedAt string  `json:"executed_at"`
}

// Mint handles POST /items. The authenticated caller becomes the seller;
// owned=true mints the item directly into the caller's wallet.
func (h *ItemHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req mintItemRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	caller := callerWallet(r)
	mint := service.MintItemRequest{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Game:        req.Game,
		Kind:        req.Kind,
		Rarity:      req.Rarity,
		PriceSol:    req.Price,
		Seller:      caller,
	}
	if req.Owned {
		mint.Owner = caller
	}

	item, err := h.marketSvc.Mint(mint)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildItemResponse(item))
}

// Get handles GET /items/{item_id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, err := h.marketSvc.GetItem(itemID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildItemResponse(item))
}

// List handles GET /items with optional game, rarity, and status filters.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := registry.Filter{
		Game:   q.Get("game"),
		Rarity: q.Get("rarity"),
		Status: domain.ItemStatus(q.Get("status")),
	}

	items := h.marketSvc.ListItems(f)
	WriteJSON(w, http.StatusOK, buildItemResponses(items))
}

// Browse handles GET /items/browse: active listings, cheapest first.
func (h *ItemHandler) Browse(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = n
	}

	items := h.marketSvc.BrowseListings(limit)
	WriteJSON(w, http.StatusOK, buildItemResponses(items))
}

// Sales handles GET /items/{item_id}/sales (provenance, oldest first).
func (h *ItemHandler) Sales(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	sales, err := h.marketSvc.ItemSales(itemID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildSaleResponses(sales))
}

// parseItemID parses the item_id URL parameter, writing a 400 on failure.
func parseItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "item_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func buildItemResponse(i *domain.Item) itemResponse {
	var owner *string
	if i.Owner != "" {
		owner = &i.Owner
	}
	return itemResponse{
		ItemID:      i.ID,
		Name:        i.Name,
		Description: i.Description,
		ImageURL:    i.ImageURL,
		Game:        i.Game,
		Kind:        string(i.Kind),
		Rarity:      i.Rarity,
		Price:       domain.LamportsToSol(i.Price),
		Seller:      i.Seller,
		Owner:       owner,
		Status:      string(i.Status),
		Version:     i.Version,
		CreatedAt:   i.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   i.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func buildItemResponses(items []*domain.Item) []itemResponse {
	result := make([]itemResponse, len(items))
	for i, item := range items {
		result[i] = buildItemResponse(item)
	}
	return result
}

func buildSaleResponses(sales []*domain.Sale) []saleResponse {
	result := make([]saleResponse, len(sales))
	for i, s := range sales {
		result[i] = saleResponse{
			SaleID:     s.SaleID,
			ItemID:     s.ItemID,
			Buyer:      s.Buyer,
			Seller:     s.Seller,
			Price:      domain.LamportsToSol(s.Price),
			ExecutedAt: s.ExecutedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return result
}
