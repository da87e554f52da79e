package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/ledger"
	"github.com/efreitasn/nftmarket/internal/registry"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/efreitasn/nftmarket/internal/store"
)

const (
	testSecret   = "handler-test-secret"
	sellerWallet = "SSSSSSSSSSSSSSSSSSSSSSSSSSSSSSSS"
	buyerWallet  = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	otherWallet  = "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
)

// testEnv bundles all dependencies for handler integration tests.
type testEnv struct {
	router http.Handler
	ledger *ledger.Ledger
}

func newTestEnv() *testEnv {
	reg := registry.NewRegistry()
	led := ledger.NewLedger()
	sales := store.NewSaleStore()
	users := store.NewUserStore()
	webhooks := store.NewWebhookStore()
	games := domain.NewGameRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eventSvc := service.NewEventService(webhooks, time.Second)
	marketSvc := service.NewMarketService(reg, led, sales, users, games, eventSvc, nil, logger)
	accountSvc := service.NewAccountService(led, nil, 5_000_000_000)
	userSvc := service.NewUserService(users, reg, nil)

	router := NewRouter(marketSvc, accountSvc, userSvc, eventSvc, RouterConfig{
		AuthSecret: testSecret,
		TokenTTL:   time.Hour,
	}, logger)

	return &testEnv{router: router, ledger: led}
}

// doJSON sends a JSON request, optionally authenticated as wallet.
func (env *testEnv) doJSON(t *testing.T, method, path, wallet string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		req.Header.Set("Authorization", "Bearer "+env.token(t, wallet))
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// token issues a token for the wallet through the public endpoint.
func (env *testEnv) token(t *testing.T, wallet string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"wallet": wallet})
	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("token issuance returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	return resp.Token
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

// mint creates an item through the API as sellerWallet and returns its id.
func (env *testEnv) mint(t *testing.T, price float64) int64 {
	t.Helper()
	rr := env.doJSON(t, http.MethodPost, "/items", sellerWallet, map[string]any{
		"name": "Sword of Dawn", "game": "Aurory", "kind": "weapon",
		"rarity": "Rare", "price": price,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("mint returned %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeJSON[itemResponse](t, rr)
	return resp.ItemID
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodPost, "/items", "", map[string]any{
		"name": "x", "game": "g", "kind": "weapon", "price": 1.0,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuth_BadToken(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/webhooks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuth_TokenIssuanceValidation(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodPost, "/auth/token", "", map[string]string{"wallet": "not-base58"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestMintAndGetItem(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 2.5)

	rr := env.doJSON(t, http.MethodGet, fmt.Sprintf("/items/%d", id), "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	item := decodeJSON[itemResponse](t, rr)
	if item.Name != "Sword of Dawn" {
		t.Errorf("name = %q", item.Name)
	}
	if item.Price != 2.5 {
		t.Errorf("price = %v, want 2.5", item.Price)
	}
	if item.Status != "for_sale" {
		t.Errorf("status = %q, want for_sale", item.Status)
	}
	if item.Owner != nil {
		t.Errorf("owner = %v, want null", *item.Owner)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodGet, "/items/999", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if resp := decodeJSON[map[string]string](t, rr); resp["error"] != "item_not_found" {
		t.Errorf("error code = %q", resp["error"])
	}
}

func TestGetItem_BadID(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodGet, "/items/abc", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestMint_ValidationError(t *testing.T) {
	env := newTestEnv()
	rr := env.doJSON(t, http.MethodPost, "/items", sellerWallet, map[string]any{
		"name": "x", "game": "Aurory", "kind": "hat", "price": 1.0,
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestBrowse_CheapestFirst(t *testing.T) {
	env := newTestEnv()
	env.mint(t, 3.0)
	env.mint(t, 1.0)
	env.mint(t, 2.0)

	rr := env.doJSON(t, http.MethodGet, "/items/browse", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	items := decodeJSON[[]itemResponse](t, rr)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Price != 1.0 || items[2].Price != 3.0 {
		t.Errorf("not cheapest-first: %v, %v, %v", items[0].Price, items[1].Price, items[2].Price)
	}
}

func TestPurchaseFlow(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 2.0)

	// Fund the buyer through the faucet.
	rr := env.doJSON(t, http.MethodPost, "/wallets/faucet", buyerWallet, map[string]any{"amount": 5.0})
	if rr.Code != http.StatusOK {
		t.Fatalf("faucet returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), buyerWallet, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("buy returned %d: %s", rr.Code, rr.Body.String())
	}
	receipt := decodeJSON[receiptResponse](t, rr)
	if receipt.Buyer != buyerWallet || receipt.Seller != sellerWallet {
		t.Errorf("receipt parties = %q → %q", receipt.Buyer, receipt.Seller)
	}
	if receipt.Price != 2.0 {
		t.Errorf("receipt price = %v, want 2.0", receipt.Price)
	}
	if receipt.BuyerBalance != 3_000_000_000 {
		t.Errorf("buyer balance = %d, want 3000000000", receipt.BuyerBalance)
	}

	// Item is now owned by the buyer.
	rr = env.doJSON(t, http.MethodGet, fmt.Sprintf("/items/%d", id), "", nil)
	item := decodeJSON[itemResponse](t, rr)
	if item.Status != "owned" || item.Owner == nil || *item.Owner != buyerWallet {
		t.Errorf("item after purchase = %+v", item)
	}

	// Provenance records the sale.
	rr = env.doJSON(t, http.MethodGet, fmt.Sprintf("/items/%d/sales", id), "", nil)
	sales := decodeJSON[[]saleResponse](t, rr)
	if len(sales) != 1 {
		t.Fatalf("provenance has %d sales, want 1", len(sales))
	}
}

func TestPurchase_ErrorStatuses(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 2.0)

	// Broke buyer → 402.
	rr := env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), buyerWallet, nil)
	if rr.Code != http.StatusPaymentRequired {
		t.Errorf("broke buyer status = %d, want 402", rr.Code)
	}

	// Seller buying own item → 403.
	env.doJSON(t, http.MethodPost, "/wallets/faucet", sellerWallet, map[string]any{"amount": 5.0})
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), sellerWallet, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("self trade status = %d, want 403", rr.Code)
	}

	// Missing item → 404.
	rr = env.doJSON(t, http.MethodPost, "/items/999/buy", buyerWallet, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", rr.Code)
	}

	// Sold item → 409.
	env.doJSON(t, http.MethodPost, "/wallets/faucet", buyerWallet, map[string]any{"amount": 5.0})
	env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), buyerWallet, nil)
	env.doJSON(t, http.MethodPost, "/wallets/faucet", otherWallet, map[string]any{"amount": 5.0})
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), otherWallet, nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("sold item status = %d, want 409", rr.Code)
	}
}

func TestListUnlistFlow(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 1.0)
	env.doJSON(t, http.MethodPost, "/wallets/faucet", buyerWallet, map[string]any{"amount": 2.0})
	env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), buyerWallet, nil)

	// List at a new price.
	rr := env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/list", id), buyerWallet, map[string]any{"price": 4.0})
	if rr.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", rr.Code, rr.Body.String())
	}
	item := decodeJSON[itemResponse](t, rr)
	if item.Status != "listed_for_sale" || item.Price != 4.0 {
		t.Errorf("listed item = %+v", item)
	}

	// Listing again conflicts.
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/list", id), buyerWallet, map[string]any{"price": 5.0})
	if rr.Code != http.StatusConflict {
		t.Errorf("double list status = %d, want 409", rr.Code)
	}

	// A stranger cannot unlist.
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/unlist", id), otherWallet, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("stranger unlist status = %d, want 403", rr.Code)
	}

	// The owner unlists; the item returns to owned.
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/unlist", id), buyerWallet, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unlist returned %d: %s", rr.Code, rr.Body.String())
	}
	item = decodeJSON[itemResponse](t, rr)
	if item.Status != "owned" {
		t.Errorf("status after unlist = %q, want owned", item.Status)
	}

	// Unlisting an unlisted item conflicts.
	rr = env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/unlist", id), buyerWallet, nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("double unlist status = %d, want 409", rr.Code)
	}
}

func TestList_InvalidPrice(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 1.0)

	rr := env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/list", id), sellerWallet, map[string]any{"price": 0})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if resp := decodeJSON[map[string]string](t, rr); resp["error"] != "invalid_price" {
		t.Errorf("error code = %q", resp["error"])
	}
}

func TestWalletEndpoints(t *testing.T) {
	env := newTestEnv()
	env.ledger.Credit(buyerWallet, 3_000_000_000)

	rr := env.doJSON(t, http.MethodGet, "/wallets/"+buyerWallet+"/balance", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("balance returned %d", rr.Code)
	}
	balance := decodeJSON[balanceResponse](t, rr)
	if balance.Lamports != 3_000_000_000 || balance.Sol != 3.0 {
		t.Errorf("balance = %+v", balance)
	}

	rr = env.doJSON(t, http.MethodPost, "/wallets/transfer", buyerWallet, map[string]any{
		"to": otherWallet, "amount": 1.0,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("transfer returned %d: %s", rr.Code, rr.Body.String())
	}
	transfer := decodeJSON[transferResponse](t, rr)
	if transfer.FromBalance != 2_000_000_000 || transfer.ToBalance != 1_000_000_000 {
		t.Errorf("transfer = %+v", transfer)
	}

	// Faucet above the limit → 400.
	rr = env.doJSON(t, http.MethodPost, "/wallets/faucet", buyerWallet, map[string]any{"amount": 100.0})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("over-limit faucet status = %d, want 400", rr.Code)
	}
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv()

	rr := env.doJSON(t, http.MethodPost, "/users", "", map[string]string{
		"wallet": buyerWallet, "username": "alice",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = env.doJSON(t, http.MethodGet, "/users/"+buyerWallet, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile returned %d", rr.Code)
	}
	profile := decodeJSON[profileResponse](t, rr)
	if profile.Username != "alice" {
		t.Errorf("username = %q", profile.Username)
	}

	rr = env.doJSON(t, http.MethodGet, "/users/"+otherWallet, "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown profile status = %d, want 404", rr.Code)
	}

	// Username conflict → 409.
	rr = env.doJSON(t, http.MethodPost, "/users", "", map[string]string{
		"wallet": otherWallet, "username": "alice",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate username status = %d, want 409", rr.Code)
	}
}

func TestWebhookEndpoints(t *testing.T) {
	env := newTestEnv()

	rr := env.doJSON(t, http.MethodPost, "/webhooks", buyerWallet, map[string]any{
		"url": "https://example.com/hook", "events": []string{"sale.executed"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("webhook upsert returned %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeJSON[[]webhookResponse](t, rr)
	if len(created) != 1 {
		t.Fatalf("created %d webhooks, want 1", len(created))
	}

	rr = env.doJSON(t, http.MethodGet, "/webhooks", buyerWallet, nil)
	listed := decodeJSON[[]webhookResponse](t, rr)
	if len(listed) != 1 {
		t.Fatalf("listed %d webhooks, want 1", len(listed))
	}

	rr = env.doJSON(t, http.MethodDelete, "/webhooks/"+created[0].WebhookID, buyerWallet, nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete returned %d, want 204", rr.Code)
	}

	rr = env.doJSON(t, http.MethodDelete, "/webhooks/"+created[0].WebhookID, buyerWallet, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete returned %d, want 404", rr.Code)
	}

	// Invalid event → 400.
	rr = env.doJSON(t, http.MethodPost, "/webhooks", buyerWallet, map[string]any{
		"url": "https://example.com/hook", "events": []string{"item.sold"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad event status = %d, want 400", rr.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv()
	id := env.mint(t, 1.0)
	env.mint(t, 2.0)
	env.doJSON(t, http.MethodPost, "/wallets/faucet", buyerWallet, map[string]any{"amount": 2.0})
	env.doJSON(t, http.MethodPost, fmt.Sprintf("/items/%d/buy", id), buyerWallet, nil)

	rr := env.doJSON(t, http.MethodGet, "/stats", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats returned %d", rr.Code)
	}
	stats := decodeJSON[statsResponse](t, rr)
	if stats.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", stats.TotalItems)
	}
	if stats.ActiveListings != 1 {
		t.Errorf("ActiveListings = %d, want 1", stats.ActiveListings)
	}
	if stats.TotalSales != 1 {
		t.Errorf("TotalSales = %d, want 1", stats.TotalSales)
	}
	if stats.TotalVolume != 1.0 {
		t.Errorf("TotalVolume = %v, want 1.0", stats.TotalVolume)
	}
}

func TestContentType_Required(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"wallet":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"wallet":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
