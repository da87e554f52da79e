package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"sale.executed": true,
	"item.listed":   true,
	"item.unlisted": true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Wallet string
	URL    string
	Events []string
}

// EventService handles webhook CRUD and marketplace event dispatch.
type EventService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewEventService creates a new EventService.
func NewEventService(webhooks *store.WebhookStore, timeout time.Duration) *EventService {
	return &EventService{
		store: webhooks,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates webhook
// subscriptions. Returns the resulting webhooks and whether any new
// subscriptions were created.
func (s *EventService) Upsert(req UpsertWebhookRequest) ([]*store.Webhook, bool, error) {
	if !walletRegex.MatchString(req.Wallet) {
		return nil, false, &domain.ValidationError{Message: "wallet must be a valid wallet address"}
	}
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: sale.executed, item.listed, item.unlisted",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*store.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &store.Webhook{
			WebhookID: uuid.New().String(),
			Wallet:    req.Wallet,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			if existing := s.store.GetByWalletEvent(req.Wallet, event); existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions for a wallet.
func (s *EventService) List(wallet string) []*store.Webhook {
	return s.store.ListByWallet(wallet)
}

// Delete removes a webhook subscription by ID.
func (s *EventService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// saleExecutedPayload is the JSON payload for sale.executed webhooks.
type saleExecutedPayload struct {
	Event     string           `json:"event"`
	Timestamp string           `json:"timestamp"`
	Data      saleExecutedData `json:"data"`
}

type saleExecutedData struct {
	SaleID   string  `json:"sale_id"`
	ItemID   int64   `json:"item_id"`
	ItemName string  `json:"item_name"`
	Buyer    string  `json:"buyer"`
	Seller   string  `json:"seller"`
	Price    float64 `json:"price"`
}

// itemEventPayload is the JSON payload for item.listed and item.unlisted webhooks.
type itemEventPayload struct {
	Event     string        `json:"event"`
	Timestamp string        `json:"timestamp"`
	Data      itemEventData `json:"data"`
}

type itemEventData struct {
	ItemID   int64   `json:"item_id"`
	ItemName string  `json:"item_name"`
	Seller   string  `json:"seller"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
}

// DispatchSaleExecuted notifies both the buyer and the seller of a
// completed sale. Deliveries are fire-and-forget; failures are logged only.
func (s *EventService) DispatchSaleExecuted(sale *domain.Sale, item *domain.Item) {
	payload := saleExecutedPayload{
		Event:     "sale.executed",
		Timestamp: sale.ExecutedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: saleExecutedData{
			SaleID:   sale.SaleID,
			ItemID:   sale.ItemID,
			ItemName: item.Name,
			Buyer:    sale.Buyer,
			Seller:   sale.Seller,
			Price:    domain.LamportsToSol(sale.Price),
		},
	}

	for _, wallet := range []string{sale.Buyer, sale.Seller} {
		if wh := s.store.GetByWalletEvent(wallet, "sale.executed"); wh != nil {
			go s.deliver(wh, "sale.executed", payload)
		}
	}
}

// DispatchItemListed notifies the seller that their listing is live.
// Fire-and-forget.
func (s *EventService) DispatchItemListed(item *domain.Item) {
	wh := s.store.GetByWalletEvent(item.Seller, "item.listed")
	if wh == nil {
		return
	}
	go s.deliver(wh, "item.listed", s.buildItemEventPayload("item.listed", item))
}

// DispatchItemUnlisted notifies the holder that their listing was
// withdrawn. Fire-and-forget.
func (s *EventService) DispatchItemUnlisted(item *domain.Item) {
	wh := s.store.GetByWalletEvent(item.Holder(), "item.unlisted")
	if wh == nil {
		return
	}
	go s.deliver(wh, "item.unlisted", s.buildItemEventPayload("item.unlisted", item))
}

// buildItemEventPayload creates the JSON payload for item.listed and
// item.unlisted events.
func (s *EventService) buildItemEventPayload(event string, item *domain.Item) itemEventPayload {
	return itemEventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: itemEventData{
			ItemID:   item.ID,
			ItemName: item.Name,
			Seller:   item.Seller,
			Price:    domain.LamportsToSol(item.Price),
			Status:   string(item.Status),
		},
	}
}

// deliver sends the webhook payload via HTTP POST with the required
// headers. Errors are silently ignored (fire-and-forget).
func (s *EventService) deliver(wh *store.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
