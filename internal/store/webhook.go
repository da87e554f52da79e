package store

import (
	"sync"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// Webhook is a notification subscription for a wallet and event type.
type Webhook struct {
	WebhookID string
	Wallet    string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary index: wallet → event → webhook.
type WebhookStore struct {
	mu       sync.RWMutex
	webhooks map[string]*Webhook            // webhook_id → webhook
	byWallet map[string]map[string]*Webhook // wallet → event → webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks: make(map[string]*Webhook),
		byWallet: make(map[string]map[string]*Webhook),
	}
}

// Upsert inserts or updates a subscription keyed by (wallet, event).
// If a subscription already exists for that pair, the URL and UpdatedAt
// are updated and the webhook_id remains stable. Returns true if a new
// subscription was created.
func (s *WebhookStore) Upsert(w *Webhook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if events, ok := s.byWallet[w.Wallet]; ok {
		if existing, ok := events[w.Event]; ok {
			if existing.URL != w.URL {
				existing.URL = w.URL
				existing.UpdatedAt = w.UpdatedAt
			}
			return false
		}
	}

	s.webhooks[w.WebhookID] = w
	if s.byWallet[w.Wallet] == nil {
		s.byWallet[w.Wallet] = make(map[string]*Webhook)
	}
	s.byWallet[w.Wallet][w.Event] = w
	return true
}

// GetByWalletEvent returns the subscription for a wallet and event, or
// nil if none exists.
func (s *WebhookStore) GetByWalletEvent(wallet, event string) *Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.byWallet[wallet]
	if !ok {
		return nil
	}
	return events[event]
}

// ListByWallet returns all subscriptions for a wallet.
func (s *WebhookStore) ListByWallet(wallet string) []*Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byWallet[wallet]
	result := make([]*Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, w)
	}
	return result
}

// Delete removes a subscription by ID. Returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Delete(webhookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[webhookID]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.webhooks, webhookID)
	if events, ok := s.byWallet[w.Wallet]; ok {
		delete(events, w.Event)
	}
	return nil
}
