package store

import (
	"errors"
	"testing"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

const webhookWallet = "WALLETWALLETWALLETWALLETWALLETWA"

func TestWebhookStore_UpsertCreatesAndUpdates(t *testing.T) {
	s := NewWebhookStore()

	created := s.Upsert(&Webhook{
		WebhookID: "wh-1",
		Wallet:    webhookWallet,
		Event:     "sale.executed",
		URL:       "https://example.com/hook",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if !created {
		t.Error("first Upsert should report created")
	}

	// Same wallet+event with a new URL updates in place.
	created = s.Upsert(&Webhook{
		WebhookID: "wh-2",
		Wallet:    webhookWallet,
		Event:     "sale.executed",
		URL:       "https://example.com/hook2",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if created {
		t.Error("second Upsert for same wallet+event should report updated")
	}

	got := s.GetByWalletEvent(webhookWallet, "sale.executed")
	if got == nil {
		t.Fatal("GetByWalletEvent returned nil")
	}
	if got.WebhookID != "wh-1" {
		t.Errorf("webhook_id = %q, want stable wh-1", got.WebhookID)
	}
	if got.URL != "https://example.com/hook2" {
		t.Errorf("url = %q, want updated url", got.URL)
	}
}

func TestWebhookStore_ListByWallet(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(&Webhook{WebhookID: "wh-1", Wallet: webhookWallet, Event: "sale.executed", URL: "https://a.example"})
	s.Upsert(&Webhook{WebhookID: "wh-2", Wallet: webhookWallet, Event: "item.listed", URL: "https://b.example"})

	if got := s.ListByWallet(webhookWallet); len(got) != 2 {
		t.Errorf("ListByWallet returned %d, want 2", len(got))
	}
	if got := s.ListByWallet("OTHEROTHEROTHEROTHEROTHEROTHEROT"); len(got) != 0 {
		t.Errorf("ListByWallet for unknown wallet returned %d, want 0", len(got))
	}
}

func TestWebhookStore_Delete(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(&Webhook{WebhookID: "wh-1", Wallet: webhookWallet, Event: "sale.executed", URL: "https://a.example"})

	if err := s.Delete("wh-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got := s.GetByWalletEvent(webhookWallet, "sale.executed"); got != nil {
		t.Error("subscription still resolvable after delete")
	}
	if err := s.Delete("wh-1"); !errors.Is(err, domain.ErrWebhookNotFound) {
		t.Errorf("second Delete error = %v, want ErrWebhookNotFound", err)
	}
}
