package handler

import (
	"net/http"

	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/efreitasn/nftmarket/internal/store"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler handles webhook subscription endpoints.
type WebhookHandler struct {
	eventSvc *service.EventService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(eventSvc *service.EventService) *WebhookHandler {
	return &WebhookHandler{eventSvc: eventSvc}
}

// upsertWebhookRequest is the JSON request body for POST /webhooks.
type upsertWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// webhookResponse is the JSON representation of a webhook subscription.
type webhookResponse struct {
	WebhookID string `json:"webhook_id"`
	Wallet    string `json:"wallet"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Upsert handles POST /webhooks. Creates or updates subscriptions for the
// authenticated wallet; 201 when any subscription was created, 200 when
// all were updates.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	webhooks, created, err := h.eventSvc.Upsert(service.UpsertWebhookRequest{
		Wallet: callerWallet(r),
		URL:    req.URL,
		Events: req.Events,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, buildWebhookResponses(webhooks))
}

// List handles GET /webhooks for the authenticated wallet.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	webhooks := h.eventSvc.List(callerWallet(r))
	WriteJSON(w, http.StatusOK, buildWebhookResponses(webhooks))
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.eventSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		mapDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func buildWebhookResponses(webhooks []*store.Webhook) []webhookResponse {
	result := make([]webhookResponse, len(webhooks))
	for i, wh := range webhooks {
		result[i] = webhookResponse{
			WebhookID: wh.WebhookID,
			Wallet:    wh.Wallet,
			Event:     wh.Event,
			URL:       wh.URL,
			CreatedAt: wh.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			UpdatedAt: wh.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return result
}
