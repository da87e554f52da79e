package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
)

// RouterConfig carries the handler-level configuration for NewRouter.
type RouterConfig struct {
	AuthSecret string
	TokenTTL   time.Duration
}

// NewRouter creates a chi router with all routes registered, request
// logging, Content-Type validation, and token auth on mutating wallet
// and item endpoints.
func NewRouter(
	marketSvc *service.MarketService,
	accountSvc *service.AccountService,
	userSvc *service.UserService,
	eventSvc *service.EventService,
	cfg RouterConfig,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	authH := NewAuthHandler(cfg.AuthSecret, cfg.TokenTTL)
	itemH := NewItemHandler(marketSvc)
	marketH := NewMarketHandler(marketSvc)
	accountH := NewAccountHandler(accountSvc)
	userH := NewUserHandler(userSvc)
	webhookH := NewWebhookHandler(eventSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes.
	r.Post("/auth/token", authH.IssueToken)
	r.Get("/stats", marketH.Stats)
	r.Get("/wallets/{address}/balance", accountH.GetBalance)
	r.Get("/items", itemH.List)
	r.Get("/items/browse", itemH.Browse)
	r.Get("/items/{item_id}", itemH.Get)
	r.Get("/items/{item_id}/sales", itemH.Sales)
	r.Get("/sales", marketH.RecentSales)
	r.Post("/users", userH.Register)
	r.Get("/users/{address}", userH.GetProfile)
	r.Get("/users/{address}/items", userH.ListItems)
	r.Get("/users/{address}/listings", userH.ListListings)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth(cfg.AuthSecret))

		r.Post("/wallets/faucet", accountH.Faucet)
		r.Post("/wallets/transfer", accountH.Transfer)
		r.Post("/items", itemH.Mint)
		r.Post("/items/{item_id}/list", marketH.ListForSale)
		r.Post("/items/{item_id}/unlist", marketH.Unlist)
		r.Post("/items/{item_id}/buy", marketH.Buy)
		r.Post("/webhooks", webhookH.Upsert)
		r.Get("/webhooks", webhookH.List)
		r.Delete("/webhooks/{webhook_id}", webhookH.Delete)
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests carrying a body. If the Content-Type header doesn't
// start with "application/json", it returns 400 Bad Request before the
// handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength > 0 {
				ct := r.Header.Get("Content-Type")
				if ct == "" || !strings.HasPrefix(ct, "application/json") {
					WriteError(w, http.StatusBadRequest, "invalid_request",
						"Content-Type must be application/json")
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
