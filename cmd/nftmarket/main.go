package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/efreitasn/nftmarket/internal/config"
	"github.com/efreitasn/nftmarket/internal/db"
	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/handler"
	"github.com/efreitasn/nftmarket/internal/ledger"
	"github.com/efreitasn/nftmarket/internal/registry"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/efreitasn/nftmarket/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// In-memory state.
	accounts := ledger.NewLedger()
	items := registry.NewRegistry()
	sales := store.NewSaleStore()
	users := store.NewUserStore()
	webhooks := store.NewWebhookStore()
	games := domain.NewGameRegistry()

	// Optional SQLite persistence.
	var persist service.Persister
	var database *sql.DB
	if cfg.DatabasePath != "" {
		database, err = db.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to open database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()

		if err := restoreState(database, accounts, items, sales, users, games); err != nil {
			logger.Error("failed to restore state", slog.String("error", err.Error()))
			os.Exit(1)
		}
		persist = db.NewSnapshotter(database, logger)
		logger.Info("state restored", slog.String("path", cfg.DatabasePath))
	}

	faucetLimit, err := domain.SolToLamports(cfg.FaucetLimitSol)
	if err != nil {
		logger.Error("invalid faucet limit", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Services.
	eventSvc := service.NewEventService(webhooks, cfg.WebhookTimeout)
	marketSvc := service.NewMarketService(items, accounts, sales, users, games, eventSvc, persist, logger)
	accountSvc := service.NewAccountService(accounts, persist, faucetLimit)
	userSvc := service.NewUserService(users, items, persist)

	// Router.
	router := handler.NewRouter(marketSvc, accountSvc, userSvc, eventSvc, handler.RouterConfig{
		AuthSecret: cfg.AuthSecret,
		TokenTTL:   cfg.TokenTTL,
	}, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// restoreState loads persisted accounts, items, sales, and users into the
// in-memory stores.
func restoreState(
	database *sql.DB,
	accounts *ledger.Ledger,
	items *registry.Registry,
	sales *store.SaleStore,
	users *store.UserStore,
	games *domain.GameRegistry,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balances, err := db.LoadAccounts(ctx, database)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	for address, balance := range balances {
		accounts.Restore(address, balance, time.Now())
	}

	loadedItems, err := db.LoadItems(ctx, database)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	for _, item := range loadedItems {
		items.Restore(item)
		games.Register(item.Game)
	}

	loadedSales, err := db.LoadSales(ctx, database)
	if err != nil {
		return fmt.Errorf("load sales: %w", err)
	}
	for _, sale := range loadedSales {
		sales.Append(sale)
	}

	loadedUsers, err := db.LoadUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for _, u := range loadedUsers {
		if _, err := users.Upsert(u); err != nil {
			return fmt.Errorf("restore user %s: %w", u.Wallet, err)
		}
	}

	return nil
}
