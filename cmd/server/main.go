// Synergy Agents - human-supervised cross-sell delegation service
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/leadops/synergy-agents/internal/agentrt"
	"github.com/leadops/synergy-agents/internal/api"
	"github.com/leadops/synergy-agents/internal/config"
	"github.com/leadops/synergy-agents/internal/market"
	"github.com/leadops/synergy-agents/internal/middleware"
	"github.com/leadops/synergy-agents/internal/policy"
	"github.com/leadops/synergy-agents/internal/recommend"
	"github.com/leadops/synergy-agents/internal/store"
	"github.com/leadops/synergy-agents/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	constraints, err := policy.Load(cfg.RoutingPolicyPath)
	if err != nil {
		slog.Error("Failed to load routing policy", "error", err)
		os.Exit(1)
	}

	// Model runtime is optional; without it the heuristic strategy runs alone.
	var modelStrategy recommend.Strategy
	if cfg.ModelConfigured() {
		client := agentrt.NewClient(agentrt.Config{
			Endpoint:    cfg.Model.Endpoint,
			APIKey:      cfg.Model.APIKey,
			Deployment:  cfg.Model.Deployment,
			Temperature: cfg.Model.Temperature,
		})
		modelStrategy = recommend.NewModelStrategy(client)
		slog.Info("Model runtime configured", "deployment", cfg.Model.Deployment)
	} else {
		slog.Info("Model runtime not configured, using heuristic recommendations only")
	}

	source := recommend.NewSource(modelStrategy, recommend.NewHeuristicStrategy())

	var marketClient workflow.MarketSearcher
	if cfg.MarketSignalConfigured() {
		marketClient = market.NewClient(cfg.MarketSignal.APIKey)
		slog.Info("Market signal lookup enabled")
	}

	engine := workflow.NewEngine(repo, source, marketClient, constraints)

	// Initialize handlers.
	sessionHandler := api.NewSessionHandler(engine)
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Session routes behind the service bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))
		sessionHandler.RegisterRoutes(r)
	})

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
