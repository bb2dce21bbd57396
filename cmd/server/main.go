// Agent Wizard - guided research-agent builder server
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

	"github.com/forgeworks/agentwizard/internal/agent"
	"github.com/forgeworks/agentwizard/internal/api"
	"github.com/forgeworks/agentwizard/internal/config"
	"github.com/forgeworks/agentwizard/internal/discovery"
	"github.com/forgeworks/agentwizard/internal/identity"
	"github.com/forgeworks/agentwizard/internal/ingest"
	"github.com/forgeworks/agentwizard/internal/middleware"
	"github.com/forgeworks/agentwizard/internal/policy"
	"github.com/forgeworks/agentwizard/internal/session"
	"github.com/forgeworks/agentwizard/internal/store"
	"github.com/forgeworks/agentwizard/internal/wizard"
	"github.com/forgeworks/agentwizard/internal/ws"
	"github.com/forgeworks/agentwizard/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const resultBaseURL = "/api/result"

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

	slog.Info("Starting server", "port", cfg.Port, "public", cfg.PublicMode, "dev", cfg.IsDevelopment())

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

	gate, err := policy.Load(cfg.PolicyPath, cfg.PublicMode)
	if err != nil {
		slog.Error("Failed to load capability policy", "error", err)
		os.Exit(1)
	}
	slog.Info("Capability gate ready", "public", gate.Public(), "output_modes", gate.AllowedModes())

	sessions := session.NewStore(session.Options{
		TTL:             cfg.SessionTTL,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	// Discovery sources. The curated catalog is the built-in provider;
	// external search services mount behind the same interface.
	var sources []discovery.Source
	if cfg.CatalogPath != "" {
		catalog, err := discovery.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			slog.Warn("Package catalog unavailable", "path", cfg.CatalogPath, "error", err)
		} else {
			sources = append(sources, catalog)
		}
	}
	aggregator := discovery.NewAggregator(sources, 15*time.Second)

	pipeline := ingest.NewPipeline(ingest.NewHTTPCrawler())
	sink := store.Sink{Repo: repo}

	deps := wizard.Deps{
		Discovery: aggregator,
		Docs:      wizard.SummaryDocFetcher{},
		Generator: &wizard.BundleGenerator{Artifacts: sink, BaseURL: resultBaseURL, TTL: cfg.ResultTTL},
		Ingestor:  &ingest.Runner{Pipeline: pipeline},
		Gate:      gate,
	}
	factory := agent.GuidedFactory(gate.AllowedModes())

	// Initialize handlers.
	apiHandler := api.NewHandler(sessions, repo, gate)
	wizardWS := ws.NewWizardHandler(sessions, factory, deps, cfg.FrontendURL, cfg.IsDevelopment())
	ingestWS := ws.NewIngestHandler(pipeline, sink, resultBaseURL, cfg.ResultTTL, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoints.
	r.Get("/ws/wizard", wizardWS.ServeHTTP)
	r.Get("/ws/ingest", ingestWS.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server. WriteTimeout stays 0: websocket channels are
	// long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartSweeper(ctx, time.Minute)
	store.StartCleanup(ctx, repo, cfg.CleanupInterval)
	slog.Info("Background workers started", "session_ttl", cfg.SessionTTL, "result_ttl", cfg.ResultTTL)

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
