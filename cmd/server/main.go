// Scamtrap - conversational honeypot for scam intelligence gathering
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
	"github.com/sashabaranov/go-openai"

	"github.com/scamtrap/scamtrap/internal/agent"
	"github.com/scamtrap/scamtrap/internal/api"
	"github.com/scamtrap/scamtrap/internal/config"
	"github.com/scamtrap/scamtrap/internal/detector"
	"github.com/scamtrap/scamtrap/internal/extractor"
	"github.com/scamtrap/scamtrap/internal/feed"
	"github.com/scamtrap/scamtrap/internal/middleware"
	"github.com/scamtrap/scamtrap/internal/pipeline"
	"github.com/scamtrap/scamtrap/internal/reporting"
	"github.com/scamtrap/scamtrap/internal/store"
	"github.com/scamtrap/scamtrap/web"
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

	slog.Info("Starting server", "port", cfg.Port, "llm_enabled", cfg.LLMEnabled())

	// Initialize stores. All state is in-memory and process-lifetime only.
	sessions := store.NewSessionStore()
	audit := store.NewAuditStore()

	// Live activity feed for dashboard clients.
	hub := feed.NewHub()
	sessions.SetActivitySink(hub)

	// LLM backend. A nil client switches every stage to its local fallback.
	var llmClient *openai.Client
	if cfg.LLMEnabled() {
		clientCfg := openai.DefaultConfig(cfg.GroqAPIKey)
		clientCfg.BaseURL = cfg.GroqBaseURL
		llmClient = openai.NewClientWithConfig(clientCfg)
	} else {
		slog.Warn("GROQ_API_KEY not set, using keyword/regex fallbacks for all AI stages")
	}

	pipe := pipeline.New(
		sessions,
		audit,
		detector.New(llmClient, cfg.DetectorModel),
		agent.New(llmClient, cfg.AgentModel),
		extractor.New(llmClient, cfg.AgentModel),
		reporting.NewClient(cfg.CallbackURL, cfg.ReportTimeout),
	)

	// Initialize handlers.
	chatHandler := api.NewChatHandler(pipe)
	dashboardHandler := api.NewDashboardHandler(sessions)
	adminHandler := api.NewAdminHandler(audit)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	// Webhook routes behind the shared-secret check.
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKey))
		chatHandler.RegisterRoutes(r)
	})

	// Read-only views.
	dashboardHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	// Live feed and static pages.
	r.Get("/ws/feed", hub.ServeHTTP)
	r.Get("/dashboard", web.Page("dashboard.html"))
	r.Get("/admin", web.Page("admin.html"))
	r.Handle("/static/*", web.Static())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout; the feed WebSocket is long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

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
