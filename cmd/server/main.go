package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"essaycoach/internal/auth"
	"essaycoach/internal/catalog"
	"essaycoach/internal/config"
	"essaycoach/internal/domain/repositories"
	"essaycoach/internal/handler"
	"essaycoach/internal/metrics"
	"essaycoach/internal/middleware"
	"essaycoach/internal/repository/memory"
	"essaycoach/internal/repository/postgres"
	"essaycoach/internal/service/ai"
	"essaycoach/internal/service/essay"
	"essaycoach/internal/service/progress"
	"essaycoach/internal/service/settings"
	"essaycoach/internal/service/state"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"persistent", cfg.DatabaseURL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT verification is optional; anonymous client keys are used without it
	var jwtVerifier auth.JWTVerifier
	if cfg.SupabaseJWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	}

	// State store: Postgres when configured, otherwise in-process memory
	var (
		stateRepo repositories.StateRepository
		txManager repositories.TransactionManager
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repo := postgres.NewStateRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		stateRepo = repo
		txManager = postgres.NewTransactionManager(pool, logger)
		logger.Info("database connected")
	} else {
		stateRepo = memory.NewStateRepository()
		txManager = memory.NewTransactionManager()
		logger.Warn("DATABASE_URL not set, state is kept in memory only")
	}
	states := state.NewManager(stateRepo, txManager, logger)

	toolCatalog, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load tool catalog: %v", err)
	}

	// AI collaborator
	vision := ai.NewVisionQueue(cfg.VisionMinInterval, logger)
	defer vision.Close()
	aiClient := ai.NewClient(
		ai.NewProviderFactory(cfg),
		ai.ClientConfigFrom(cfg),
		ai.NewGuard(cfg.AIMinInterval),
		vision,
		logger,
	)

	// Services
	essayService := essay.NewService(states, toolCatalog, aiClient, logger)
	progressService := progress.NewService(states, toolCatalog, logger)
	settingsService := settings.NewService(states, cfg.DefaultProvider, logger)

	// Handlers
	essayHandler := handler.NewEssayHandler(essayService, logger)
	historyHandler := handler.NewHistoryHandler(essayService, logger)
	progressHandler := handler.NewProgressHandler(progressService, toolCatalog, logger)
	settingsHandler := handler.NewSettingsHandler(settingsService, logger)
	visionHandler := handler.NewVisionHandler(aiClient, logger)

	logger.Info("services initialized")

	// API routes resolve a client key; health and metrics do not
	api := http.NewServeMux()

	// Essay routes
	api.HandleFunc("GET /api/essays", essayHandler.ListEssays)
	api.HandleFunc("POST /api/essays", essayHandler.CreateEssay)
	api.HandleFunc("GET /api/essays/{id}", essayHandler.GetEssay)
	api.HandleFunc("PATCH /api/essays/{id}", essayHandler.UpdateEssay)
	api.HandleFunc("DELETE /api/essays/{id}", essayHandler.DeleteEssay)

	// Version routes
	api.HandleFunc("POST /api/essays/{id}/versions", essayHandler.AddVersion)
	api.HandleFunc("PATCH /api/essays/{id}/versions/{versionId}", essayHandler.UpdateVersionFeedback)
	api.HandleFunc("DELETE /api/essays/{id}/versions/{versionId}", essayHandler.DeleteVersion)
	api.HandleFunc("PATCH /api/essays/{id}/versions/{versionId}/action-items/{itemId}", essayHandler.ToggleActionItem)
	api.HandleFunc("POST /api/essays/{id}/versions/{versionId}/feedback", essayHandler.RequestFeedback)

	// Version history routes
	api.HandleFunc("GET /api/essays/{id}/tree", historyHandler.GetTree)
	api.HandleFunc("GET /api/essays/{id}/path", historyHandler.GetPath)
	api.HandleFunc("POST /api/essays/{id}/path/switch", historyHandler.SwitchSibling)
	api.HandleFunc("GET /api/essays/{id}/history-summary", historyHandler.GetHistorySummary)

	// Tool ladder routes
	api.HandleFunc("GET /api/tools", progressHandler.ListTools)
	api.HandleFunc("GET /api/progress", progressHandler.GetProgress)
	api.HandleFunc("POST /api/progress/practice", progressHandler.RecordPractice)
	api.HandleFunc("DELETE /api/progress", progressHandler.ResetProgress)

	// Settings routes
	api.HandleFunc("GET /api/settings/ai", settingsHandler.GetAIConfig)
	api.HandleFunc("PATCH /api/settings/ai", settingsHandler.UpdateAIConfig)

	// Vision routes
	api.HandleFunc("POST /api/vision/describe", visionHandler.Describe)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/api/", middleware.ClientKey(jwtVerifier, logger)(api))

	// Build middleware chain
	// Order: CORS → Recovery → RequestLogger → Routes
	var h http.Handler = mux
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.ClientIDHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// AI calls retry and fall back, so leave room beyond one timeout
		WriteTimeout: 3*cfg.AITimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
